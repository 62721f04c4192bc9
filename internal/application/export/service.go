package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/cache"
	"github.com/temba/backend/internal/infrastructure/config"
	"github.com/temba/backend/internal/infrastructure/scheduler"
	"github.com/temba/backend/internal/infrastructure/storage"
	"github.com/temba/backend/internal/infrastructure/telemetry"
	"github.com/temba/backend/pkg/s3select"
	"github.com/temba/backend/pkg/tableexport"
)

// JobKind is the scheduler job kind exports are processed under
const JobKind = "export"

const (
	lockPrefix      = "export:"
	pendingBatch    = 50
	cleanupBatch    = 100
	defaultExpiry   = 15 * time.Minute
	defaultLockTTL  = 2 * time.Hour
	defaultMaxRetry = 3
)

// RecordSource streams archived records
type RecordSource interface {
	IterRecords(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType, after, before time.Time, where s3select.Conditions, fn s3select.RecordFunc) error
}

// ObjectStorage is the storage export files are uploaded to
type ObjectStorage interface {
	PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, contentType string) error
	DeleteObject(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key, filename string, expiresIn time.Duration) (string, time.Time, error)
}

// JobSubmitter queues exports for processing
type JobSubmitter interface {
	Submit(job *scheduler.Job) error
}

// ExportService creates exports and builds their files in the background
type ExportService struct {
	repo           export.ExportRepository
	records        RecordSource
	storage        ObjectStorage
	locker         cache.Locker
	jobs           JobSubmitter
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ServiceMetrics
	logger         *zap.Logger

	bucket        string
	cfg           config.ExportConfig
	presignExpiry time.Duration
	maxRetries    int
	now           func() time.Time
}

// Option configures an ExportService
type Option func(*ExportService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *ExportService) {
		s.logger = logger
	}
}

// WithMetrics sets the instruments finished exports are recorded on
func WithMetrics(m *telemetry.ServiceMetrics) Option {
	return func(s *ExportService) {
		s.metrics = m
	}
}

// WithJobSubmitter sets the worker pool new exports are queued on. Without
// one, exports wait for EnqueuePending.
func WithJobSubmitter(jobs JobSubmitter) Option {
	return func(s *ExportService) {
		s.jobs = jobs
	}
}

// WithConfig sets the export processing settings
func WithConfig(cfg config.ExportConfig) Option {
	return func(s *ExportService) {
		s.cfg = cfg
	}
}

// WithPresignExpiry sets how long download links are valid
func WithPresignExpiry(d time.Duration) Option {
	return func(s *ExportService) {
		if d > 0 {
			s.presignExpiry = d
		}
	}
}

// WithMaxRetries sets how often a locked export is retried
func WithMaxRetries(n int) Option {
	return func(s *ExportService) {
		s.maxRetries = n
	}
}

// NewExportService creates a new ExportService. Export files are stored in bucket.
func NewExportService(repo export.ExportRepository, records RecordSource, objects ObjectStorage, locker cache.Locker, bucket string, opts ...Option) *ExportService {
	s := &ExportService{
		repo:          repo,
		records:       records,
		storage:       objects,
		locker:        locker,
		logger:        zap.NewNop(),
		bucket:        bucket,
		presignExpiry: defaultExpiry,
		maxRetries:    defaultMaxRetry,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.LockTTL <= 0 {
		s.cfg.LockTTL = defaultLockTTL
	}
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ExportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create validates and stores a new export and queues it for processing
func (s *ExportService) Create(ctx context.Context, orgID, userID uuid.UUID, req CreateExportRequest) (*ExportResponse, error) {
	loc := time.UTC
	if req.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(req.Timezone); err != nil {
			return nil, shared.NewDomainError("INVALID_TIMEZONE", fmt.Sprintf("Unknown timezone %q", req.Timezone))
		}
	}
	// dates are calendar days in the export's timezone
	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Start date must be formatted as YYYY-MM-DD")
	}
	endDate, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End date must be formatted as YYYY-MM-DD")
	}

	format := export.Format(req.Format)
	if format == "" {
		format = export.FormatXLSX
	}

	cfg := export.Config{
		Timezone:    req.Timezone,
		LabelUUID:   req.LabelUUID,
		ChannelUUID: req.ChannelUUID,
		ResultKeys:  req.ResultKeys,
	}
	for _, f := range req.Flows {
		cfg.Flows = append(cfg.Flows, export.FlowRef{UUID: f.UUID, Name: f.Name})
	}

	e, err := export.NewExport(orgID, userID, export.ExportType(req.Type), format, startDate, endDate, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, e)

	s.logger.Info("Export created",
		zap.String("org_id", orgID.String()),
		zap.String("export_id", e.ID.String()),
		zap.String("type", req.Type),
		zap.String("format", string(format)))

	s.submit(e)

	resp := ToExportResponse(e)
	return &resp, nil
}

// submit queues the export, leaving it pending for the poller if the queue won't take it
func (s *ExportService) submit(e *export.Export) {
	if s.jobs == nil {
		return
	}
	err := s.jobs.Submit(scheduler.NewJob(JobKind, e.ID, e.OrgID, s.maxRetries))
	if err != nil && !errors.Is(err, scheduler.ErrJobAlreadyQueued) {
		s.logger.Warn("Export not queued, leaving it for the poller",
			zap.String("export_id", e.ID.String()),
			zap.Error(err))
	}
}

// Get returns one of the org's exports
func (s *ExportService) Get(ctx context.Context, orgID, id uuid.UUID) (*ExportResponse, error) {
	e, err := s.repo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	resp := ToExportResponse(e)
	return &resp, nil
}

// List returns a page of the org's exports, newest first
func (s *ExportService) List(ctx context.Context, orgID uuid.UUID, f ListExportsFilter) ([]ExportResponse, int64, error) {
	filter := export.ExportFilter{Filter: shared.DefaultFilter()}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.Type != "" {
		t := export.ExportType(f.Type)
		if !t.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_EXPORT_TYPE", "Export type must be messages or results")
		}
		filter.Type = &t
	}
	if f.Status != "" {
		st := export.Status(f.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_EXPORT_STATUS", "Export status must be one of P, O, C or F")
		}
		filter.Status = &st
	}

	exports, err := s.repo.FindAllForOrg(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForOrg(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ExportResponse, len(exports))
	for i := range exports {
		responses[i] = ToExportResponse(&exports[i])
	}
	return responses, total, nil
}

// DownloadURL returns a presigned link to a completed export's file
func (s *ExportService) DownloadURL(ctx context.Context, orgID, id uuid.UUID) (*DownloadResponse, error) {
	e, err := s.repo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !e.IsDownloadable() {
		return nil, shared.NewDomainError("EXPORT_NOT_READY", fmt.Sprintf("Export is %s and has no file to download", e.Status))
	}

	filename := e.DownloadFilename()
	url, expiresAt, err := s.storage.PresignGet(ctx, s.bucket, e.Path, filename, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign export %s: %w", e.ID, err)
	}
	return &DownloadResponse{URL: url, Filename: filename, ExpiresAt: expiresAt}, nil
}

// Execute processes the export a scheduler job refers to
func (s *ExportService) Execute(ctx context.Context, job *scheduler.Job) error {
	return s.Process(ctx, job.ID)
}

// Process builds and uploads the export's file. Exports held by another
// worker return scheduler.ErrRetryLater. Failures while building are
// recorded on the export, which then ends up failed.
func (s *ExportService) Process(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "process",
		telemetry.WithAttribute(telemetry.SpanAttrExportID, id.String()))
	defer span.End()

	token, acquired, err := s.locker.TryLock(ctx, lockPrefix+id.String(), s.cfg.LockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("%w: %v", scheduler.ErrRetryLater, err)
	}
	if !acquired {
		return fmt.Errorf("export %s is being processed elsewhere: %w", id, scheduler.ErrRetryLater)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockPrefix+id.String(), token); err != nil {
			s.logger.Warn("Failed to release export lock", zap.String("export_id", id.String()), zap.Error(err))
		}
	}()

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if e.Status.IsFinished() {
		return nil
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrgID, e.OrgID.String(),
		telemetry.SpanAttrExportType, string(e.Type),
		telemetry.SpanAttrFormat, string(e.Format))

	// an export already processing was left by a worker whose lock expired
	// and is simply built again
	if e.Status == export.StatusPending {
		if err := e.Start(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		s.publish(ctx, e)
	}

	started := s.now()
	log := s.logger.With(
		zap.String("org_id", e.OrgID.String()),
		zap.String("export_id", e.ID.String()),
		zap.String("type", string(e.Type)))

	rows, buildErr := s.build(ctx, e)
	took := s.now().Sub(started)

	// record the outcome even if the job's context was cancelled meanwhile
	saveCtx := context.WithoutCancel(ctx)
	if buildErr != nil {
		telemetry.RecordError(span, buildErr)
		log.Error("Export failed", zap.Error(buildErr), zap.Duration("took", took))
		if err := e.Fail(buildErr.Error()); err != nil {
			return err
		}
		if err := s.repo.Update(saveCtx, e); err != nil {
			return err
		}
		s.publish(saveCtx, e)
		s.metrics.RecordExport(saveCtx, string(e.Type), string(e.Format), rows, took, true)
		return buildErr
	}

	if err := e.Complete(rows, e.StoragePath()); err != nil {
		return err
	}
	if err := s.repo.Update(saveCtx, e); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.publish(saveCtx, e)
	s.metrics.RecordExport(saveCtx, string(e.Type), string(e.Format), rows, took, false)

	log.Info("Export complete", zap.Int("records", rows), zap.Duration("took", took))
	telemetry.SetAttributes(span, telemetry.SpanAttrRecords, rows)
	telemetry.SetOK(span)
	return nil
}

// build writes the export's records to a file and uploads it, returning the number of rows written
func (s *ExportService) build(ctx context.Context, e *export.Export) (int, error) {
	exporter, err := tableexport.New(tableexport.Format(e.Format), e.Config.Headers(e.Type), tableexport.Options{
		Dir:      s.cfg.TempDir,
		Location: e.Location(),
	})
	if err != nil {
		return 0, err
	}
	defer exporter.Abort()

	rows := 0
	write := func(row []any) error {
		if s.cfg.MaxRecords > 0 && rows >= s.cfg.MaxRecords {
			return fmt.Errorf("export exceeds the limit of %d records", s.cfg.MaxRecords)
		}
		rows++
		return exporter.WriteRow(row)
	}

	after, before := e.Range()
	switch e.Type {
	case export.TypeMessages:
		err = s.writeMessages(ctx, e, after, before, write)
	case export.TypeResults:
		err = s.writeResults(ctx, e, after, before, write)
	default:
		err = fmt.Errorf("unknown export type %q", e.Type)
	}
	if err != nil {
		return rows, err
	}

	file, err := exporter.Close()
	if err != nil {
		return rows, err
	}
	defer func() {
		if err := file.Cleanup(); err != nil {
			s.logger.Warn("Failed to remove export file", zap.String("path", file.Path), zap.Error(err))
		}
	}()

	f, err := file.Open()
	if err != nil {
		return rows, err
	}
	defer f.Close()

	if err := s.storage.PutObject(ctx, s.bucket, e.StoragePath(), f, file.Size, file.ContentType); err != nil {
		return rows, fmt.Errorf("failed to upload export: %w", err)
	}
	return rows, nil
}

func (s *ExportService) writeMessages(ctx context.Context, e *export.Export, after, before time.Time, write func([]any) error) error {
	where := s3select.Conditions{}
	if e.Config.ChannelUUID != nil {
		where["channel__uuid"] = e.Config.ChannelUUID.String()
	}
	label := ""
	if e.Config.LabelUUID != nil {
		label = e.Config.LabelUUID.String()
	}

	return s.records.IterRecords(ctx, e.OrgID, archive.TypeMessage, after, before, where, func(record map[string]any) error {
		// labels are a list, which S3 Select can't filter on
		if label != "" && !hasLabel(record, label) {
			return nil
		}
		return write(messageRow(record))
	})
}

func (s *ExportService) writeResults(ctx context.Context, e *export.Export, after, before time.Time, write func([]any) error) error {
	flows := make([]string, len(e.Config.Flows))
	for i, f := range e.Config.Flows {
		flows[i] = f.UUID.String()
	}
	columns := e.Config.ResultColumns()

	where := s3select.Conditions{"flow__uuid__in": flows}
	return s.records.IterRecords(ctx, e.OrgID, archive.TypeRun, after, before, where, func(record map[string]any) error {
		return write(resultsRow(record, columns))
	})
}

// EnqueuePending queues exports that are still waiting for a worker. Exports
// left processing for longer than the lock TTL lost their worker and are
// queued again to be rebuilt.
func (s *ExportService) EnqueuePending(ctx context.Context) error {
	if s.jobs == nil {
		return nil
	}
	pending, err := s.repo.FindPending(ctx, s.now().Add(-s.cfg.LockTTL), pendingBatch)
	if err != nil {
		return err
	}
	for i := range pending {
		s.submit(&pending[i])
	}
	return nil
}

// Cleanup deletes exports created more than olderThan ago along with their files
func (s *ExportService) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "cleanup")
	defer span.End()

	cutoff := s.now().Add(-olderThan)
	deleted := 0
	for {
		batch, err := s.repo.FindCreatedBefore(ctx, cutoff, cleanupBatch)
		if err != nil {
			telemetry.RecordError(span, err)
			return deleted, err
		}
		for i := range batch {
			e := &batch[i]
			if e.Path != "" {
				err := s.storage.DeleteObject(ctx, s.bucket, e.Path)
				if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
					telemetry.RecordError(span, err)
					return deleted, fmt.Errorf("failed to delete export file %s: %w", e.Path, err)
				}
			}
			if err := s.repo.Delete(ctx, e.ID); err != nil {
				telemetry.RecordError(span, err)
				return deleted, err
			}
			deleted++
		}
		if len(batch) < cleanupBatch {
			break
		}
	}

	if deleted > 0 {
		s.logger.Info("Expired exports removed", zap.Int("count", deleted), zap.Time("cutoff", cutoff))
	}
	telemetry.SetOK(span)
	return deleted, nil
}

// Tasks returns the periodic tasks that keep exports moving and expire old ones
func (s *ExportService) Tasks() []scheduler.Task {
	return []scheduler.Task{
		{
			Name:       "export_poll_pending",
			Interval:   s.cfg.PollInterval,
			RunOnStart: true,
			Run:        s.EnqueuePending,
		},
		{
			Name:     "export_cleanup",
			Interval: s.cfg.CleanupPeriod,
			Run: func(ctx context.Context) error {
				_, err := s.Cleanup(ctx, s.cfg.Retention)
				return err
			},
		},
	}
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func (s *ExportService) publish(ctx context.Context, agg eventSource) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish export events", zap.Error(err))
	}
}
