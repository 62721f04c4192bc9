package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/storage"
	"github.com/temba/backend/internal/infrastructure/telemetry"
	"github.com/temba/backend/pkg/s3select"
)

// DefaultPresignExpiry is how long archive download links stay valid
const DefaultPresignExpiry = 24 * time.Hour

const archiveContentType = "application/x-gzip"

// archivesPageSize is how many archives are loaded per page when scanning all of an org's archives
const archivesPageSize = 100

// ObjectStorage is the storage the archive files live in
type ObjectStorage interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, contentType string) error
	DeleteObject(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key, filename string, expiresIn time.Duration) (string, time.Time, error)
	SelectRecords(ctx context.Context, bucket, key string, where s3select.Conditions, fn s3select.RecordFunc) error
}

// RecordTransform is applied to each record when an archive is rewritten.
// Returning false drops the record. The record may be modified in place.
type RecordTransform func(record map[string]any) (bool, error)

// ArchiveService reads, registers and rewrites archives
type ArchiveService struct {
	repo           archive.ArchiveRepository
	storage        ObjectStorage
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ServiceMetrics
	logger         *zap.Logger
	tempDir        string
	presignExpiry  time.Duration
}

// Option configures an ArchiveService
type Option func(*ArchiveService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *ArchiveService) {
		s.logger = logger
	}
}

// WithMetrics sets the instruments archive reads are recorded on
func WithMetrics(m *telemetry.ServiceMetrics) Option {
	return func(s *ArchiveService) {
		s.metrics = m
	}
}

// WithTempDir sets where rewritten archives are staged before upload
func WithTempDir(dir string) Option {
	return func(s *ArchiveService) {
		s.tempDir = dir
	}
}

// WithPresignExpiry sets how long download links are valid
func WithPresignExpiry(d time.Duration) Option {
	return func(s *ArchiveService) {
		if d > 0 {
			s.presignExpiry = d
		}
	}
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(repo archive.ArchiveRepository, objects ObjectStorage, opts ...Option) *ArchiveService {
	s := &ArchiveService{
		repo:          repo,
		storage:       objects,
		logger:        zap.NewNop(),
		presignExpiry: DefaultPresignExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ArchiveService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns a page of the org's archives
func (s *ArchiveService) List(ctx context.Context, orgID uuid.UUID, f ListArchivesFilter) ([]ArchiveResponse, int64, error) {
	filter := archive.ArchiveFilter{Filter: shared.DefaultFilter()}
	filter.OrderBy = "start_date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.Type != "" {
		t := archive.ArchiveType(f.Type)
		if !t.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_ARCHIVE_TYPE", "Archive type must be message or run")
		}
		filter.Type = &t
	}
	if f.Period != "" {
		p := archive.Period(f.Period)
		if !p.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_ARCHIVE_PERIOD", "Archive period must be D or M")
		}
		filter.Period = &p
	}

	archives, err := s.repo.FindAllForOrg(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForOrg(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ArchiveResponse, len(archives))
	for i := range archives {
		responses[i] = ToArchiveResponse(&archives[i])
	}
	return responses, total, nil
}

// Get returns one of the org's archives
func (s *ArchiveService) Get(ctx context.Context, orgID, id uuid.UUID) (*ArchiveResponse, error) {
	a, err := s.repo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	resp := ToArchiveResponse(a)
	return &resp, nil
}

// DownloadURL returns a presigned link to the archive file
func (s *ArchiveService) DownloadURL(ctx context.Context, orgID, id uuid.UUID) (*DownloadResponse, error) {
	a, err := s.repo.FindByIDForOrg(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.RecordCount == 0 || a.URL == "" {
		return nil, shared.NewDomainError("ARCHIVE_EMPTY", "Archive has no file to download")
	}
	bucket, key, err := a.Location()
	if err != nil {
		return nil, err
	}

	filename := a.Filename()
	url, expiresAt, err := s.storage.PresignGet(ctx, bucket, key, filename, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign archive %s: %w", a.ID, err)
	}
	return &DownloadResponse{URL: url, Filename: filename, ExpiresAt: expiresAt}, nil
}

// Register records an archive built by the archiver. A monthly archive
// rolls up that month's daily archives, and a daily archive registered after
// its month's archive is rolled up straight away, so no records are read twice.
func (s *ArchiveService) Register(ctx context.Context, orgID uuid.UUID, req RegisterArchiveRequest) (*ArchiveResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "archive", "register",
		telemetry.WithAttribute(telemetry.SpanAttrOrgID, orgID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRecordType, req.Type))
	defer span.End()

	a, err := archive.NewArchive(orgID, archive.ArchiveType(req.Type), archive.Period(req.Period),
		req.StartDate, req.URL, req.Hash, req.Size, req.RecordCount, req.BuildTime)
	if err != nil {
		return nil, err
	}

	rolledUp, err := s.repo.CreateWithRollup(ctx, a)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ARCHIVE_EXISTS", "An archive already exists for this org, type and period")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, a)

	s.logger.Info("Archive registered",
		zap.String("org_id", orgID.String()),
		zap.String("archive_id", a.ID.String()),
		zap.String("type", req.Type),
		zap.String("period", req.Period),
		zap.Time("start_date", a.StartDate),
		zap.Int("records", a.RecordCount),
		zap.Int("rolled_up", rolledUp),
		zap.Bool("is_rolled_up", a.IsRolledUp()))

	telemetry.SetOK(span)
	resp := ToArchiveResponse(a)
	return &resp, nil
}

// IterRecords calls fn for every record of the given type created in
// [after, before), reading each covering archive with S3 Select. Extra
// conditions narrow the records further.
func (s *ArchiveService) IterRecords(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType, after, before time.Time, where s3select.Conditions, fn s3select.RecordFunc) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "archive", "iter_records",
		telemetry.WithAttribute(telemetry.SpanAttrOrgID, orgID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRecordType, archiveType.String()))
	defer span.End()

	archives, err := s.repo.FindCovering(ctx, orgID, archiveType, after, before)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	conds := where.Merge(s3select.Conditions{
		"created_on__gte": after.UTC(),
		"created_on__lt":  before.UTC(),
	})

	read := 0
	defer func() {
		s.metrics.RecordArchiveRecords(ctx, archiveType.String(), read)
		telemetry.SetAttributes(span, telemetry.SpanAttrRecords, read)
	}()

	for i := range archives {
		bucket, key, err := archives[i].Location()
		if err != nil {
			return err
		}
		err = s.storage.SelectRecords(ctx, bucket, key, conds, func(record map[string]any) error {
			read++
			return fn(record)
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to read archive %s: %w", archives[i].ID, err)
		}
	}

	telemetry.SetOK(span)
	return nil
}

// Rewrite replaces an archive's file with a copy containing only the records
// transform keeps, then updates the archive's hash, size and record count.
func (s *ArchiveService) Rewrite(ctx context.Context, a *archive.Archive, transform RecordTransform) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "archive", "rewrite",
		telemetry.WithAttribute(telemetry.SpanAttrOrgID, a.OrgID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrArchiveID, a.ID.String()))
	defer span.End()

	err := s.rewrite(ctx, a, transform)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetOK(span)
	return nil
}

func (s *ArchiveService) rewrite(ctx context.Context, a *archive.Archive, transform RecordTransform) error {
	bucket, oldKey, err := a.Location()
	if err != nil {
		return err
	}

	src, err := s.storage.GetObject(ctx, bucket, oldKey)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", a.ID, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.tempDir, "archive-*.jsonl.gz")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := storage.NewJSONLWriter(tmp)
	err = storage.ReadJSONL(ctx, src, func(record map[string]any) error {
		keep, err := transform(record)
		if err != nil || !keep {
			return err
		}
		return w.Write(record)
	})
	if err != nil {
		return fmt.Errorf("failed to rewrite archive %s: %w", a.ID, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := a.Rewritten(w.Hash(), w.Size(), w.Records()); err != nil {
		return err
	}
	_, newKey, err := a.Location()
	if err != nil {
		return err
	}

	if err := s.storage.PutObject(ctx, bucket, newKey, tmp, w.Size(), archiveContentType); err != nil {
		return fmt.Errorf("failed to upload rewritten archive %s: %w", a.ID, err)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	if newKey != oldKey {
		if err := s.storage.DeleteObject(ctx, bucket, oldKey); err != nil {
			s.logger.Warn("Failed to delete replaced archive file",
				zap.String("archive_id", a.ID.String()),
				zap.String("key", oldKey),
				zap.Error(err))
		}
	}

	s.logger.Info("Archive rewritten",
		zap.String("org_id", a.OrgID.String()),
		zap.String("archive_id", a.ID.String()),
		zap.String("key", newKey),
		zap.Int("records", a.RecordCount))

	s.publish(ctx, a)
	return nil
}

// DeleteRecords removes the records with the given UUIDs from every archive
// of the org that holds them, including daily archives already rolled up.
func (s *ArchiveService) DeleteRecords(ctx context.Context, orgID uuid.UUID, req RedactRequest) (*RedactResult, error) {
	archiveType := archive.ArchiveType(req.Type)
	if !archiveType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ARCHIVE_TYPE", "Archive type must be message or run")
	}
	if len(req.UUIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_UUIDS", "At least one record UUID is required")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "archive", "delete_records",
		telemetry.WithAttribute(telemetry.SpanAttrOrgID, orgID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRecordType, archiveType.String()))
	defer span.End()

	remove := make(map[string]struct{}, len(req.UUIDs))
	for _, id := range req.UUIDs {
		remove[id.String()] = struct{}{}
	}
	match := s3select.Conditions{"uuid__in": req.UUIDs}

	archives, err := s.allArchives(ctx, orgID, archiveType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &RedactResult{Rewritten: make([]uuid.UUID, 0)}
	for i := range archives {
		a := &archives[i]
		if a.RecordCount == 0 || a.URL == "" {
			continue
		}
		result.ArchivesScanned++

		bucket, key, err := a.Location()
		if err != nil {
			return nil, err
		}
		found := false
		err = s.storage.SelectRecords(ctx, bucket, key, match, func(map[string]any) error {
			found = true
			return s3select.ErrStop
		})
		if err != nil && !errors.Is(err, s3select.ErrStop) {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to search archive %s: %w", a.ID, err)
		}
		if !found {
			continue
		}

		before := a.RecordCount
		err = s.Rewrite(ctx, a, func(record map[string]any) (bool, error) {
			id, _ := record["uuid"].(string)
			_, drop := remove[id]
			return !drop, nil
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.ArchivesRewritten++
		result.RecordsRemoved += before - a.RecordCount
		result.Rewritten = append(result.Rewritten, a.ID)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRecords, result.RecordsRemoved)
	telemetry.SetOK(span)
	return result, nil
}

func (s *ArchiveService) allArchives(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType) ([]archive.Archive, error) {
	filter := archive.ArchiveFilter{Filter: shared.DefaultFilter(), Type: &archiveType}
	filter.OrderBy = "start_date"
	filter.OrderDir = "asc"
	filter.PageSize = archivesPageSize

	all := make([]archive.Archive, 0)
	for {
		page, err := s.repo.FindAllForOrg(ctx, orgID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.PageSize {
			return all, nil
		}
		filter.Page++
	}
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func (s *ArchiveService) publish(ctx context.Context, agg eventSource) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish archive events", zap.Error(err))
	}
}
