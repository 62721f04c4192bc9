package flowresult

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/flowresult"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/cache"
	"github.com/temba/backend/internal/infrastructure/telemetry"
	"github.com/temba/backend/pkg/s3select"
)

const (
	defaultClasses  = 5
	defaultMaxClass = 10
	defaultCacheTTL = 10 * time.Minute
)

var resultKeyRegex = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// RecordSource streams archived records
type RecordSource interface {
	IterRecords(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType, after, before time.Time, where s3select.Conditions, fn s3select.RecordFunc) error
}

// Service computes charts of numeric flow results from run archives
type Service struct {
	records RecordSource
	cache   cache.ResultCache
	metrics *telemetry.ServiceMetrics
	logger  *zap.Logger

	defaultClasses int
	maxClasses     int
	ttl            time.Duration
	now            func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the instruments cache lookups are recorded on
func WithMetrics(m *telemetry.ServiceMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClasses sets the default and maximum number of classes
func WithClasses(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultClasses = def
		}
		if max > 0 {
			s.maxClasses = max
		}
	}
}

// WithCacheTTL sets how long computed charts are cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService creates a new Service. A nil cache disables caching.
func NewService(records RecordSource, results cache.ResultCache, opts ...Option) *Service {
	s := &Service{
		records:        records,
		cache:          results,
		logger:         zap.NewNop(),
		defaultClasses: defaultClasses,
		maxClasses:     defaultMaxClass,
		ttl:            defaultCacheTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CachePrefix is the prefix of every cached chart of the org
func CachePrefix(orgID uuid.UUID) string {
	return "flowresults:" + orgID.String() + ":"
}

func cacheKey(orgID, flowUUID uuid.UUID, key string, classes int, after, before time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d:%d:%d", CachePrefix(orgID), flowUUID, key, classes, after.Unix(), before.Unix())
}

// NumericCategories splits the numeric values the flow's runs saved for the
// result key into natural break classes. Zero times leave the range open,
// which is capped at the start of tomorrow so results can be cached.
func (s *Service) NumericCategories(ctx context.Context, orgID, flowUUID uuid.UUID, key string, classes int, after, before time.Time) (*NumericCategoriesResponse, error) {
	// double underscores would be read as a condition operator
	if !resultKeyRegex.MatchString(key) || strings.Contains(key, "__") {
		return nil, shared.NewDomainError("INVALID_RESULT_KEY", "Result keys are lowercase letters, digits and underscores")
	}
	if classes == 0 {
		classes = s.defaultClasses
	}
	if classes < 1 || classes > s.maxClasses {
		return nil, shared.NewDomainError("INVALID_CLASSES", fmt.Sprintf("Number of classes must be between 1 and %d", s.maxClasses))
	}
	if after.IsZero() {
		after = time.Unix(0, 0)
	}
	if before.IsZero() {
		y, m, d := s.now().UTC().Date()
		before = time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	}
	after, before = after.UTC(), before.UTC()
	if !before.After(after) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "The before date must be later than the after date")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "flowresult", "numeric_categories",
		telemetry.WithAttribute(telemetry.SpanAttrOrgID, orgID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrFlowUUID, flowUUID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrResultKey, key))
	defer span.End()

	ck := cacheKey(orgID, flowUUID, key, classes, after, before)
	if s.cache != nil {
		var cached NumericCategoriesResponse
		hit, err := s.cache.Get(ctx, ck, &cached)
		if err != nil {
			s.logger.Warn("Failed to read cached result chart", zap.String("key", ck), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(ctx, hit)
		if hit {
			telemetry.SetOK(span)
			return &cached, nil
		}
	}

	resp, err := s.compute(ctx, orgID, flowUUID, key, classes, after, before)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ck, resp, s.ttl); err != nil {
			s.logger.Warn("Failed to cache result chart", zap.String("key", ck), zap.Error(err))
		}
	}
	telemetry.SetOK(span)
	return resp, nil
}

func (s *Service) compute(ctx context.Context, orgID, flowUUID uuid.UUID, key string, classes int, after, before time.Time) (*NumericCategoriesResponse, error) {
	where := s3select.Conditions{
		"flow__uuid":                  flowUUID.String(),
		"values__" + key + "__isnull": false,
	}

	var values []float64
	totals := Totals{}
	err := s.records.IterRecords(ctx, orgID, archive.TypeRun, after, before, where, func(record map[string]any) error {
		v, ok := numericValue(record, key)
		if ok {
			values = append(values, v)
			totals.Numeric++
		} else {
			totals.NonNumeric++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	categories := make([]flowresult.Category, 0)
	if len(values) > 0 {
		categories, err = flowresult.Categorize(values, classes)
		if err != nil && !errors.Is(err, flowresult.ErrNoValues) {
			return nil, err
		}
	}

	return &NumericCategoriesResponse{
		FlowUUID:   flowUUID.String(),
		ResultKey:  key,
		Classes:    classes,
		After:      after,
		Before:     before,
		Categories: categories,
		Totals:     totals,
	}, nil
}

// numericValue returns the run's value for the result if it is a number.
// Archived records are decoded keeping JSON numbers as json.Number.
func numericValue(record map[string]any, key string) (float64, bool) {
	values, _ := record["values"].(map[string]any)
	result, _ := values[key].(map[string]any)
	switch v := result["value"].(type) {
	case string:
		return flowresult.ParseNumeric(v)
	case json.Number:
		return flowresult.ParseNumeric(v.String())
	case float64:
		return v, true
	}
	return 0, false
}

// Invalidate drops every cached chart of the org
func (s *Service) Invalidate(ctx context.Context, orgID uuid.UUID) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.DeletePrefix(ctx, CachePrefix(orgID))
}
