package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ServiceMetrics holds the instruments recorded by the application services.
// A nil *ServiceMetrics records nothing.
type ServiceMetrics struct {
	exportsFinished *Counter
	exportRows      *Counter
	exportDuration  *Histogram
	archiveRecords  *Counter
	cacheLookups    *Counter
}

// NewServiceMetrics creates the service instruments on meter
func NewServiceMetrics(meter metric.Meter) (*ServiceMetrics, error) {
	var (
		m   ServiceMetrics
		err error
	)
	if m.exportsFinished, err = NewCounter(meter, "temba_exports_finished_total", "Exports that reached a final state", "{export}"); err != nil {
		return nil, err
	}
	if m.exportRows, err = NewCounter(meter, "temba_export_rows_total", "Rows written to export files", "{row}"); err != nil {
		return nil, err
	}
	if m.exportDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "temba_export_duration_seconds",
		Description: "Time taken to build and upload an export",
		Unit:        "s",
		Boundaries:  ExportDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.archiveRecords, err = NewCounter(meter, "temba_archive_records_read_total", "Records read from archives", "{record}"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = NewCounter(meter, "temba_result_cache_lookups_total", "Flow result cache lookups", "{lookup}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordExport records a finished export. failed selects the outcome label.
func (m *ServiceMetrics) RecordExport(ctx context.Context, exportType, format string, rows int, took time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := "complete"
	if failed {
		outcome = "failed"
	}
	m.exportsFinished.Inc(ctx, AttrExportType.String(exportType), AttrFormat.String(format), AttrOutcome.String(outcome))
	m.exportDuration.RecordDuration(ctx, took, AttrExportType.String(exportType), AttrOutcome.String(outcome))
	if rows > 0 {
		m.exportRows.Add(ctx, int64(rows), AttrExportType.String(exportType), AttrFormat.String(format))
	}
}

// RecordArchiveRecords counts records streamed out of archives
func (m *ServiceMetrics) RecordArchiveRecords(ctx context.Context, recordType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.archiveRecords.Add(ctx, int64(n), AttrRecordType.String(recordType))
}

// RecordCacheLookup counts a result cache hit or miss
func (m *ServiceMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCache.String(result))
}
