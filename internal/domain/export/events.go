package export

import (
	"github.com/temba/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeExportCreated   = "ExportCreated"
	EventTypeExportCompleted = "ExportCompleted"
	EventTypeExportFailed    = "ExportFailed"
)

// ExportEvent is raised when an export is created or finishes
type ExportEvent struct {
	shared.BaseDomainEvent
	ExportType ExportType `json:"export_type"`
	Format     Format     `json:"format"`
	Status     Status     `json:"status"`
	NumRecords int        `json:"num_records"`
	Error      string     `json:"error,omitempty"`
}

// NewExportEvent creates an event of the given type for the export
func NewExportEvent(eventType string, e *Export) *ExportEvent {
	return &ExportEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeExport, e.ID, e.OrgID),
		ExportType:      e.Type,
		Format:          e.Format,
		Status:          e.Status,
		NumRecords:      e.NumRecords,
		Error:           e.Error,
	}
}
