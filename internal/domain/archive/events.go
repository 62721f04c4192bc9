package archive

import (
	"time"

	"github.com/temba/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeArchiveRegistered = "ArchiveRegistered"
	EventTypeArchiveRewritten  = "ArchiveRewritten"
)

// ArchiveRegisteredEvent is raised when a newly built archive is recorded
type ArchiveRegisteredEvent struct {
	shared.BaseDomainEvent
	ArchiveType ArchiveType `json:"archive_type"`
	Period      Period      `json:"period"`
	StartDate   time.Time   `json:"start_date"`
	RecordCount int         `json:"record_count"`
}

// NewArchiveRegisteredEvent creates a registered event for the archive
func NewArchiveRegisteredEvent(a *Archive) *ArchiveRegisteredEvent {
	return &ArchiveRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArchiveRegistered, AggregateTypeArchive, a.ID, a.OrgID),
		ArchiveType:     a.Type,
		Period:          a.Period,
		StartDate:       a.StartDate,
		RecordCount:     a.RecordCount,
	}
}

// ArchiveRewrittenEvent is raised when records are removed from an archive
type ArchiveRewrittenEvent struct {
	shared.BaseDomainEvent
	ArchiveType    ArchiveType `json:"archive_type"`
	Hash           string      `json:"hash"`
	RecordCount    int         `json:"record_count"`
	RecordsRemoved int         `json:"records_removed"`
}

// NewArchiveRewrittenEvent creates a rewritten event for the archive
func NewArchiveRewrittenEvent(a *Archive, removed int) *ArchiveRewrittenEvent {
	return &ArchiveRewrittenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArchiveRewritten, AggregateTypeArchive, a.ID, a.OrgID),
		ArchiveType:     a.Type,
		Hash:            a.Hash,
		RecordCount:     a.RecordCount,
		RecordsRemoved:  removed,
	}
}
