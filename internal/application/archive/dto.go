package archive

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/archive"
)

// ArchiveResponse is the API view of an archive
type ArchiveResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Period      string     `json:"period"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	RecordCount int        `json:"record_count"`
	Size        int64      `json:"size"`
	SizeDisplay string     `json:"size_display"`
	Hash        string     `json:"hash"`
	Filename    string     `json:"filename"`
	BuildTime   int        `json:"build_time"`
	RollupID    *uuid.UUID `json:"rollup_id,omitempty"`
	DeletedOn   *time.Time `json:"deleted_on,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToArchiveResponse converts a domain archive
func ToArchiveResponse(a *archive.Archive) ArchiveResponse {
	return ArchiveResponse{
		ID:          a.ID,
		Type:        a.Type.String(),
		Period:      a.Period.String(),
		StartDate:   a.StartDate,
		EndDate:     a.EndDate(),
		RecordCount: a.RecordCount,
		Size:        a.Size,
		SizeDisplay: humanize.Bytes(uint64(a.Size)),
		Hash:        a.Hash,
		Filename:    a.Filename(),
		BuildTime:   a.BuildTime,
		RollupID:    a.RollupID,
		DeletedOn:   a.DeletedOn,
		CreatedAt:   a.CreatedAt,
	}
}

// ListArchivesFilter holds the archive list query
type ListArchivesFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=message run"`
	Period   string `form:"period" binding:"omitempty,oneof=D M"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RegisterArchiveRequest records an archive built by the archiver
type RegisterArchiveRequest struct {
	Type        string    `json:"type" binding:"required,oneof=message run"`
	Period      string    `json:"period" binding:"required,oneof=D M"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	URL         string    `json:"url"`
	Hash        string    `json:"hash" binding:"omitempty,len=32,hexadecimal"`
	Size        int64     `json:"size" binding:"min=0"`
	RecordCount int       `json:"record_count" binding:"min=0"`
	BuildTime   int       `json:"build_time" binding:"min=0"`
}

// RedactRequest removes records from an org's archives by UUID
type RedactRequest struct {
	Type  string      `json:"type" binding:"required,oneof=message run"`
	UUIDs []uuid.UUID `json:"uuids" binding:"required,min=1,max=1000"`
}

// RedactResult reports what a redaction changed
type RedactResult struct {
	ArchivesScanned   int         `json:"archives_scanned"`
	ArchivesRewritten int         `json:"archives_rewritten"`
	RecordsRemoved    int         `json:"records_removed"`
	Rewritten         []uuid.UUID `json:"rewritten"`
}

// DownloadResponse is a temporary link to a stored file
type DownloadResponse struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}
