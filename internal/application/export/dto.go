package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/export"
)

const dateLayout = "2006-01-02"

// FlowRefRequest names a flow whose results are exported
type FlowRefRequest struct {
	UUID uuid.UUID `json:"uuid" binding:"required"`
	Name string    `json:"name" binding:"required,max=64"`
}

// CreateExportRequest starts a new export
type CreateExportRequest struct {
	Type        string           `json:"type" binding:"required,oneof=messages results"`
	Format      string           `json:"format" binding:"omitempty,oneof=xlsx csv"`
	StartDate   string           `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate     string           `json:"end_date" binding:"required,datetime=2006-01-02"`
	Timezone    string           `json:"timezone" binding:"omitempty,max=64"`
	LabelUUID   *uuid.UUID       `json:"label_uuid"`
	ChannelUUID *uuid.UUID       `json:"channel_uuid"`
	Flows       []FlowRefRequest `json:"flows" binding:"omitempty,max=50,dive"`
	ResultKeys  []string         `json:"result_keys" binding:"omitempty,max=100,dive,required,max=64"`
}

// ListExportsFilter holds the export list query
type ListExportsFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=messages results"`
	Status   string `form:"status" binding:"omitempty,oneof=P O C F"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExportResponse is the API view of an export
type ExportResponse struct {
	ID         uuid.UUID     `json:"id"`
	Type       string        `json:"type"`
	Format     string        `json:"format"`
	Status     string        `json:"status"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Config     export.Config `json:"config"`
	NumRecords int           `json:"num_records"`
	Error      string        `json:"error,omitempty"`
	CreatedBy  *uuid.UUID    `json:"created_by,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ModifiedAt time.Time     `json:"modified_at"`
}

// ToExportResponse converts a domain export
func ToExportResponse(e *export.Export) ExportResponse {
	return ExportResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		Format:     string(e.Format),
		Status:     e.Status.String(),
		StartDate:  e.StartDate.Format(dateLayout),
		EndDate:    e.EndDate.Format(dateLayout),
		Config:     e.Config,
		NumRecords: e.NumRecords,
		Error:      e.Error,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
		ModifiedAt: e.UpdatedAt,
	}
}

// DownloadResponse is a temporary link to a finished export
type DownloadResponse struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}
