package export

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeExport = "Export"

// MaxMessageExportDays is the longest date range a message export can cover
const MaxMessageExportDays = 90

// Config holds the type specific options of an export
type Config struct {
	// Timezone is the IANA zone dates are interpreted and written in
	Timezone string `json:"timezone,omitempty"`

	// message exports
	LabelUUID   *uuid.UUID `json:"label_uuid,omitempty"`
	ChannelUUID *uuid.UUID `json:"channel_uuid,omitempty"`

	// results exports
	Flows      []FlowRef `json:"flows,omitempty"`
	ResultKeys []string  `json:"result_keys,omitempty"`
}

// FlowRef identifies a flow whose results are exported
type FlowRef struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// Export is an asynchronously produced download of an org's messages or
// flow results. StartDate and EndDate are inclusive calendar dates in the
// export's timezone, held as midnight UTC.
type Export struct {
	shared.OrgAggregateRoot
	Type       ExportType
	Format     Format
	Status     Status
	StartDate  time.Time
	EndDate    time.Time
	Config     Config
	NumRecords int
	Path       string
	Error      string
}

// NewExport creates a pending export
func NewExport(orgID, createdBy uuid.UUID, exportType ExportType, format Format, startDate, endDate time.Time, config Config) (*Export, error) {
	if !exportType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EXPORT_TYPE", "Export type must be messages or results")
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_EXPORT_FORMAT", "Export format must be xlsx or csv")
	}

	loc, err := loadLocation(config.Timezone)
	if err != nil {
		return nil, err
	}
	startDate = truncateDate(startDate, loc)
	endDate = truncateDate(endDate, loc)

	if endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End date can't be before start date")
	}
	if exportType == TypeMessages && endDate.Sub(startDate) > MaxMessageExportDays*24*time.Hour {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", fmt.Sprintf("Message exports can't cover more than %d days", MaxMessageExportDays))
	}
	if exportType == TypeResults && len(config.Flows) == 0 {
		return nil, shared.NewDomainError("INVALID_EXPORT_CONFIG", "Results exports require at least one flow")
	}

	e := &Export{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(orgID, createdBy),
		Type:             exportType,
		Format:           format,
		Status:           StatusPending,
		StartDate:        startDate,
		EndDate:          endDate,
		Config:           config,
	}
	e.AddDomainEvent(NewExportEvent(EventTypeExportCreated, e))
	return e, nil
}

// Location returns the timezone of the export, UTC if none is set
func (e *Export) Location() *time.Location {
	loc, err := loadLocation(e.Config.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Range returns the [after, before) interval of record creation times the
// export covers
func (e *Export) Range() (after, before time.Time) {
	loc := e.Location()
	after = time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, loc)
	end := time.Date(e.EndDate.Year(), e.EndDate.Month(), e.EndDate.Day(), 0, 0, 0, 0, loc)
	return after, end.AddDate(0, 0, 1)
}

// StoragePath returns where the export file is stored
func (e *Export) StoragePath() string {
	return fmt.Sprintf("orgs/%s/exports/%s.%s", e.OrgID, e.ID, e.Format.Extension())
}

// DownloadFilename returns the name offered to users downloading the export
func (e *Export) DownloadFilename() string {
	return fmt.Sprintf("%s_%s.%s", e.Type, e.CreatedAt.In(e.Location()).Format("20060102"), e.Format.Extension())
}

// Start marks the export as being processed
func (e *Export) Start() error {
	return e.transition(StatusProcessing)
}

// Complete marks the export as done with the file stored at path
func (e *Export) Complete(numRecords int, path string) error {
	if err := e.transition(StatusComplete); err != nil {
		return err
	}
	e.NumRecords = numRecords
	e.Path = path
	e.AddDomainEvent(NewExportEvent(EventTypeExportCompleted, e))
	return nil
}

// Fail marks the export as failed with the reason
func (e *Export) Fail(reason string) error {
	if err := e.transition(StatusFailed); err != nil {
		return err
	}
	e.Error = reason
	e.AddDomainEvent(NewExportEvent(EventTypeExportFailed, e))
	return nil
}

// IsDownloadable returns true if the export's file can be downloaded
func (e *Export) IsDownloadable() bool {
	return e.Status == StatusComplete && e.Path != ""
}

func (e *Export) transition(next Status) error {
	if !e.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Can't move export from %s to %s", e.Status, next))
	}
	e.Status = next
	e.Touch()
	e.IncrementVersion()
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TIMEZONE", fmt.Sprintf("Unknown timezone %q", name))
	}
	return loc, nil
}

// truncateDate returns the calendar date of t in loc, stored as midnight UTC
func truncateDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
