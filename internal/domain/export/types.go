package export

// ExportType is the kind of data being exported
type ExportType string

const (
	TypeMessages ExportType = "messages"
	TypeResults  ExportType = "results"
)

// IsValid returns true if the export type is known
func (t ExportType) IsValid() bool {
	return t == TypeMessages || t == TypeResults
}

// Format is the file format of an export
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// IsValid returns true if the format is known
func (f Format) IsValid() bool {
	return f == FormatXLSX || f == FormatCSV
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of files in this format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Status is the processing state of an export
type Status string

const (
	StatusPending    Status = "P"
	StatusProcessing Status = "O"
	StatusComplete   Status = "C"
	StatusFailed     Status = "F"
)

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// IsFinished returns true for terminal statuses
func (s Status) IsFinished() bool {
	return s == StatusComplete || s == StatusFailed
}

// CanTransitionTo returns true if moving from s to next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusComplete || next == StatusFailed
	}
	return false
}

// String returns a readable name for the status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	}
	return string(s)
}
