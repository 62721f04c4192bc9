// Package tableexport writes tabular data to temporary CSV or XLSX files.
//
// Rows are streamed so that exports of millions of records don't need to be
// held in memory. XLSX workbooks roll over to a new sheet, with the header
// repeated, whenever a sheet reaches Excel's row limit.
package tableexport

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"
	"unicode/utf8"
)

// Format is the output file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ContentType returns the MIME type of files in this format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Excel limits
const (
	MaxSheetRows  = 1_048_576
	MaxColumns    = 16_384
	MaxCellLength = 32_767
)

// CSVTimeLayout is how times are written to CSV files
const CSVTimeLayout = "2006-01-02 15:04:05"

var (
	// ErrTooManyColumns is returned when an XLSX export has more columns than Excel allows
	ErrTooManyColumns = errors.New("tableexport: too many columns")
	// ErrNoColumns is returned when an export has no header
	ErrNoColumns = errors.New("tableexport: at least one column is required")
	// ErrClosed is returned when writing to a closed exporter
	ErrClosed = errors.New("tableexport: exporter is closed")
	// ErrUnknownFormat is returned for formats other than csv and xlsx
	ErrUnknownFormat = errors.New("tableexport: unknown format")
)

// Options configure an exporter
type Options struct {
	// Dir is where the temporary file is created, os.TempDir() if empty
	Dir string
	// Location is the timezone times are converted to, UTC if nil
	Location *time.Location
	// MaxSheetRows overrides the XLSX rows per sheet, header included
	MaxSheetRows int
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Exporter writes rows to an export file
type Exporter interface {
	// WriteRow appends a row. Missing trailing values are written empty.
	WriteRow(values []any) error
	// Close finishes the file and returns it. The caller owns the file and
	// must call Cleanup once done with it.
	Close() (*ExportFile, error)
	// Abort discards the file
	Abort() error
}

// ExportFile is a finished export on local disk
type ExportFile struct {
	Path        string
	Size        int64
	Rows        int
	Format      Format
	ContentType string
}

// Open opens the file for reading
func (f *ExportFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Cleanup removes the file
func (f *ExportFile) Cleanup() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// New creates an exporter in the given format with a header row of columns
func New(format Format, columns []string, opts Options) (Exporter, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	switch format {
	case FormatCSV:
		return newCSVExporter(columns, opts)
	case FormatXLSX:
		if len(columns) > MaxColumns {
			return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyColumns, len(columns), MaxColumns)
		}
		return newXLSXExporter(columns, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func finish(path string, rows int, format Format) (*ExportFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tableexport: stat export file: %w", err)
	}
	return &ExportFile{
		Path:        path,
		Size:        info.Size(),
		Rows:        rows,
		Format:      format,
		ContentType: format.ContentType(),
	}, nil
}

// characters not allowed in XML 1.0 documents
var illegalCharacters = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")

// CleanString strips characters that can't be stored in a worksheet and
// truncates to the maximum cell length
func CleanString(s string) string {
	s = illegalCharacters.ReplaceAllString(s, "")
	if utf8.RuneCountInString(s) <= MaxCellLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxCellLength])
}

// naive returns the wall clock time of t in loc as a zone-less (UTC) time
func naive(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
