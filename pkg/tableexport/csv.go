package tableexport

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

type csvExporter struct {
	file    *os.File
	writer  *csv.Writer
	columns int
	loc     *time.Location
	rows    int
	closed  bool
}

func newCSVExporter(columns []string, opts Options) (*csvExporter, error) {
	file, err := os.CreateTemp(opts.Dir, "export-*.csv")
	if err != nil {
		return nil, fmt.Errorf("tableexport: create temp file: %w", err)
	}

	e := &csvExporter{
		file:    file,
		writer:  csv.NewWriter(file),
		columns: len(columns),
		loc:     opts.location(),
	}
	if err := e.writer.Write(columns); err != nil {
		_ = e.Abort()
		return nil, fmt.Errorf("tableexport: write header: %w", err)
	}
	return e, nil
}

func (e *csvExporter) WriteRow(values []any) error {
	if e.closed {
		return ErrClosed
	}
	record := make([]string, max(e.columns, len(values)))
	for i, v := range values {
		record[i] = e.format(v)
	}
	if err := e.writer.Write(record); err != nil {
		return fmt.Errorf("tableexport: write row: %w", err)
	}
	e.rows++
	return nil
}

func (e *csvExporter) format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.In(e.loc).Format(CSVTimeLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return e.format(*t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func (e *csvExporter) Close() (*ExportFile, error) {
	if e.closed {
		return nil, ErrClosed
	}
	e.closed = true

	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		e.discard()
		return nil, fmt.Errorf("tableexport: flush csv: %w", err)
	}
	if err := e.file.Close(); err != nil {
		_ = os.Remove(e.file.Name())
		return nil, fmt.Errorf("tableexport: close csv: %w", err)
	}
	return finish(e.file.Name(), e.rows, FormatCSV)
}

func (e *csvExporter) Abort() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.discard()
}

func (e *csvExporter) discard() error {
	_ = e.file.Close()
	return os.Remove(e.file.Name())
}
