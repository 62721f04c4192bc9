package tableexport

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

// excel's built-in "m/d/yy h:mm" format
const dateTimeNumFmt = 22

type xlsxExporter struct {
	file      *excelize.File
	path      string
	header    []any
	loc       *time.Location
	maxRows   int
	dateStyle int

	stream   *excelize.StreamWriter
	sheets   int
	sheetRow int // rows written to the current sheet, header included
	rows     int
	closed   bool
}

func newXLSXExporter(columns []string, opts Options) (*xlsxExporter, error) {
	tmp, err := os.CreateTemp(opts.Dir, "export-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("tableexport: create temp file: %w", err)
	}
	_ = tmp.Close()

	maxRows := opts.MaxSheetRows
	if maxRows <= 1 || maxRows > MaxSheetRows {
		maxRows = MaxSheetRows
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = CleanString(c)
	}

	e := &xlsxExporter{
		file:    excelize.NewFile(),
		path:    tmp.Name(),
		header:  header,
		loc:     opts.location(),
		maxRows: maxRows,
	}

	if e.dateStyle, err = e.file.NewStyle(&excelize.Style{NumFmt: dateTimeNumFmt}); err != nil {
		_ = e.Abort()
		return nil, fmt.Errorf("tableexport: create date style: %w", err)
	}
	if err := e.addSheet(); err != nil {
		_ = e.Abort()
		return nil, err
	}
	return e, nil
}

func sheetName(n int) string {
	return fmt.Sprintf("Sheet %d", n)
}

// addSheet flushes the current sheet and starts the next one with a header
func (e *xlsxExporter) addSheet() error {
	if e.stream != nil {
		if err := e.stream.Flush(); err != nil {
			return fmt.Errorf("tableexport: flush sheet: %w", err)
		}
	}

	e.sheets++
	name := sheetName(e.sheets)
	if e.sheets == 1 {
		if err := e.file.SetSheetName(e.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("tableexport: rename sheet: %w", err)
		}
	} else if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("tableexport: add sheet: %w", err)
	}

	stream, err := e.file.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("tableexport: open sheet: %w", err)
	}
	e.stream = stream
	e.sheetRow = 0
	return e.setRow(e.header)
}

func (e *xlsxExporter) setRow(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, e.sheetRow+1)
	if err != nil {
		return err
	}
	if err := e.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("tableexport: write row: %w", err)
	}
	e.sheetRow++
	return nil
}

func (e *xlsxExporter) WriteRow(values []any) error {
	if e.closed {
		return ErrClosed
	}
	if len(values) > MaxColumns {
		return fmt.Errorf("%w: row has %d values", ErrTooManyColumns, len(values))
	}
	if e.sheetRow >= e.maxRows {
		if err := e.addSheet(); err != nil {
			return err
		}
	}

	row := make([]any, len(values))
	for i, v := range values {
		row[i] = e.cellValue(v)
	}
	if err := e.setRow(row); err != nil {
		return err
	}
	e.rows++
	return nil
}

func (e *xlsxExporter) cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return CleanString(t)
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return excelize.Cell{StyleID: e.dateStyle, Value: naive(t, e.loc)}
	case *time.Time:
		if t == nil {
			return nil
		}
		return e.cellValue(*t)
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return t
	case fmt.Stringer:
		return CleanString(t.String())
	}
	return CleanString(fmt.Sprint(v))
}

func (e *xlsxExporter) Close() (*ExportFile, error) {
	if e.closed {
		return nil, ErrClosed
	}
	e.closed = true
	defer e.file.Close()

	if err := e.stream.Flush(); err != nil {
		_ = os.Remove(e.path)
		return nil, fmt.Errorf("tableexport: flush sheet: %w", err)
	}
	if err := e.file.SaveAs(e.path); err != nil {
		_ = os.Remove(e.path)
		return nil, fmt.Errorf("tableexport: save workbook: %w", err)
	}
	return finish(e.path, e.rows, FormatXLSX)
}

func (e *xlsxExporter) Abort() error {
	if e.closed {
		return nil
	}
	e.closed = true
	_ = e.file.Close()
	return os.Remove(e.path)
}
