package export

import "fmt"

// MessageColumns are the columns of a messages export
var MessageColumns = []string{
	"Date",
	"Contact UUID",
	"Contact Name",
	"URN Scheme",
	"URN Value",
	"Flow",
	"Direction",
	"Text",
	"Attachments",
	"Status",
	"Channel",
	"Labels",
}

// ResultsBaseColumns are the contact and run columns that start every results export
var ResultsBaseColumns = []string{
	"Contact UUID",
	"URN Scheme",
	"URN Value",
	"Name",
	"Started",
	"Modified",
	"Exited",
}

// ResultColumn identifies one exported result of one flow
type ResultColumn struct {
	Flow FlowRef
	Key  string
}

// ResultColumns returns the result columns in export order. Every configured
// key is exported for every flow, in flow order then key order.
func (c Config) ResultColumns() []ResultColumn {
	cols := make([]ResultColumn, 0, len(c.Flows)*len(c.ResultKeys))
	for _, f := range c.Flows {
		for _, k := range c.ResultKeys {
			cols = append(cols, ResultColumn{Flow: f, Key: k})
		}
	}
	return cols
}

// Headers returns the three headers written for a result
func (r ResultColumn) Headers() []string {
	prefix := fmt.Sprintf("%s:%s", r.Flow.Name, r.Key)
	return []string{prefix + " (Category)", prefix + " (Value)", prefix + " (Text)"}
}

// Headers returns the full header row for an export of this type
func (c Config) Headers(exportType ExportType) []string {
	if exportType == TypeMessages {
		return append([]string(nil), MessageColumns...)
	}
	headers := append([]string(nil), ResultsBaseColumns...)
	for _, rc := range c.ResultColumns() {
		headers = append(headers, rc.Headers()...)
	}
	return headers
}
