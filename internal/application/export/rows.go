package export

import (
	"strings"
	"time"

	"github.com/temba/backend/internal/domain/export"
)

// messageRow maps an archived message record to the message export columns
func messageRow(record map[string]any) []any {
	scheme, path := splitURN(str(record, "urn"))

	attachments := strs(record["attachments"])
	labels := make([]string, 0)
	for _, l := range objects(record["labels"]) {
		labels = append(labels, str(l, "name"))
	}

	return []any{
		timestamp(record, "created_on"),
		str(record, "contact", "uuid"),
		str(record, "contact", "name"),
		scheme,
		path,
		str(record, "flow", "name"),
		strings.ToUpper(str(record, "direction")),
		str(record, "text"),
		strings.Join(attachments, " "),
		str(record, "status"),
		str(record, "channel", "name"),
		strings.Join(labels, ", "),
	}
}

// hasLabel returns true if the message record carries the label
func hasLabel(record map[string]any, labelUUID string) bool {
	for _, l := range objects(record["labels"]) {
		if str(l, "uuid") == labelUUID {
			return true
		}
	}
	return false
}

// resultsRow maps an archived run record to the results export columns.
// Result columns of other flows are left empty.
func resultsRow(record map[string]any, columns []export.ResultColumn) []any {
	scheme, path := splitURN(str(record, "contact", "urn"))

	row := []any{
		str(record, "contact", "uuid"),
		scheme,
		path,
		str(record, "contact", "name"),
		timestamp(record, "created_on"),
		timestamp(record, "modified_on"),
		timestamp(record, "exited_on"),
	}

	flowUUID := str(record, "flow", "uuid")
	values, _ := record["values"].(map[string]any)
	for _, col := range columns {
		if col.Flow.UUID.String() != flowUUID {
			row = append(row, "", "", "")
			continue
		}
		result, _ := values[col.Key].(map[string]any)
		row = append(row, str(result, "category"), str(result, "value"), str(result, "input"))
	}
	return row
}

func splitURN(urn string) (scheme, path string) {
	scheme, path, found := strings.Cut(urn, ":")
	if !found {
		return "", urn
	}
	return scheme, path
}

// str returns the string at the nested path or an empty string
func str(record map[string]any, path ...string) string {
	var current any = record
	for _, p := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[p]
	}
	s, _ := current.(string)
	return s
}

func timestamp(record map[string]any, field string) any {
	s := str(record, field)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t
}

func strs(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
