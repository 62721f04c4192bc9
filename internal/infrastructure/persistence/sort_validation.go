package persistence

import (
	"strings"

	"github.com/temba/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ArchiveSortFields contains allowed sort fields for archives
var ArchiveSortFields = map[string]bool{
	"created_at":   true,
	"start_date":   true,
	"record_count": true,
	"size":         true,
}

// ExportSortFields contains allowed sort fields for exports
var ExportSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"start_date":  true,
	"num_records": true,
	"status":      true,
}

// paginate applies ordering and paging from the filter, ordering by
// defaultField descending when the requested field isn't allowed
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	order := "DESC"
	if allowed[strings.TrimSpace(filter.OrderBy)] {
		order = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(field + " " + order).Order("id " + order)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}
