package flowresult

import (
	"time"

	"github.com/temba/backend/internal/domain/flowresult"
)

// CategoriesQuery holds the chart query parameters
type CategoriesQuery struct {
	Classes int    `form:"classes" binding:"omitempty,min=1"`
	After   string `form:"after" binding:"omitempty,datetime=2006-01-02"`
	Before  string `form:"before" binding:"omitempty,datetime=2006-01-02"`
}

// Totals counts the runs that had a value for the result
type Totals struct {
	Numeric    int `json:"numeric"`
	NonNumeric int `json:"non_numeric"`
}

// NumericCategoriesResponse is the chart of a numeric flow result
type NumericCategoriesResponse struct {
	FlowUUID   string                `json:"flow_uuid"`
	ResultKey  string                `json:"result_key"`
	Classes    int                   `json:"classes"`
	After      time.Time             `json:"after"`
	Before     time.Time             `json:"before"`
	Categories []flowresult.Category `json:"categories"`
	Totals     Totals                `json:"totals"`
}
