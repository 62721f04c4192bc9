package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	flowresultapp "github.com/temba/backend/internal/application/flowresult"
)

const queryDateLayout = "2006-01-02"

// FlowResultHandler handles flow result chart endpoints
type FlowResultHandler struct {
	BaseHandler
	resultService *flowresultapp.Service
}

// NewFlowResultHandler creates a new FlowResultHandler
func NewFlowResultHandler(resultService *flowresultapp.Service) *FlowResultHandler {
	return &FlowResultHandler{resultService: resultService}
}

// NumericCategories charts the numeric values of a flow result
//
//	@ID			getNumericCategories
//	@Summary		Chart numeric flow result
//	@Description	Split the numeric values a flow saved for a result into natural break classes
//	@Tags			flows
//	@Produce		json
//	@Param			uuid		path		string	true	"Flow UUID"	format(uuid)
//	@Param			key		path		string	true	"Result key"
//	@Param			classes	query		int		false	"Number of classes"
//	@Param			after		query		string	false	"Earliest run date"	format(date)
//	@Param			before		query		string	false	"Runs before this date"	format(date)
//	@Success		200			{object}	APIResponse[flowresultapp.NumericCategoriesResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/flows/{uuid}/results/{key}/categories [get]
func (h *FlowResultHandler) NumericCategories(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	flowUUID, ok := h.pathUUID(c, "uuid")
	if !ok {
		return
	}

	var q flowresultapp.CategoriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	// dates were checked by binding
	var after, before time.Time
	if q.After != "" {
		after, _ = time.Parse(queryDateLayout, q.After)
	}
	if q.Before != "" {
		before, _ = time.Parse(queryDateLayout, q.Before)
	}

	chart, err := h.resultService.NumericCategories(c.Request.Context(), orgID, flowUUID, c.Param("key"), q.Classes, after, before)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, chart)
}
