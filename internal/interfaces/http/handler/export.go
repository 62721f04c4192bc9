package handler

import (
	"github.com/gin-gonic/gin"

	exportapp "github.com/temba/backend/internal/application/export"
)

// ExportHandler handles export API endpoints
type ExportHandler struct {
	BaseHandler
	exportService *exportapp.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService *exportapp.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Create starts a new export. The file is built in the background, so the
// export comes back pending.
//
//	@ID			createExport
//	@Summary		Create export
//	@Description	Start a messages or results export, built in the background
//	@Tags			exports
//	@Accept			json
//	@Produce		json
//	@Param			request	body		exportapp.CreateExportRequest	true	"Export to create"
//	@Success		201		{object}	APIResponse[exportapp.ExportResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req exportapp.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	e, err := h.exportService.Create(c.Request.Context(), orgID, userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, e)
}

// List returns a page of the org's exports, newest first
//
//	@ID			listExports
//	@Summary		List exports
//	@Description	List the org's exports, newest first
//	@Tags			exports
//	@Produce		json
//	@Param			type		query		string	false	"Export type"	Enums(messages, results)
//	@Param			status		query		string	false	"Status"	Enums(P, O, C, F)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"	default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]exportapp.ExportResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports [get]
func (h *ExportHandler) List(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}

	var filter exportapp.ListExportsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	exports, total, err := h.exportService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, exports, total, page, pageSize)
}

// Get returns a single export
//
//	@ID			getExport
//	@Summary		Get export
//	@Description	Get one of the org's exports by ID
//	@Tags			exports
//	@Produce		json
//	@Param			id	path		string	true	"Export ID"	format(uuid)
//	@Success		200	{object}	APIResponse[exportapp.ExportResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	e, err := h.exportService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, e)
}

// Download returns a temporary link to a completed export's file
//
//	@ID			downloadExport
//	@Summary		Download export
//	@Description	Get a temporary link to a completed export's file
//	@Tags			exports
//	@Produce		json
//	@Param			id	path		string	true	"Export ID"	format(uuid)
//	@Success		200	{object}	APIResponse[exportapp.DownloadResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports/{id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	link, err := h.exportService.DownloadURL(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, link)
}
