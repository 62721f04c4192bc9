package handler

import (
	"github.com/gin-gonic/gin"

	archiveapp "github.com/temba/backend/internal/application/archive"
)

// ArchiveHandler handles archive API endpoints
type ArchiveHandler struct {
	BaseHandler
	archiveService *archiveapp.ArchiveService
}

// NewArchiveHandler creates a new ArchiveHandler
func NewArchiveHandler(archiveService *archiveapp.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

// List returns a page of the org's archives, oldest first
//
//	@ID			listArchives
//	@Summary		List archives
//	@Description	List the org's archives, oldest first
//	@Tags			archives
//	@Produce		json
//	@Param			type		query		string	false	"Record type"	Enums(message, run)
//	@Param			period		query		string	false	"Period"	Enums(D, M)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"	default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]archiveapp.ArchiveResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/archives [get]
func (h *ArchiveHandler) List(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}

	var filter archiveapp.ListArchivesFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	archives, total, err := h.archiveService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, archives, total, page, pageSize)
}

// Get returns a single archive
//
//	@ID			getArchive
//	@Summary		Get archive
//	@Description	Get one of the org's archives by ID
//	@Tags			archives
//	@Produce		json
//	@Param			id	path		string	true	"Archive ID"	format(uuid)
//	@Success		200	{object}	APIResponse[archiveapp.ArchiveResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/archives/{id} [get]
func (h *ArchiveHandler) Get(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.archiveService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, a)
}

// Download returns a temporary link to the archive's file
//
//	@ID			downloadArchive
//	@Summary		Download archive
//	@Description	Get a temporary link to the archive's gzipped JSON lines file
//	@Tags			archives
//	@Produce		json
//	@Param			id	path		string	true	"Archive ID"	format(uuid)
//	@Success		200	{object}	APIResponse[archiveapp.DownloadResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/archives/{id}/download [get]
func (h *ArchiveHandler) Download(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	link, err := h.archiveService.DownloadURL(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, link)
}

// Register records an archive the archiver uploaded
//
//	@ID			registerArchive
//	@Summary		Register archive
//	@Description	Record an archive file uploaded by the archiver. Monthly archives roll up the month's dailies.
//	@Tags			archives
//	@Accept			json
//	@Produce		json
//	@Param			request	body		archiveapp.RegisterArchiveRequest	true	"Archive to register"
//	@Success		201		{object}	APIResponse[archiveapp.ArchiveResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/archives [post]
func (h *ArchiveHandler) Register(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}

	var req archiveapp.RegisterArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	a, err := h.archiveService.Register(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, a)
}

// Redact removes records from every archive of the org that holds them
//
//	@ID			redactArchives
//	@Summary		Redact archived records
//	@Description	Remove records by UUID from every archive of the org that holds them
//	@Tags			archives
//	@Accept			json
//	@Produce		json
//	@Param			request	body		archiveapp.RedactRequest	true	"Records to remove"
//	@Success		200		{object}	APIResponse[archiveapp.RedactResult]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/archives/redact [post]
func (h *ArchiveHandler) Redact(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}

	var req archiveapp.RedactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.archiveService.DeleteRecords(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// pageOf fills in the default page and page size of a list query
func pageOf(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
