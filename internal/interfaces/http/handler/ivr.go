package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ivrapp "github.com/temba/backend/internal/application/ivr"
)

// IVRHandler handles IVR rendering endpoints
type IVRHandler struct {
	BaseHandler
	ivrService *ivrapp.Service
}

// NewIVRHandler creates a new IVRHandler
func NewIVRHandler(ivrService *ivrapp.Service) *IVRHandler {
	return &IVRHandler{ivrService: ivrService}
}

// RenderNCCO renders an IVR script as a Vonage NCCO. The body is the bare
// action array Vonage expects, not the API envelope.
//
//	@ID			renderNCCO
//	@Summary		Render NCCO
//	@Description	Render an IVR script as a Vonage call control object
//	@Tags			ivr
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ivrapp.RenderRequest	true	"IVR script"
//	@Success		200		{array}		object
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ivr/ncco [post]
func (h *IVRHandler) RenderNCCO(c *gin.Context) {
	var req ivrapp.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	actions, err := h.ivrService.Render(c.Request.Context(), req.Steps)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}
