package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/temba/backend/internal/interfaces/http/handler"
)

// Handlers are the handlers the API routes dispatch to
type Handlers struct {
	Archive    *handler.ArchiveHandler
	Export     *handler.ExportHandler
	FlowResult *handler.FlowResultHandler
	IVR        *handler.IVRHandler
	System     *handler.SystemHandler
}

// Groups returns the route groups of the API
func Groups(h Handlers) []*DomainGroup {
	archives := NewDomainGroup("archives", "/archives").
		GET("", h.Archive.List).
		POST("", h.Archive.Register).
		POST("/redact", h.Archive.Redact).
		GET("/:id", h.Archive.Get).
		GET("/:id/download", h.Archive.Download)

	exports := NewDomainGroup("exports", "/exports").
		GET("", h.Export.List).
		POST("", h.Export.Create).
		GET("/:id", h.Export.Get).
		GET("/:id/download", h.Export.Download)

	flows := NewDomainGroup("flows", "/flows").
		GET("/:uuid/results/:key/categories", h.FlowResult.NumericCategories)

	ivr := NewDomainGroup("ivr", "/ivr").
		POST("/ncco", h.IVR.RenderNCCO)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{archives, exports, flows, ivr, system}
}

// Mount registers the health check on the engine and the API groups under
// /api/v1. Ping is mounted ahead of the group middleware so it answers
// without a token.
func Mount(engine *gin.Engine, h Handlers, apiMiddleware ...gin.HandlerFunc) *Router {
	engine.GET("/health", h.System.Health)
	engine.GET("/api/v1/ping", h.System.Ping)

	r := NewRouter(engine, WithMiddleware(apiMiddleware...))
	for _, g := range Groups(h) {
		r.Register(g)
	}
	r.Setup()
	return r
}

// MountDocs serves the Swagger UI and doc.json under /swagger behind the
// given middleware. The docs package must be imported for doc.json to
// resolve.
func MountDocs(engine *gin.Engine, middleware ...gin.HandlerFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/swagger/*any", handlers...)
}
