package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func labelsOf(c *gin.Context) map[string]string {
	labels := map[string]string{}
	pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
		labels[k] = v
		return true
	})
	return labels
}

func TestProfiling(t *testing.T) {
	var got map[string]string

	router := gin.New()
	router.Use(Profiling(true))
	router.POST("/api/v1/exports", func(c *gin.Context) {
		got = labelsOf(c)
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		got = labelsOf(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	assert.Equal(t, map[string]string{"route": "/api/v1/exports", "method": "POST"}, got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, got)
}

func TestProfiling_Disabled(t *testing.T) {
	var got map[string]string

	router := gin.New()
	router.Use(Profiling(false))
	router.GET("/api/v1/exports", func(c *gin.Context) {
		got = labelsOf(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got)
}
