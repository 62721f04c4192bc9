package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportapp "github.com/temba/backend/internal/application/export"
	"github.com/temba/backend/internal/interfaces/http/dto"
)

func createExport(t *testing.T, env *testEnv, body map[string]any) exportapp.ExportResponse {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/v1/exports", body)
	assertStatus(t, w, http.StatusCreated)

	var e exportapp.ExportResponse
	decodeResponse(t, w, &e)
	return e
}

func TestExportHandler_Create(t *testing.T) {
	env := newTestEnv(t)

	e := createExport(t, env, map[string]any{
		"type":       "messages",
		"format":     "csv",
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
		"timezone":   "Africa/Kigali",
	})

	assert.Equal(t, "messages", e.Type)
	assert.Equal(t, "csv", e.Format)
	assert.Equal(t, "pending", e.Status)
	assert.Equal(t, "2024-03-01", e.StartDate)
	assert.Equal(t, "Africa/Kigali", e.Config.Timezone)
	require.NotNil(t, e.CreatedBy)
	assert.Equal(t, env.userID, *e.CreatedBy)
	assert.Equal(t, 1, env.jobs.count())
}

func TestExportHandler_Create_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "unknown type",
			body:   map[string]any{"type": "contacts", "start_date": "2024-03-01", "end_date": "2024-03-31"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "bad date",
			body:   map[string]any{"type": "messages", "start_date": "01/03/2024", "end_date": "2024-03-31"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "unknown timezone",
			body:   map[string]any{"type": "messages", "start_date": "2024-03-01", "end_date": "2024-03-31", "timezone": "Mars/Olympus"},
			status: http.StatusBadRequest,
			code:   "INVALID_TIMEZONE",
		},
		{
			name:   "end before start",
			body:   map[string]any{"type": "messages", "start_date": "2024-03-31", "end_date": "2024-03-01"},
			status: http.StatusBadRequest,
			code:   "INVALID_DATE_RANGE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/exports", tt.body)
			assertStatus(t, w, tt.status)
			assert.Equal(t, tt.code, decodeResponse(t, w, nil).Error.Code)
		})
	}
	assert.Zero(t, env.jobs.count())
}

func TestExportHandler_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	first := createExport(t, env, map[string]any{"type": "messages", "start_date": "2024-03-01", "end_date": "2024-03-31"})
	createExport(t, env, map[string]any{
		"type":        "results",
		"start_date":  "2024-03-01",
		"end_date":    "2024-03-31",
		"flows":       []map[string]any{{"uuid": uuid.NewString(), "name": "Registration"}},
		"result_keys": []string{"age"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/exports?type=messages", nil)
	assertStatus(t, w, http.StatusOK)
	var exports []exportapp.ExportResponse
	resp := decodeResponse(t, w, &exports)
	require.Len(t, exports, 1)
	assert.Equal(t, first.ID, exports[0].ID)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w = env.do(t, http.MethodGet, "/api/v1/exports?page_size=1", nil)
	assertStatus(t, w, http.StatusOK)
	resp = decodeResponse(t, w, &exports)
	assert.Len(t, exports, 1)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = env.do(t, http.MethodGet, "/api/v1/exports/"+first.ID.String(), nil)
	assertStatus(t, w, http.StatusOK)
	var got exportapp.ExportResponse
	decodeResponse(t, w, &got)
	assert.Equal(t, first.ID, got.ID)

	w = env.do(t, http.MethodGet, "/api/v1/exports/"+uuid.NewString(), nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestExportHandler_Download(t *testing.T) {
	env := newTestEnv(t)
	e := createExport(t, env, map[string]any{"type": "messages", "format": "csv", "start_date": "2024-03-01", "end_date": "2024-03-31"})

	w := env.do(t, http.MethodGet, "/api/v1/exports/"+e.ID.String()+"/download", nil)
	assertStatus(t, w, http.StatusUnprocessableEntity)
	assert.Equal(t, "EXPORT_NOT_READY", decodeResponse(t, w, nil).Error.Code)

	require.NoError(t, env.exports.Process(t.Context(), e.ID))

	w = env.do(t, http.MethodGet, "/api/v1/exports/"+e.ID.String()+"/download", nil)
	assertStatus(t, w, http.StatusOK)
	var link exportapp.DownloadResponse
	decodeResponse(t, w, &link)
	assert.Contains(t, link.URL, testExportBucket)
	assert.Contains(t, link.Filename, ".csv")
}
