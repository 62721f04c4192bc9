package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeNotReady, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestGetDomainHTTPStatus(t *testing.T) {
	tests := []struct {
		code         string
		expectedCode string
		expected     int
	}{
		{"NOT_FOUND", ErrCodeNotFound, http.StatusNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists, http.StatusConflict},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"LOCKED", ErrCodeConflict, http.StatusConflict},
		{"INVALID_STATE", ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{"ARCHIVE_EXISTS", "ARCHIVE_EXISTS", http.StatusConflict},
		{"ARCHIVE_EMPTY", "ARCHIVE_EMPTY", http.StatusUnprocessableEntity},
		{"EXPORT_NOT_READY", "EXPORT_NOT_READY", http.StatusUnprocessableEntity},
		{"INVALID_TIMEZONE", "INVALID_TIMEZONE", http.StatusBadRequest},
		{"INVALID_STEP", "INVALID_STEP", http.StatusBadRequest},
		{"SOMETHING_ELSE", "SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			code, status := GetDomainHTTPStatus(tt.code)
			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("VALIDATION_ERROR"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestErrorCodeConstants(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.Contains(t, code, "ERR_")
		assert.GreaterOrEqual(t, status, 400, code)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Archive not found", "req-123")

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Archive not found","request_id":"req-123"}}`, string(b))

	b, err = json.Marshal(NewErrorResponse("NOT_FOUND", "Archive not found"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "request_id")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "type", Message: "This field is required"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "type", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total, pageSize int
		pages           int
	}{
		{total: 0, pageSize: 20, pages: 0},
		{total: 20, pageSize: 20, pages: 1},
		{total: 21, pageSize: 20, pages: 2},
		{total: 5, pageSize: 0, pages: 0},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]string{}, int64(tt.total), 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages)
	}
}

func TestListRequest_Normalize(t *testing.T) {
	r := ListRequest{}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, 20, r.PageSize)

	r = ListRequest{Page: 3, PageSize: 50}
	r.Normalize()
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 50, r.PageSize)
}
