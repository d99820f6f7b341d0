package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", fmt.Errorf("%w: alert 1", ErrNotFound), http.StatusNotFound, "not_found"},
		{"bad request", fmt.Errorf("%w: metric is required", ErrBadRequest), http.StatusBadRequest, "bad_request"},
		{"validation", fmt.Errorf("%w: action", ErrValidation), http.StatusBadRequest, "validation_error"},
		{"conflict", fmt.Errorf("%w: running", ErrConflict), http.StatusConflict, "conflict"},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, response := processError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, response.Error)
		})
	}

	t.Run("Should hide internal error messages", func(t *testing.T) {
		_, response := processError(errors.New("password=secret"))
		assert.NotContains(t, response.Message, "secret")
	})

	t.Run("Should carry error codes", func(t *testing.T) {
		status, response := processError(NewErrorWithCode(ErrBadRequest, "unknown_topic"))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "unknown_topic", response.Code)
	})
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/v1/live/frames", nil)

	HandleError(ctx, fmt.Errorf("%w: redis down", ErrServiceUnavailable), NewNopLogger())

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.True(t, ctx.IsAborted())

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response.Message, "redis down")
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, DefaultLimit},
		{"page=3&limit=10", 3, 10},
		{"page=0&limit=-4", 1, DefaultLimit},
		{"page=x&limit=500", 1, MaxLimit},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)

			p := GetPaginationFromContext(ctx)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.limit, p.Limit)
		})
	}

	t.Run("Should compute offsets and page counts", func(t *testing.T) {
		p := PaginationRequest{Page: 3, Limit: 10}
		assert.Equal(t, 20, p.Offset())

		response := NewPaginatedResponse([]int{1}, p, 21)
		assert.Equal(t, 3, response.Pagination.TotalPages)
		assert.Equal(t, 21, response.Pagination.TotalItems)
	})
}

func TestJSONSchemaValidator(t *testing.T) {
	schema, err := NewJSONSchemaBuilder().
		SetTitle("mode_schema").
		AddEnumProperty("mode", []string{"a", "b"}, true).
		AddProperty("count", "integer", false).
		Build()
	require.NoError(t, err)

	validator := NewJSONSchemaValidator()
	require.NoError(t, validator.LoadSchema("mode_schema", schema))

	assert.NoError(t, validator.ValidateBytes("mode_schema", []byte(`{"mode":"a","count":2}`)))
	assert.ErrorIs(t, validator.ValidateBytes("mode_schema", []byte(`{"mode":"c"}`)), ErrValidation)
	assert.ErrorIs(t, validator.ValidateAgainstSchema("mode_schema", map[string]interface{}{"mode": "a", "extra": 1}), ErrValidation)
	assert.Error(t, validator.ValidateBytes("missing", []byte(`{}`)))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "alert_id", toSnakeCase("AlertID"))
	assert.Equal(t, "device_id", toSnakeCase("device_id"))
	assert.Equal(t, "metric", toSnakeCase("Metric"))
	assert.Equal(t, "http_status", toSnakeCase("HTTPStatus"))
}
