package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
	"github.com/shopsync/backend/internal/interfaces/http/middleware"
)

var testSites = shared.SiteSet{"com", "uk", "de", "fr"}

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator(testSites)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData unmarshals the data field of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func jsonRequest(method, target string, body any) *http.Request {
	var payload string
	switch b := body.(type) {
	case nil:
	case string:
		payload = b
	default:
		raw, _ := json.Marshal(b)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandlerSuccessResponses(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*BaseHandler, *gin.Context)
		status int
	}{
		{"Success", func(h *BaseHandler, c *gin.Context) { h.Success(c, map[string]string{"k": "v"}) }, http.StatusOK},
		{"Created", func(h *BaseHandler, c *gin.Context) { h.Created(c, map[string]string{"sku": "TS-1"}) }, http.StatusCreated},
		{"Accepted", func(h *BaseHandler, c *gin.Context) { h.Accepted(c, map[string]string{"id": "1"}) }, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.call(&BaseHandler{}, c)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, decodeResponse(t, w).Success)
		})
	}
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	(&BaseHandler{}).SuccessWithMeta(c, []string{"a", "b"}, 2, 50)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
	assert.Equal(t, 50, resp.Meta.Limit)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"Conflict", func(h *BaseHandler, c *gin.Context) { h.Conflict(c, "busy") }, http.StatusConflict, dto.ErrCodeConflict},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"ErrorWithCode", func(h *BaseHandler, c *gin.Context) { h.ErrorWithCode(c, dto.ErrCodeConfirmationRequired, "confirm") }, http.StatusPreconditionRequired, dto.ErrCodeConfirmationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			tt.method(&BaseHandler{}, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"unknown site", fmt.Errorf("%w: xx", integration.ErrSiteNotConfigured), http.StatusBadRequest, dto.ErrCodeInvalidSite},
		{"transient storefront", integration.ErrRemoteUnavailable, http.StatusServiceUnavailable, dto.ErrCodeSiteUnavailable},
		{"fatal storefront", integration.ErrRemoteUnauthorized, http.StatusBadGateway, dto.ErrCodeSiteRejected},
		{"remote not found", integration.ErrRemoteNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"domain not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"confirmation required", catalogapp.ErrRebuildNotConfirmed, http.StatusPreconditionRequired, dto.ErrCodeConfirmationRequired},
		{"full pull running", catalogapp.ErrFullPullRunning, http.StatusConflict, dto.ErrCodeConflict},
		{"invalid mode", catalogapp.ErrInvalidPullMode, http.StatusBadRequest, dto.ErrCodeInvalidMode},
		{"deadline", fmt.Errorf("push: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, dto.ErrCodeSiteUnavailable},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			require.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	(&BaseHandler{}).HandleError(c, fmt.Errorf("dsn=postgres://secret"))

	assert.Equal(t, "An unexpected error occurred", decodeResponse(t, w).Error.Message)
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type body struct {
		Site string `json:"site" binding:"required,sitecode"`
	}
	tests := []struct {
		name    string
		payload string
		ok      bool
		code    string
	}{
		{"valid", `{"site":"uk"}`, true, ""},
		{"malformed", `{"site":`, false, dto.ErrCodeInvalidJSON},
		{"missing", `{}`, false, dto.ErrCodeValidation},
		{"unknown site", `{"site":"jp"}`, false, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = jsonRequest(http.MethodPost, "/", tt.payload)

			var b body
			ok := (&BaseHandler{}).BindJSON(c, &b)

			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
			}
		})
	}
}
