package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

type pushRequest struct {
	SKU    string   `json:"sku" binding:"required,max=64"`
	Sites  []string `json:"sites" binding:"omitempty,dive,sitecode"`
	Fields []string `json:"fields" binding:"omitempty,dive,syncfield"`
}

func newValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	sites, err := shared.NewSiteSet("com", "uk")
	require.NoError(t, err)
	SetupValidator(sites)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/push", func(c *gin.Context) {
		var req pushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestValidation(t *testing.T) {
	router := newValidationRouter(t)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
		wantTag   string
	}{
		{"valid", `{"sku":"TS-1","sites":["com","uk"],"fields":["prices","stock"]}`, http.StatusOK, "", ""},
		{"missing sku", `{"sites":["com"]}`, http.StatusBadRequest, "sku", "required"},
		{"unknown site", `{"sku":"TS-1","sites":["de"]}`, http.StatusBadRequest, "sites[0]", "sitecode"},
		{"malformed site", `{"sku":"TS-1","sites":["C O M"]}`, http.StatusBadRequest, "sites[0]", "sitecode"},
		{"unknown field", `{"sku":"TS-1","fields":["weight"]}`, http.StatusBadRequest, "fields[0]", "syncfield"},
		{"sku too long", `{"sku":"` + strings.Repeat("x", 65) + `"}`, http.StatusBadRequest, "sku", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
			assert.Equal(t, tt.wantTag, resp.Error.Details[0].Tag)
			assert.NotEmpty(t, resp.Error.Details[0].Message)
		})
	}
}

func TestValidation_AnySiteWhenUnconfigured(t *testing.T) {
	SetupValidator(nil)
	t.Cleanup(func() { SetupValidator(nil) })

	router := gin.New()
	router.POST("/push", func(c *gin.Context) {
		var req pushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(`{"sku":"TS-1","sites":["de"]}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
