package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
)

func TestTestSKU_HasGeneratedShape(t *testing.T) {
	assert.True(t, catalog.IsGeneratedSKU(TestSKU("AB12C")))
}

func TestTestSites(t *testing.T) {
	sites := TestSites()
	require.Len(t, sites, 4)
	assert.Equal(t, shared.SiteCode("com"), sites.Reference())
	assert.True(t, sites.Contains("fr"))
}

func newEchoEngine() *gin.Engine {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_VALIDATION", "message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"body":  body,
			"auth":  c.GetHeader("Authorization"),
			"trace": c.GetHeader("X-Trace"),
		}})
	})
	return engine
}

func TestRunRouteTestCases(t *testing.T) {
	engine := newEchoEngine()
	called := 0

	RunRouteTestCases(t, engine, []HTTPTestCase{
		{
			Name:           "json body and headers reach the handler",
			Method:         http.MethodPost,
			Path:           "/echo",
			Body:           map[string]string{"site": "uk"},
			Token:          "tok",
			Headers:        map[string]string{"X-Trace": "abc"},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]any{"success": true},
			Validate: func(t *testing.T, tc *TestContext) {
				called++
				var data struct {
					Body  map[string]string `json:"body"`
					Auth  string            `json:"auth"`
					Trace string            `json:"trace"`
				}
				DecodeData(t, tc, &data)
				assert.Equal(t, "uk", data.Body["site"])
				assert.Equal(t, "Bearer tok", data.Auth)
				assert.Equal(t, "abc", data.Trace)
				assert.Equal(t, "application/json", tc.Request.Header.Get("Content-Type"))
			},
		},
		{
			Name:           "missing body is a validation error",
			Method:         http.MethodPost,
			Path:           "/echo",
			ExpectedStatus: http.StatusBadRequest,
			Validate: func(t *testing.T, tc *TestContext) {
				called++
				AssertErrorResponse(t, tc, "ERR_VALIDATION")
			},
		},
		{
			Name:           "method defaults to GET",
			Path:           "/echo",
			ExpectedStatus: http.StatusNotFound,
		},
	})

	assert.Equal(t, 2, called)
}
