package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/auth"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

func newTestJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:   "test-secret-key-that-is-long-enough",
		Issuer:   "shopsync-test",
		TokenTTL: ttl,
	})
}

func issue(t *testing.T, svc *auth.JWTService, operator string, scopes ...auth.Scope) string {
	t.Helper()
	tok, err := svc.IssueToken(operator, scopes)
	require.NoError(t, err)
	return tok.Token
}

func newAuthRouter(svc *auth.JWTService, scope auth.Scope) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), logger.AccessLog(zap.NewNop()))
	router.Use(OperatorAuth(DefaultOperatorAuthConfig(svc)))
	router.GET("/health", okHandler)
	router.GET("/api/v1/sync/full/progress", RequireScope(svc, scope), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operator":     GetOperator(c),
			"ctx_operator": logger.GetOperator(c.Request.Context()),
		})
	})
	return router
}

func TestOperatorAuth(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newAuthRouter(svc, auth.ScopeSyncRead)

	do := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/full/progress", nil)
		if header != "" {
			req.Header.Set(AuthHeaderKey, header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token", func(t *testing.T) {
		w := do(BearerPrefix + issue(t, svc, "alice", auth.ScopeSyncRead))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"operator":"alice"`)
		assert.Contains(t, w.Body.String(), `"ctx_operator":"alice"`)
	})

	t.Run("missing header", func(t *testing.T) {
		w := do("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := do("Basic abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := do(BearerPrefix + "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key", Issuer: "shopsync-test"})
		w := do(BearerPrefix + issue(t, other, "mallory", auth.ScopeAdmin))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})

	t.Run("skip paths need no token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOperatorAuth_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(time.Second)
	token := issue(t, svc, "alice", auth.ScopeAdmin)
	time.Sleep(2100 * time.Millisecond)

	router := newAuthRouter(svc, auth.ScopeSyncRead)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/full/progress", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeError(t, w).Code)
}

func TestRequireScope(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newAuthRouter(svc, auth.ScopeSyncWrite)

	do := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/full/progress", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, do(issue(t, svc, "reader", auth.ScopeSyncRead)))
	assert.Equal(t, http.StatusOK, do(issue(t, svc, "writer", auth.ScopeSyncWrite)))
	assert.Equal(t, http.StatusOK, do(issue(t, svc, "root", auth.ScopeAdmin)))
}

func TestOperatorAuth_DisabledWithoutSecret(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{})
	router := newAuthRouter(svc, auth.ScopeAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/full/progress", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operator":""`)
}

func TestRequireScope_NoClaimsWithAuthEnabled(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	router := gin.New()
	router.GET("/test", RequireScope(svc, auth.ScopeSyncRead), okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
