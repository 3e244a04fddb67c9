package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/auth"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// Operator context keys
const (
	OperatorKey       = "operator"
	OperatorClaimsKey = "operator_claims"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
)

// OperatorAuthConfig holds configuration for operator authentication
type OperatorAuthConfig struct {
	// JWTService validates tokens; a service without a secret disables auth
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultOperatorAuthConfig returns default operator auth configuration
func DefaultOperatorAuthConfig(jwtService *auth.JWTService) OperatorAuthConfig {
	return OperatorAuthConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
		},
	}
}

// OperatorAuth authenticates operator bearer tokens
func OperatorAuth(cfg OperatorAuthConfig) gin.HandlerFunc {
	enabled := cfg.JWTService != nil && cfg.JWTService.Enabled()
	if cfg.Logger != nil && !enabled {
		cfg.Logger.Warn("Operator authentication disabled, no jwt secret configured")
	}

	return func(c *gin.Context) {
		if !enabled || skipAuth(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, cfg, nil, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, cfg, nil, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, cfg, nil, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, cfg, err, "")
			return
		}

		c.Set(OperatorClaimsKey, claims)
		c.Set(OperatorKey, claims.Operator)

		ctx, _ := logger.WithOperator(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.Operator)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func skipAuth(cfg OperatorAuthConfig, path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// abortUnauthorized answers 401. A nil err means the header itself was unusable.
func abortUnauthorized(c *gin.Context, cfg OperatorAuthConfig, err error, message string) {
	code := dto.ErrCodeUnauthorized
	msg := message
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		msg = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
		msg = "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingOperator):
		code = dto.ErrCodeTokenInvalid
		msg = "Token has no operator"
	default:
		code = dto.ErrCodeTokenInvalid
		msg = "Invalid token"
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Operator authentication failed",
			zap.Error(err),
			zap.String("code", code),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c)))
}

// RequireScope rejects authenticated operators whose token lacks scope.
// Requests that passed through a disabled OperatorAuth carry no claims and are let through.
func RequireScope(jwtService *auth.JWTService, scope auth.Scope) gin.HandlerFunc {
	enabled := jwtService != nil && jwtService.Enabled()
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			if enabled {
				c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeUnauthorized), dto.NewErrorResponseWithRequestID(
					dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
				return
			}
			c.Next()
			return
		}
		if !claims.HasScope(scope) {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeForbidden), dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Missing scope "+string(scope), GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetClaims returns the operator claims set by OperatorAuth
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(OperatorClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetOperator returns the authenticated operator, or "" when unauthenticated
func GetOperator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}
