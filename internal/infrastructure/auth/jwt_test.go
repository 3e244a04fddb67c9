package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:   "test-secret-key-at-least-32-chars",
		Issuer:   "test-issuer",
		TokenTTL: 15 * time.Minute,
	})
}

func TestNewJWTService(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s", Issuer: "i"})

	assert.True(t, svc.Enabled())
	assert.Equal(t, 12*time.Hour, svc.ttl)
	assert.False(t, NewJWTService(config.JWTConfig{}).Enabled())
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newTestJWTService()

	issued, err := svc.IssueToken("alice", []Scope{ScopeSyncWrite, ScopeSyncRead})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasScope(ScopeSyncWrite))
	assert.False(t, claims.HasScope(ScopeOrdersWrite))
	assert.False(t, claims.GetIssuedAtTime().IsZero())
}

func TestIssueToken_Errors(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{}).IssueToken("alice", nil)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = newTestJWTService().IssueToken("  ", nil)
	assert.ErrorIs(t, err, ErrMissingOperator)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	issued, err := svc.IssueToken("alice", nil)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issued, err := newTestJWTService().IssueToken("alice", nil)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test-issuer"})
	_, err = other.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issued, err := newTestJWTService().IssueToken("alice", nil)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	_, err = other.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	svc := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "test-issuer"},
		Operator:         "mallory",
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingOperator(t *testing.T) {
	svc := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	raw, err := token.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrMissingOperator)
}

func TestClaims_AdminImpliesEveryScope(t *testing.T) {
	c := &Claims{Scopes: []string{string(ScopeAdmin)}}
	assert.True(t, c.HasScope(ScopeOrdersWrite))
	assert.True(t, c.HasScope(ScopeSyncRead))
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []Scope{ScopeSyncRead, ScopeOrdersWrite}, ParseScopes(" sync:read, ,orders:write"))
	assert.Nil(t, ParseScopes(""))
}
