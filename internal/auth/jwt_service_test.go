package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "tarotgarden-auth",
		Audience:       "authenticated",
		AccessTokenTTL: time.Hour,
		Clock:          clock,
	})
	require.NoError(t, err)

	token, err := svc.IssueAccessToken(AccessTokenInput{
		UserID:   "user-123",
		Email:    "reader@example.com",
		Provider: "email",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID())
	require.Equal(t, "reader@example.com", claims.Email)
	require.Equal(t, "email", claims.Provider)
	require.Equal(t, jwt.ClaimStrings{"authenticated"}, claims.Audience)
	require.True(t, claims.ExpiresAt.Time.Equal(clock.Now().Add(time.Hour)))
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	clock := clockwork.NewFakeClock()

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: clock})
	require.NoError(t, err)
	token, err := issuer.IssueAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: clock})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenExpired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC))

	svc, err := NewJWTService(JWTConfig{Secret: "secret", AccessTokenTTL: time.Minute, Clock: clock})
	require.NoError(t, err)

	token, err := svc.IssueAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	clock := clockwork.NewFakeClock()

	other, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "someone-else", Clock: clock})
	require.NoError(t, err)
	token, err := other.IssueAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	svc, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "tarotgarden-auth", Clock: clock})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenInvalidIssuer))
}

func TestValidateAccessTokenEmpty(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken("")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	require.True(t, ok)
	require.Equal(t, "abc.def", token)

	token, ok = BearerToken("bearer   xyz ")
	require.True(t, ok)
	require.Equal(t, "xyz", token)

	_, ok = BearerToken("Basic abc")
	require.False(t, ok)
	_, ok = BearerToken("Bearer ")
	require.False(t, ok)
	_, ok = BearerToken("")
	require.False(t, ok)
}
