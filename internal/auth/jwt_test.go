package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService("test-secret-that-is-long-enough")
	require.NoError(t, err)

	token, err := svc.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc, err := NewTokenService("test-secret-that-is-long-enough")
	require.NoError(t, err)

	token, err := svc.GenerateWithDuration("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorContains(t, err, "expired")
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	a, err := NewTokenService("secret-one-that-is-long-enough")
	require.NoError(t, err)
	b, err := NewTokenService("secret-two-that-is-long-enough")
	require.NoError(t, err)

	token, err := a.Generate("user-123")
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret-that-is-long-enough")
	require.NoError(t, err)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Validate(tok)
		assert.Error(t, err, "token %q should be rejected", tok)
	}
}
