package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(ttl time.Duration) (TokenService, error) {
	return NewTokenService(
		ttl,
		"test-issuer",
		"test-audience",
		"test-secret-key-for-jwt-signing-32-chars",
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		secretKey   string
		expectError bool
	}{
		{
			name:        "valid configuration",
			secretKey:   "test-secret-key-for-jwt-signing-32-chars",
			expectError: false,
		},
		{
			name:        "missing secret key",
			secretKey:   "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(24*time.Hour, "test-issuer", "test-audience", tt.secretKey)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	service, err := createTestTokenService(24 * time.Hour)
	require.NoError(t, err)

	token, err := service.GenerateSessionToken("dana@example.com", "Dana", "https://example.com/p.png")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateSessionToken(token)
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, "Dana", claims.Name)
	assert.Equal(t, "https://example.com/p.png", claims.Picture)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateSessionTokenExpired(t *testing.T) {
	service, err := createTestTokenService(-1 * time.Minute)
	require.NoError(t, err)

	token, err := service.GenerateSessionToken("dana@example.com", "Dana", "")
	require.NoError(t, err)

	claims, err := service.ValidateSessionToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateSessionTokenInvalid(t *testing.T) {
	service, err := createTestTokenService(24 * time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"empty", ""},
		{"tampered", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJlbWFpbCI6ImFAYi5jIn0.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateSessionToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidateSessionTokenWrongKey(t *testing.T) {
	issuing, err := NewTokenService(24*time.Hour, "test-issuer", "test-audience", "issuing-secret-key-32-characters-long!!")
	require.NoError(t, err)
	validating, err := NewTokenService(24*time.Hour, "test-issuer", "test-audience", "different-secret-key-32-characters-long")
	require.NoError(t, err)

	token, err := issuing.GenerateSessionToken("dana@example.com", "Dana", "")
	require.NoError(t, err)

	claims, err := validating.ValidateSessionToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIDsAreUnique(t *testing.T) {
	service, err := createTestTokenService(24 * time.Hour)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, err := service.GenerateSessionToken("dana@example.com", "Dana", "")
		require.NoError(t, err)

		claims, err := service.ValidateSessionToken(token)
		require.NoError(t, err)
		assert.False(t, seen[claims.TokenID], "token ID reused")
		seen[claims.TokenID] = true
	}
}
