package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestDescribe(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("jwt with claims", func(t *testing.T) {
		raw := signedToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"email": "dev@example.com",
			"iss":   "https://idp.example.com",
			"exp":   now.Add(time.Hour).Unix(),
		})
		s := Describe(callback.NewToken(raw), now)
		assert.Equal(t, FormatJWT, s.Format)
		assert.Equal(t, "dev@example.com", s.Subject)
		assert.Equal(t, "https://idp.example.com", s.Issuer)
		require.NotNil(t, s.ExpiresAt)
		assert.True(t, s.ExpiresAt.Equal(now.Add(time.Hour)))
		assert.False(t, s.Expired)
		assert.Equal(t, len(raw), s.Length)
	})

	t.Run("expired jwt", func(t *testing.T) {
		raw := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": now.Add(-time.Minute).Unix()})
		s := Describe(callback.NewToken(raw), now)
		assert.Equal(t, "user-1", s.Subject)
		assert.True(t, s.Expired)
	})

	t.Run("opaque token", func(t *testing.T) {
		s := Describe(callback.NewToken("abc123"), now)
		assert.Equal(t, FormatOpaque, s.Format)
		assert.Equal(t, 6, s.Length)
		assert.Empty(t, s.Subject)
		assert.Nil(t, s.ExpiresAt)
	})
}
