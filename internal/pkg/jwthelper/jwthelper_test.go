package jwthelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	key := []byte("test-signing-key")

	t.Run("round trips the claims", func(t *testing.T) {
		token, err := GenerateToken(key, 42, "scanner/1.0")
		require.NoError(t, err)

		claims, err := ParseToken(key, token)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "scanner/1.0", claims.UserAgent)
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		token, err := GenerateToken([]byte("other-key"), 42, "scanner/1.0")
		require.NoError(t, err)

		_, err = ParseToken(key, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseToken(key, "not.a.token")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
