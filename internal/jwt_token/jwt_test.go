package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "presence/pkg/domain-errors"
)

const organizer = "0x52908400098527886E0F7030069857D2E4169EE7"

var jwtService = NewJWTService("test-signing-key", "presence", "presence-organizers")

func TestGenerateOrganizerToken(t *testing.T) {
	token, err := jwtService.GenerateOrganizerToken(organizer, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", claims.Subject, "subject is the normalized handle")
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateOrganizerTokenRejectsBadHandle(t *testing.T) {
	_, err := jwtService.GenerateOrganizerToken("alice", time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestValidateToken(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := jwtService.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := jwtService.GenerateOrganizerToken(organizer, -time.Hour)
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token has expired")
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTService("another-key", "presence", "presence-organizers")
		token, err := other.GenerateOrganizerToken(organizer, time.Hour)
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "presence", "somebody-else")
		token, err := other.GenerateOrganizerToken(organizer, time.Hour)
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("subject must be a handle", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "presence",
			Audience:  []string{"presence-organizers"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		token, err := raw.SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
