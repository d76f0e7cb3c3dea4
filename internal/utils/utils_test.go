package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "ADMIN", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", 1, "ADMIN", 15)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", 1, "ADMIN", -1)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "ADMIN", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"wrong secret": good.Token,
		"expired":      expired.Token,
		"alg none":     unsigned,
		"garbage":      "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			secret := "s3cret"
			if name == "wrong secret" {
				secret = "other"
			}
			_, err := ParseAccessToken(secret, raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))
}
