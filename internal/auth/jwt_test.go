package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken_JWT(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()})

	info, ok := InspectToken(token)
	require.True(t, ok)
	assert.Equal(t, "user-1", info.Subject)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.True(t, info.Expired(time.Now()))
	assert.Nil(t, info.IssuedAt)
}

func TestInspectToken_Opaque(t *testing.T) {
	for _, token := range []string{"abc123", "", "a.b.c"} {
		info, ok := InspectToken(token)
		assert.False(t, ok, token)
		assert.Nil(t, info)
	}
}

func TestTokenInfo_NoExpiry(t *testing.T) {
	info, ok := InspectToken(signedToken(t, jwt.MapClaims{"sub": "x"}))
	require.True(t, ok)
	assert.False(t, info.Expired(time.Now()))
}
