package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("session-secret", time.Hour)

	signed, err := svc.Generate(7)
	require.NoError(t, err)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, 3600, svc.MaxAge())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("session-secret", time.Hour)

	other, err := NewJWTService("other-secret", time.Hour).Generate(7)
	require.NoError(t, err)
	_, err = svc.Verify(other)
	assert.Error(t, err, "wrong key")

	claims := &Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("session-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(expired)
	assert.Error(t, err, "expired")

	foreign := &Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, foreign).SignedString([]byte("session-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(signed)
	assert.Error(t, err, "wrong issuer")

	_, err = svc.Verify("not-a-token")
	assert.Error(t, err)
}

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasher(4)

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NoError(t, h.Verify("hunter22", hash))
	assert.Error(t, h.Verify("wrong", hash))

	r1, err := h.HashRandom()
	require.NoError(t, err)
	r2, err := h.HashRandom()
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
}
