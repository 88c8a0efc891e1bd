package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 7, "user", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "user", claims["role"])
}

func TestNewAccessToken_RejectsBadInput(t *testing.T) {
	_, err := NewAccessToken("", 1, "admin", time.Hour)
	assert.Error(t, err)
	_, err = NewAccessToken("s", 1, "admin", 0)
	assert.Error(t, err)
}
