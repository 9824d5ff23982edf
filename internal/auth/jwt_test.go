package auth

import (
	"testing"
	"time"

	"pinvault/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour, Issuer: "pinvault"}

	tok, err := GenerateAccessToken(cfg, 7, "u@x.com", "ADMIN")
	require.NoError(t, err)
	claims, err := ParseAccessToken(cfg, tok)

	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour, Issuer: "pinvault"}
	other := &config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Hour, Issuer: "pinvault"}
	expired := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: -time.Minute, Issuer: "pinvault"}

	forged, _ := GenerateAccessToken(other, 7, "u@x.com", "ADMIN")
	old, _ := GenerateAccessToken(expired, 7, "u@x.com", "ADMIN")

	for name, tok := range map[string]string{"wrong key": forged, "expired": old, "garbage": "abc.def.ghi"} {
		_, err := ParseAccessToken(cfg, tok)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
