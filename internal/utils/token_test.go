package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

var testProfile = TokenProfile{
	UniqueID: "user-1",
	Name:     "Cafe Owner",
	Email:    "owner@example.com",
	Mobile:   "5550001",
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testProfile, 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Value)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	got, err := ParseToken(testSecret, tok.Value, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, testProfile, got)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	tok, err := NewRefreshToken(testSecret, testProfile, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, tok.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	got, err := ParseToken(testSecret, tok.Value, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, testProfile, got)
}

func TestExpiredTokenReportsExpiry(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testProfile, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, tok.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretReportsInvalid(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testProfile, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("another-secret", tok.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTamperedTokenReportsInvalid(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testProfile, time.Minute)
	require.NoError(t, err)

	raw := []byte(tok.Value)
	last := len(raw) - 1
	if raw[last] == 'A' {
		raw[last] = 'B'
	} else {
		raw[last] = 'A'
	}
	_, err = ParseToken(testSecret, string(raw), TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
