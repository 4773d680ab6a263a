package jwtinfra

import (
	"testing"
	"time"

	"github.com/planbana/go-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.SignAccess("5551234", []string{"USER"})
	require.NoError(t, err)

	assert.True(t, p.Validate(tok))

	subject, err := p.Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, "5551234", subject)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, claims.Roles)
}

func TestRefreshToken_CarriesNoRoles(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.SignRefresh("5551234")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Empty(t, claims.Roles)
	assert.Equal(t, "5551234", claims.Subject)
}

func TestValidate_ExpiryEdges(t *testing.T) {
	p := newTestProvider(t)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return issuedAt }
	tok, err := p.SignAccess("5551234", nil)
	require.NoError(t, err)

	p.now = func() time.Time { return issuedAt.Add(15*time.Minute - time.Second) }
	assert.True(t, p.Validate(tok), "valid one second before expiry")

	p.now = func() time.Time { return issuedAt.Add(15*time.Minute + time.Second) }
	assert.False(t, p.Validate(tok), "invalid one second after expiry")
}

func TestValidate_MalformedInput(t *testing.T) {
	p := newTestProvider(t)

	assert.False(t, p.Validate(""))
	assert.False(t, p.Validate("not-a-token"))
	assert.False(t, p.Validate("aaaa.bbbb.cccc"))
}

func TestValidate_WrongSecret(t *testing.T) {
	p := newTestProvider(t)
	other, err := NewProvider(&config.Config{
		JWTSecret:       "different-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	tok, err := p.SignAccess("5551234", nil)
	require.NoError(t, err)
	assert.False(t, other.Validate(tok))
}
