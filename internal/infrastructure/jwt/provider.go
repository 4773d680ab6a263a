package jwtinfra

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/planbana/go-api/internal/config"
)

// Claims holds the access-token payload. Refresh tokens carry only the
// registered claims — roles are re-resolved from the account at refresh time,
// never trusted from a stale refresh token.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs. Tokens are self-contained: validity
// is signature plus expiry, with no server-side session store. Logout is
// therefore advisory only.
type Provider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Provider{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// SignAccess issues a short-lived access token for the subject (phone) with
// the account's roles embedded.
func (p *Provider) SignAccess(subject string, roles []string) (string, error) {
	now := p.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// SignRefresh issues a long-lived refresh token carrying only the subject.
func (p *Provider) SignRefresh(subject string) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.refreshTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Validate reports whether the token's signature verifies and it has not
// expired. Malformed input is an ordinary false, never a panic or error.
func (p *Provider) Validate(tokenStr string) bool {
	_, err := p.parse(tokenStr)
	return err == nil
}

// Subject extracts the subject of a token the caller has already validated.
func (p *Provider) Subject(tokenStr string) (string, error) {
	claims, err := p.parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Verify parses and validates the token and returns its typed claims.
// Used by the auth middleware.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	return p.parse(tokenStr)
}

func (p *Provider) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return p.now() }))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
