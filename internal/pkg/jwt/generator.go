// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Generator mints HS256 access and refresh tokens. The two kinds use
// independently configured secrets and lifetimes.
type Generator struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewGenerator(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) *Generator {
	return &Generator{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

func (g *Generator) sign(id Identity, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt generator has empty secret")
	}

	now := time.Now()
	claims := &Claims{
		AuthID:      id.AuthID,
		Role:        id.Role,
		Name:        id.Name,
		Email:       id.Email,
		Profile:     id.Profile,
		DeviceToken: id.DeviceToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", id.AuthID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// AccessToken mints a short-lived access token.
func (g *Generator) AccessToken(id Identity) (string, error) {
	return g.sign(id, g.accessSecret, g.AccessTTL)
}

// RefreshToken mints a long-lived refresh token with the same claims.
func (g *Generator) RefreshToken(id Identity) (string, error) {
	return g.sign(id, g.refreshSecret, g.RefreshTTL)
}

// TokenPair mints the access+refresh pair issued on full authentication.
func (g *Generator) TokenPair(id Identity) (access string, refresh string, err error) {
	access, err = g.AccessToken(id)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err = g.RefreshToken(id)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}
