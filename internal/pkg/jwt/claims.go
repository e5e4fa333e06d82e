// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload carried by both access and refresh tokens.
type Claims struct {
	AuthID      int64  `json:"authId"`
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Profile     string `json:"profile,omitempty"`
	DeviceToken string `json:"deviceToken,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token belongs to an admin account.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// Identity returns the claim fields that survive a refresh, so a re-minted
// access token carries exactly what the original pair carried.
func (c *Claims) Identity() Identity {
	return Identity{
		AuthID:      c.AuthID,
		Role:        c.Role,
		Name:        c.Name,
		Email:       c.Email,
		Profile:     c.Profile,
		DeviceToken: c.DeviceToken,
	}
}

// Identity is the input to token minting.
type Identity struct {
	AuthID      int64
	Role        string
	Name        string
	Email       string
	Profile     string
	DeviceToken string
}
