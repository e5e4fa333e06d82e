// internal/pkg/jwt/verifier.go
package jwt

import (
	"errors"
	"fmt"

	"whispr-service/internal/pkg/apierror"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates access and refresh tokens against their respective
// secrets.
type Verifier struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
}

func NewVerifier(accessSecret, refreshSecret, issuer string) *Verifier {
	return &Verifier{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
	}
}

func (v *Verifier) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	return claims, nil
}

// VerifyAccessToken validates an access token.
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims, err := v.verify(tokenString, v.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// VerifyRefreshToken validates a refresh token. An expired token yields a
// distinguished application error so the client knows to log in again;
// every other failure is reported as an invalid token.
func (v *Verifier) VerifyRefreshToken(tokenString string) (*Claims, error) {
	claims, err := v.verify(tokenString, v.refreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierror.TokenExpired()
		}
		return nil, apierror.TokenInvalid()
	}
	return claims, nil
}
