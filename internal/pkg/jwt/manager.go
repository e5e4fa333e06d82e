// internal/pkg/jwt/manager.go
package jwt

import (
	"fmt"
	"time"
)

// Config carries the signing secrets and lifetimes injected at process
// start. There is deliberately no other source of secrets.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets must be configured")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("jwt lifetimes must be positive")
	}

	return &Manager{
		Generator: NewGenerator(cfg.AccessSecret, cfg.RefreshSecret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL),
		Verifier:  NewVerifier(cfg.AccessSecret, cfg.RefreshSecret, cfg.Issuer),
	}, nil
}
