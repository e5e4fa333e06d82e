package jwt

import (
	"errors"
	"testing"
	"time"

	"whispr-service/internal/pkg/apierror"
)

func testManager(t *testing.T, accessTTL, refreshTTL time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "whispr",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestRefreshRoundTrip(t *testing.T) {
	m := testManager(t, time.Hour, 24*time.Hour)

	id := Identity{
		AuthID:      42,
		Role:        "user",
		Name:        "Jamie Doe",
		Email:       "jamie@example.com",
		Profile:     "https://cdn.example.com/p/42.png",
		DeviceToken: "device-abc",
	}

	_, refresh, err := m.Generator.TokenPair(id)
	if err != nil {
		t.Fatalf("TokenPair: %v", err)
	}

	claims, err := m.Verifier.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}

	access, err := m.Generator.AccessToken(claims.Identity())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	got, err := m.Verifier.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if got.Identity() != id {
		t.Fatalf("claims changed across refresh: got %+v want %+v", got.Identity(), id)
	}
}

func TestExpiredRefreshTokenDistinguished(t *testing.T) {
	m := testManager(t, time.Hour, -time.Minute)

	refresh, err := m.Generator.RefreshToken(Identity{AuthID: 7, Role: "user"})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}

	_, err = m.Verifier.VerifyRefreshToken(refresh)
	if !errors.Is(err, apierror.ErrTokenExpired) {
		t.Fatalf("expected token-expired error, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m := testManager(t, time.Hour, 24*time.Hour)

	access, err := m.Generator.AccessToken(Identity{AuthID: 7, Role: "user"})
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	// Access tokens are signed with a different secret; refreshing with
	// one must fail as invalid, not expired.
	_, err = m.Verifier.VerifyRefreshToken(access)
	if !errors.Is(err, apierror.ErrTokenInvalid) {
		t.Fatalf("expected invalid-token error, got %v", err)
	}
}

func TestVerifierRejectsForeignIssuer(t *testing.T) {
	m := testManager(t, time.Hour, 24*time.Hour)
	other, err := NewManager(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "someone-else",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	access, err := other.Generator.AccessToken(Identity{AuthID: 7, Role: "user"})
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if _, err := m.Verifier.VerifyAccessToken(access); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}
