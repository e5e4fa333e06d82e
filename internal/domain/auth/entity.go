package auth

import "time"

// ResetToken is the one-time capability minted after a verified account
// completes OTP verification for a password reset. It lives apart from
// the account so it can expire on its own clock, and is consumed exactly
// once by a successful reset.
type ResetToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the capability has lapsed at the given instant.
func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
