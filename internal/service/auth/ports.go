// internal/service/auth/ports.go
package auth

import (
	"context"
	"time"

	"whispr-service/internal/domain/auth"
	"whispr-service/internal/domain/user"
)

// UserStore is the slice of the account repository the auth flows touch.
// Every state-changing method is a single atomic update on the store side.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*user.Account, error)
	FindByPhone(ctx context.Context, phone string) (*user.Account, error)
	FindByEmailAnyStatus(ctx context.Context, email string) (*user.Account, error)
	FindByEmailNotDeleted(ctx context.Context, email string) (*user.Account, error)
	FindByEmailActive(ctx context.Context, email string) (*user.Account, error)
	FindByID(ctx context.Context, id int64) (*user.Account, error)
	FindByAppID(ctx context.Context, appID string) (*user.Account, error)

	Create(ctx context.Context, a *user.Account) error
	CreateSocial(ctx context.Context, appID, deviceToken string) (*user.Account, error)

	RecordFailedLogin(ctx context.Context, id int64, maxAttempts int, restrictedUntil time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id int64, deviceToken string) error
	SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time, authType user.AuthType, requestCount int, resetPassword bool) error
	BumpOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	SetResetPending(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64, passwordHash string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateDeviceToken(ctx context.Context, id int64, deviceToken string) error
	SetStatus(ctx context.Context, id int64, status user.Status) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// ResetTokenStore persists the one-time reset capabilities.
type ResetTokenStore interface {
	Create(ctx context.Context, t *auth.ResetToken) error
	Consume(ctx context.Context, token string) (*auth.ResetToken, error)
}

// Mailer dispatches authentication emails. Implementations send in the
// background and only log failures; the auth flows never wait on delivery.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string, authType user.AuthType)
	SendPasswordChanged(ctx context.Context, to, name string)
}
