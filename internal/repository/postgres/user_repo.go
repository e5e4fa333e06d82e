// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const accountColumns = `
	id, first_name, last_name, username, email, phone, profile,
	password, role, status, verified, app_id, device_token,
	wrong_login_attempts, restriction_left_at, one_time_code,
	otp_expires_at, latest_request_at, request_count, auth_type,
	reset_password, created_at, updated_at
`

func scanAccount(row pgx.Row) (*user.Account, error) {
	var a user.Account
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.Phone, &a.Profile,
		&a.Password, &a.Role, &a.Status, &a.Verified, &a.AppID, &a.DeviceToken,
		&a.Auth.WrongLoginAttempts, &a.Auth.RestrictionLeftAt, &a.Auth.OneTimeCode,
		&a.Auth.ExpiresAt, &a.Auth.LatestRequestAt, &a.Auth.RequestCount, &a.Auth.AuthType,
		&a.Auth.ResetPassword, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

// ========== Lookups ==========

// FindByUsername looks up an active or restricted account. Deleted and
// never-registered accounts are indistinguishable to the caller.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(username) = LOWER($1) AND status IN ('active', 'restricted')
	`
	return scanAccount(r.db.QueryRow(ctx, query, username))
}

// FindByPhone looks up an active or restricted account by phone.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE phone = $1 AND status IN ('active', 'restricted')
	`
	return scanAccount(r.db.QueryRow(ctx, query, phone))
}

// FindByEmailAnyStatus looks up an account across every lifecycle status.
// Used by the admin login surface only.
func (r *UserRepository) FindByEmailAnyStatus(ctx context.Context, email string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

// FindByEmailNotDeleted excludes soft-deleted rows, for register/verify.
func (r *UserRepository) FindByEmailNotDeleted(ctx context.Context, email string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1) AND status <> 'deleted'
	`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

// FindByEmailActive looks up an active or restricted account by email.
func (r *UserRepository) FindByEmailActive(ctx context.Context, email string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1) AND status IN ('active', 'restricted')
	`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// FindByAppID looks up a social account by its stable provider identifier.
func (r *UserRepository) FindByAppID(ctx context.Context, appID string) (*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE app_id = $1 AND status IN ('active', 'restricted')
	`
	return scanAccount(r.db.QueryRow(ctx, query, appID))
}

// ========== Creation ==========

// Create inserts a registration-created account with its initial OTP tuple.
// The account starts unverified; the password arrives already hashed.
func (r *UserRepository) Create(ctx context.Context, a *user.Account) error {
	query := `
		INSERT INTO accounts (
			first_name, last_name, username, email, phone, password, role, status,
			verified, one_time_code, otp_expires_at, latest_request_at,
			request_count, auth_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.FirstName, a.LastName, a.Username, a.Email, a.Phone, a.Password,
		a.Role, a.Status, a.Verified, a.Auth.OneTimeCode, a.Auth.ExpiresAt,
		a.Auth.LatestRequestAt, a.Auth.RequestCount, a.Auth.AuthType,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// CreateSocial inserts an always-verified, always-active account keyed by
// the provider identifier. Runs in a transaction with an explicit
// duplicate check so two concurrent first logins cannot both insert.
func (r *UserRepository) CreateSocial(ctx context.Context, appID, deviceToken string) (*user.Account, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE app_id = $1 AND status <> 'deleted')`,
		appID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check app id: %w", err)
	}
	if exists {
		return nil, apierror.ErrDuplicateEntry
	}

	query := `
		INSERT INTO accounts (username, password, role, status, verified, app_id, device_token)
		VALUES ($1, $2, 'user', 'active', TRUE, $2, $3)
		RETURNING ` + accountColumns + `
	`
	// The provider identifier doubles as the password placeholder; social
	// accounts have no password-guessing surface.
	a, err := scanAccount(tx.QueryRow(ctx, query, "u_"+appID, appID, deviceToken))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return a, nil
}

// ========== Login state machine updates ==========

// RecordFailedLogin is the single atomic increment-and-conditional-set for
// a wrong password: the counter bumps, and when the new count reaches the
// limit the row flips to restricted with the given expiry. Concurrent
// wrong-password attempts accumulate correctly because the increment
// happens in the store, not read-modify-write in the handler.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id int64, maxAttempts int, restrictedUntil time.Time) error {
	query := `
		UPDATE accounts SET
			wrong_login_attempts = wrong_login_attempts + 1,
			latest_request_at = NOW(),
			restriction_left_at = CASE
				WHEN wrong_login_attempts + 1 >= $1 THEN $2
				ELSE restriction_left_at
			END,
			status = CASE
				WHEN wrong_login_attempts + 1 >= $1 THEN 'restricted'
				ELSE status
			END,
			updated_at = NOW()
		WHERE id = $3
	`
	if _, err := r.db.Exec(ctx, query, maxAttempts, restrictedUntil, id); err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// RecordSuccessfulLogin clears the lockout bookkeeping, stores the device
// token when one was supplied, and reactivates a formerly restricted
// account in one update. An empty token leaves the stored one untouched;
// admin logins carry none.
func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, id int64, deviceToken string) error {
	query := `
		UPDATE accounts SET
			device_token = COALESCE(NULLIF($1, ''), device_token),
			restriction_left_at = NULL,
			wrong_login_attempts = 0,
			latest_request_at = NOW(),
			status = CASE WHEN status = 'restricted' THEN 'active' ELSE status END,
			updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, deviceToken, id); err != nil {
		return fmt.Errorf("failed to record successful login: %w", err)
	}
	return nil
}

// SetOTP replaces the whole OTP tuple in one update.
func (r *UserRepository) SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time, authType user.AuthType, requestCount int, resetPassword bool) error {
	query := `
		UPDATE accounts SET
			one_time_code = $1,
			otp_expires_at = $2,
			latest_request_at = NOW(),
			request_count = $3,
			auth_type = $4,
			reset_password = $5,
			wrong_login_attempts = 0,
			updated_at = NOW()
		WHERE id = $6
	`
	if _, err := r.db.Exec(ctx, query, code, expiresAt, requestCount, authType, resetPassword, id); err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}
	return nil
}

// BumpOTP issues a fresh code for a resend: new code and expiry, counter
// incremented atomically. Nothing else in the auth state moves.
func (r *UserRepository) BumpOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	query := `
		UPDATE accounts SET
			one_time_code = $1,
			otp_expires_at = $2,
			latest_request_at = NOW(),
			request_count = request_count + 1,
			updated_at = NOW()
		WHERE id = $3
	`
	if _, err := r.db.Exec(ctx, query, code, expiresAt, id); err != nil {
		return fmt.Errorf("failed to bump otp: %w", err)
	}
	return nil
}

// MarkVerified flips the verified flag after a successful OTP check on a
// new account and retires the consumed OTP tuple in the same update.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts SET
			verified = TRUE,
			one_time_code = '',
			otp_expires_at = NULL,
			request_count = 0,
			auth_type = '',
			updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark verified: %w", err)
	}
	return nil
}

// SetResetPending clears the OTP tuple and arms the one-shot reset flag
// after a verified account passes OTP verification for a reset.
func (r *UserRepository) SetResetPending(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts SET
			one_time_code = '',
			otp_expires_at = NULL,
			latest_request_at = NULL,
			request_count = 0,
			auth_type = '',
			reset_password = TRUE,
			updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to set reset pending: %w", err)
	}
	return nil
}

// ResetPassword stores the new hash and zeroes the entire auth state,
// consuming the one-shot reset flag.
func (r *UserRepository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE accounts SET
			password = $1,
			one_time_code = '',
			otp_expires_at = NULL,
			latest_request_at = NULL,
			request_count = 0,
			auth_type = '',
			reset_password = FALSE,
			wrong_login_attempts = 0,
			restriction_left_at = NULL,
			updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// UpdatePassword stores a new hash without touching the auth state.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE accounts SET password = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateDeviceToken refreshes the push target for an existing account.
func (r *UserRepository) UpdateDeviceToken(ctx context.Context, id int64, deviceToken string) error {
	query := `UPDATE accounts SET device_token = NULLIF($1, ''), updated_at = NOW() WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, deviceToken, id); err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}
	return nil
}

// SetStatus flips the lifecycle status (soft delete included).
func (r *UserRepository) SetStatus(ctx context.Context, id int64, status user.Status) error {
	query := `UPDATE accounts SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, status, id); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// ========== Profile ==========

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, req *user.UpdateProfileRequest) error {
	query := `
		UPDATE accounts SET
			first_name = COALESCE(NULLIF($1, ''), first_name),
			last_name = COALESCE(NULLIF($2, ''), last_name),
			profile = COALESCE(NULLIF($3, ''), profile),
			updated_at = NOW()
		WHERE id = $4
	`
	if _, err := r.db.Exec(ctx, query, req.FirstName, req.LastName, req.Profile, id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// List returns non-deleted accounts matching the filter, newest first.
func (r *UserRepository) List(ctx context.Context, f *user.ListFilter) ([]*user.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE status <> 'deleted'
		  AND ($1 = '' OR username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	offset := (f.Page - 1) * f.Limit
	rows, err := r.db.Query(ctx, query, f.SearchTerm, f.Status, f.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*user.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context, f *user.ListFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM accounts
		WHERE status <> 'deleted'
		  AND ($1 = '' OR username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)
	`
	var total int64
	if err := r.db.QueryRow(ctx, query, f.SearchTerm, f.Status).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return total, nil
}

// ExistsByEmail reports whether a non-deleted account holds this email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1) AND status <> 'deleted')`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ExistsByUsername reports whether a non-deleted account holds this
// username, case-insensitively.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1) AND status <> 'deleted')`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}
