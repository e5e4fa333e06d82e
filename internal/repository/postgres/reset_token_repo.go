// internal/repository/postgres/reset_token_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"whispr-service/internal/domain/auth"
	"whispr-service/internal/pkg/apierror"

	"github.com/jackc/pgx/v5"
)

type ResetTokenRepository struct {
	db *DB
}

func NewResetTokenRepository(db *DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, t *auth.ResetToken) error {
	query := `
		INSERT INTO reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, t.UserID, t.Token, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// Consume deletes the token and returns it, making every reset capability
// strictly single-use: a second reset with the same token finds nothing.
func (r *ResetTokenRepository) Consume(ctx context.Context, token string) (*auth.ResetToken, error) {
	query := `
		DELETE FROM reset_tokens
		WHERE token = $1
		RETURNING id, user_id, token, expires_at, created_at
	`
	var t auth.ResetToken
	err := r.db.QueryRow(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return &t, nil
}
