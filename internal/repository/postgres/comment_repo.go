// internal/repository/postgres/comment_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"whispr-service/internal/domain/comment"
	"whispr-service/internal/pkg/apierror"

	"github.com/jackc/pgx/v5"
)

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	query := `
		INSERT INTO comments (message_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, c.MessageID, c.UserID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (*comment.Comment, error) {
	query := `SELECT id, message_id, user_id, body, created_at FROM comments WHERE id = $1`
	var c comment.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.MessageID, &c.UserID, &c.Body, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) ListByMessage(ctx context.Context, messageID int64, limit, offset int) ([]comment.View, error) {
	query := `
		SELECT c.id, c.message_id, c.user_id, c.body, c.created_at,
		       TRIM(a.first_name || ' ' || a.last_name), COALESCE(a.profile, '')
		FROM comments c
		JOIN accounts a ON a.id = c.user_id
		WHERE c.message_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, messageID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var views []comment.View
	for rows.Next() {
		var v comment.View
		if err := rows.Scan(&v.ID, &v.MessageID, &v.UserID, &v.Body, &v.CreatedAt,
			&v.AuthorName, &v.AuthorProfile); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *CommentRepository) CountByMessage(ctx context.Context, messageID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE message_id = $1`, messageID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return total, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
