// internal/repository/postgres/message_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"whispr-service/internal/domain/message"
	"whispr-service/internal/pkg/apierror"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// RandomActiveRecipient picks a uniformly random active account other than
// the sender. Returns NotFound when the sender is the only active user.
func (r *MessageRepository) RandomActiveRecipient(ctx context.Context, excludeID int64) (int64, error) {
	query := `
		SELECT id FROM accounts
		WHERE id <> $1 AND status = 'active'
		ORDER BY random()
		LIMIT 1
	`
	var id int64
	err := r.db.QueryRow(ctx, query, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apierror.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to pick recipient: %w", err)
	}
	return id, nil
}

func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	query := `
		INSERT INTO messages (public_id, sender_id, receiver_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, m.PublicID, m.SenderID, m.Receiver, m.Body).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, id int64) (*message.Message, error) {
	query := `
		SELECT id, public_id, sender_id, receiver_id, body, is_shared, deleted_by, created_at, updated_at
		FROM messages WHERE id = $1
	`
	var m message.Message
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.PublicID, &m.SenderID, &m.Receiver, &m.Body, &m.IsShared,
		pq.Array(&m.DeletedBy), &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

const viewColumns = `
	m.id, m.public_id, m.body, m.is_shared, m.created_at,
	s.id, s.first_name, s.last_name, COALESCE(s.profile, ''),
	rc.id, rc.first_name, rc.last_name, COALESCE(rc.profile, '')
`

const viewJoins = `
	JOIN accounts s ON s.id = m.sender_id
	JOIN accounts rc ON rc.id = m.receiver_id
`

func scanView(rows pgx.Rows) (message.View, error) {
	var v message.View
	err := rows.Scan(
		&v.ID, &v.PublicID, &v.Body, &v.IsShared, &v.CreatedAt,
		&v.Sender.ID, &v.Sender.FirstName, &v.Sender.LastName, &v.Sender.Profile,
		&v.Receiver.ID, &v.Receiver.FirstName, &v.Receiver.LastName, &v.Receiver.Profile,
	)
	return v, err
}

func (r *MessageRepository) collectViews(ctx context.Context, query string, args ...any) ([]message.View, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var views []message.View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ListForUser returns the user's messages: inbox only, or everything they
// sent or received.
func (r *MessageRepository) ListForUser(ctx context.Context, userID int64, inboxOnly bool, limit, offset int) ([]message.View, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM messages m ` + viewJoins + `
		WHERE (m.receiver_id = $1 OR ($2 = FALSE AND m.sender_id = $1))
		ORDER BY m.created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.collectViews(ctx, query, userID, inboxOnly, limit, offset)
}

func (r *MessageRepository) CountForUser(ctx context.Context, userID int64, inboxOnly bool) (int64, error) {
	query := `
		SELECT COUNT(*) FROM messages m
		WHERE (m.receiver_id = $1 OR ($2 = FALSE AND m.sender_id = $1))
	`
	var total int64
	if err := r.db.QueryRow(ctx, query, userID, inboxOnly).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return total, nil
}

// ListFeed returns shared, not-deleted messages for the public feed.
func (r *MessageRepository) ListFeed(ctx context.Context, limit, offset int) ([]message.View, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM messages m ` + viewJoins + `
		WHERE m.is_shared AND cardinality(m.deleted_by) = 0
		ORDER BY m.created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.collectViews(ctx, query, limit, offset)
}

func (r *MessageRepository) CountFeed(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages m WHERE m.is_shared AND cardinality(m.deleted_by) = 0`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed: %w", err)
	}
	return total, nil
}

// MarkShared publishes a message to the feed.
func (r *MessageRepository) MarkShared(ctx context.Context, id int64) error {
	query := `UPDATE messages SET is_shared = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to share message: %w", err)
	}
	return nil
}
