// internal/repository/postgres/reaction_repo.go
package postgres

import (
	"context"
	"fmt"

	"whispr-service/internal/domain/reaction"
)

type ReactionRepository struct {
	db *DB
}

func NewReactionRepository(db *DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Upsert stores the user's reaction, replacing any previous type. One
// reaction per user per message is enforced by the unique index.
func (r *ReactionRepository) Upsert(ctx context.Context, rx *reaction.Reaction) error {
	query := `
		INSERT INTO reactions (message_id, user_id, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id)
		DO UPDATE SET type = EXCLUDED.type, created_at = NOW()
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, rx.MessageID, rx.UserID, rx.Type).Scan(&rx.ID, &rx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

func (r *ReactionRepository) Delete(ctx context.Context, messageID, userID int64) error {
	query := `DELETE FROM reactions WHERE message_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, messageID, userID); err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	return nil
}

func (r *ReactionRepository) ListByMessage(ctx context.Context, messageID int64) ([]reaction.Reaction, error) {
	query := `
		SELECT id, message_id, user_id, type, created_at
		FROM reactions
		WHERE message_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []reaction.Reaction
	for rows.Next() {
		var rx reaction.Reaction
		if err := rows.Scan(&rx.ID, &rx.MessageID, &rx.UserID, &rx.Type, &rx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, rx)
	}
	return reactions, rows.Err()
}
