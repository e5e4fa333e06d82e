// internal/service/reaction/reaction.go
package reaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"whispr-service/internal/domain/message"
	"whispr-service/internal/domain/notification"
	"whispr-service/internal/domain/reaction"
	"whispr-service/internal/pkg/apierror"

	"go.uber.org/zap"
)

type Store interface {
	Upsert(ctx context.Context, rx *reaction.Reaction) error
	Delete(ctx context.Context, messageID, userID int64) error
	ListByMessage(ctx context.Context, messageID int64) ([]reaction.Reaction, error)
}

type MessageStore interface {
	Get(ctx context.Context, id int64) (*message.Message, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification)
}

type Service struct {
	reactions Store
	messages  MessageStore
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(reactions Store, messages MessageStore, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{reactions: reactions, messages: messages, notifier: notifier, logger: logger}
}

// React records or replaces the caller's reaction. Reactions are allowed
// on shared messages and, for the participants, on private ones.
func (s *Service) React(ctx context.Context, userID int64, req *reaction.ReactRequest) (*reaction.Reaction, error) {
	if !reaction.ValidType(req.Type) {
		return nil, apierror.BadRequest(fmt.Sprintf(
			"Reaction type must be one of: %s.", strings.Join(reaction.Types, ", ")))
	}

	m, err := s.fetchReactable(ctx, req.MessageID, userID)
	if err != nil {
		return nil, err
	}

	rx := &reaction.Reaction{MessageID: m.ID, UserID: userID, Type: req.Type}
	if err := s.reactions.Upsert(ctx, rx); err != nil {
		s.logger.Error("reaction write failed", zap.Int64("messageId", m.ID), zap.Error(err))
		return nil, apierror.Internal()
	}

	if userID != m.Receiver {
		s.notifier.Notify(ctx, &notification.Notification{
			UserID:   m.Receiver,
			SenderID: userID,
			Title:    "New reaction",
			Body:     fmt.Sprintf("Someone reacted %s to a whisper you received.", req.Type),
		})
	}
	return rx, nil
}

// Unreact removes the caller's reaction if one exists.
func (s *Service) Unreact(ctx context.Context, userID, messageID int64) error {
	if _, err := s.fetchReactable(ctx, messageID, userID); err != nil {
		return err
	}
	if err := s.reactions.Delete(ctx, messageID, userID); err != nil {
		s.logger.Error("reaction delete failed", zap.Int64("messageId", messageID), zap.Error(err))
		return apierror.Internal()
	}
	return nil
}

func (s *Service) List(ctx context.Context, messageID int64) ([]reaction.Reaction, error) {
	items, err := s.reactions.ListByMessage(ctx, messageID)
	if err != nil {
		s.logger.Error("reaction listing failed", zap.Int64("messageId", messageID), zap.Error(err))
		return nil, apierror.Internal()
	}
	return items, nil
}

func (s *Service) fetchReactable(ctx context.Context, messageID, userID int64) (*message.Message, error) {
	m, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("Message not found.")
		}
		s.logger.Error("message lookup failed", zap.Int64("messageId", messageID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if !m.IsShared && m.SenderID != userID && m.Receiver != userID {
		return nil, apierror.NotAuthorized("You cannot react to this message.")
	}
	return m, nil
}
