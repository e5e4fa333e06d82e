// internal/service/comment/comment.go
package comment

import (
	"context"
	"errors"

	"whispr-service/internal/domain/comment"
	"whispr-service/internal/domain/message"
	"whispr-service/internal/domain/notification"
	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"

	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, c *comment.Comment) error
	Get(ctx context.Context, id int64) (*comment.Comment, error)
	ListByMessage(ctx context.Context, messageID int64, limit, offset int) ([]comment.View, error)
	CountByMessage(ctx context.Context, messageID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type MessageStore interface {
	Get(ctx context.Context, id int64) (*message.Message, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification)
}

type Service struct {
	comments Store
	messages MessageStore
	notifier Notifier
	logger   *zap.Logger
}

func NewService(comments Store, messages MessageStore, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{comments: comments, messages: messages, notifier: notifier, logger: logger}
}

// Create adds a comment to a shared message. Private messages accept no
// comments, not even from the participants.
func (s *Service) Create(ctx context.Context, userID int64, req *comment.CreateRequest) (*comment.Comment, error) {
	m, err := s.messages.Get(ctx, req.MessageID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("Message not found.")
		}
		s.logger.Error("message lookup failed", zap.Int64("messageId", req.MessageID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if !m.IsShared {
		return nil, apierror.BadRequest("Comments are only allowed on shared messages.")
	}

	c := &comment.Comment{MessageID: m.ID, UserID: userID, Body: req.Comment}
	if err := s.comments.Create(ctx, c); err != nil {
		s.logger.Error("comment write failed", zap.Int64("messageId", m.ID), zap.Error(err))
		return nil, apierror.Internal()
	}

	if userID != m.Receiver {
		s.notifier.Notify(ctx, &notification.Notification{
			UserID:   m.Receiver,
			SenderID: userID,
			Title:    "New comment",
			Body:     "Someone commented on a whisper you shared.",
		})
	}
	return c, nil
}

// List pages through a message's comments, oldest first. Listing and
// total run concurrently.
func (s *Service) List(ctx context.Context, messageID int64, page, limit int) (*comment.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var (
		total    int64
		countErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		total, countErr = s.comments.CountByMessage(ctx, messageID)
	}()
	views, listErr := s.comments.ListByMessage(ctx, messageID, limit, (page-1)*limit)
	<-done

	if listErr != nil {
		s.logger.Error("comment listing failed", zap.Int64("messageId", messageID), zap.Error(listErr))
		return nil, apierror.Internal()
	}
	if countErr != nil {
		s.logger.Error("comment counting failed", zap.Int64("messageId", messageID), zap.Error(countErr))
		return nil, apierror.Internal()
	}
	return &comment.Page{Meta: user.NewMeta(page, limit, total), Data: views}, nil
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, userID int64, isAdmin bool, commentID int64) error {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return apierror.NotFound("Comment not found.")
		}
		s.logger.Error("comment lookup failed", zap.Int64("commentId", commentID), zap.Error(err))
		return apierror.Internal()
	}
	if c.UserID != userID && !isAdmin {
		return apierror.NotAuthorized("You cannot delete this comment.")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		s.logger.Error("comment delete failed", zap.Int64("commentId", commentID), zap.Error(err))
		return apierror.Internal()
	}
	return nil
}
