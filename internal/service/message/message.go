// internal/service/message/message.go
package message

import (
	"context"
	"errors"

	"whispr-service/internal/domain/message"
	"whispr-service/internal/domain/notification"
	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the message repository slice the service needs.
type Store interface {
	RandomActiveRecipient(ctx context.Context, excludeID int64) (int64, error)
	Create(ctx context.Context, m *message.Message) error
	Get(ctx context.Context, id int64) (*message.Message, error)
	ListForUser(ctx context.Context, userID int64, inboxOnly bool, limit, offset int) ([]message.View, error)
	CountForUser(ctx context.Context, userID int64, inboxOnly bool) (int64, error)
	ListFeed(ctx context.Context, limit, offset int) ([]message.View, error)
	CountFeed(ctx context.Context) (int64, error)
	MarkShared(ctx context.Context, id int64) error
}

// Notifier delivers in-app notifications. Failures stay inside it.
type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification)
}

// Service implements the anonymous pairing flow: a sent message lands in
// a randomly chosen active account's inbox, and only the receiver can
// publish it to the shared feed.
type Service struct {
	messages Store
	notifier Notifier
	logger   *zap.Logger
}

func NewService(messages Store, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{messages: messages, notifier: notifier, logger: logger}
}

// Send pairs the message with a random active recipient and stores it.
func (s *Service) Send(ctx context.Context, senderID int64, req *message.SendRequest) (*message.Message, error) {
	receiverID, err := s.messages.RandomActiveRecipient(ctx, senderID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("No one is available to receive your whisper right now.")
		}
		s.logger.Error("recipient pairing failed", zap.Int64("senderId", senderID), zap.Error(err))
		return nil, apierror.Internal()
	}

	m := &message.Message{
		PublicID: uuid.NewString(),
		SenderID: senderID,
		Receiver: receiverID,
		Body:     req.Message,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		s.logger.Error("message write failed", zap.Int64("senderId", senderID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.logger.Info("message paired",
		zap.Int64("messageId", m.ID),
		zap.Int64("senderId", senderID),
		zap.Int64("receiverId", receiverID),
	)

	// The sender stays anonymous in the notification.
	s.notifier.Notify(ctx, &notification.Notification{
		UserID: receiverID,
		Title:  "New whisper",
		Body:   "Someone sent you an anonymous whisper.",
	})
	return m, nil
}

// List pages through a user's inbox or sent messages. Listing and total
// are independent queries and run concurrently.
func (s *Service) List(ctx context.Context, userID int64, f *message.ListFilter) (*message.Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	var (
		total    int64
		countErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		total, countErr = s.messages.CountForUser(ctx, userID, f.IsInbox)
	}()
	views, listErr := s.messages.ListForUser(ctx, userID, f.IsInbox, f.Limit, (f.Page-1)*f.Limit)
	<-done

	if listErr != nil {
		s.logger.Error("message listing failed", zap.Int64("userId", userID), zap.Error(listErr))
		return nil, apierror.Internal()
	}
	if countErr != nil {
		s.logger.Error("message counting failed", zap.Int64("userId", userID), zap.Error(countErr))
		return nil, apierror.Internal()
	}

	// Inbox entries hide the sender until the message is shared.
	for i := range views {
		if !views[i].IsShared && views[i].Sender.ID != userID {
			views[i].Sender = message.Participant{FirstName: "Anonymous"}
		}
	}
	return &message.Page{Meta: user.NewMeta(f.Page, f.Limit, total), Data: views}, nil
}

// Feed pages through publicly shared messages, newest first.
func (s *Service) Feed(ctx context.Context, page, limit int) (*message.Page, error) {
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
		total, countErr = s.messages.CountFeed(ctx)
	}()
	views, listErr := s.messages.ListFeed(ctx, limit, (page-1)*limit)
	<-done

	if listErr != nil {
		s.logger.Error("feed listing failed", zap.Error(listErr))
		return nil, apierror.Internal()
	}
	if countErr != nil {
		s.logger.Error("feed counting failed", zap.Error(countErr))
		return nil, apierror.Internal()
	}
	return &message.Page{Meta: user.NewMeta(page, limit, total), Data: views}, nil
}

// Share publishes a received message to the feed. Only the receiver may
// share; sharing reveals the sender's identity on the shared copy.
func (s *Service) Share(ctx context.Context, userID, messageID int64) (*message.Message, error) {
	m, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("Message not found.")
		}
		s.logger.Error("message lookup failed", zap.Int64("messageId", messageID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if m.Receiver != userID {
		return nil, apierror.NotAuthorized("Only the receiver can share a whisper.")
	}
	if m.IsShared {
		return nil, apierror.BadRequest("The message you are trying to share is already shared.")
	}

	if err := s.messages.MarkShared(ctx, m.ID); err != nil {
		s.logger.Error("share update failed", zap.Int64("messageId", m.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	m.IsShared = true

	s.notifier.Notify(ctx, &notification.Notification{
		UserID:   m.SenderID,
		SenderID: userID,
		Title:    "Whisper shared",
		Body:     "Your whisper was shared to the public feed.",
	})
	return m, nil
}
