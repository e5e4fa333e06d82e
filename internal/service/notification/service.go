// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"whispr-service/internal/domain/notification"
	"whispr-service/internal/pkg/apierror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const unreadCacheTTL = 5 * time.Minute

func unreadKey(userID int64) string {
	return fmt.Sprintf("notif:unread:%d", userID)
}

func userChannel(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *notification.Notification) error
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]notification.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkAllRead(ctx context.Context, userID int64) error
}

// Events is the realtime push collaborator. Emit never blocks the caller
// and never fails the surrounding flow.
type Events interface {
	Emit(channel string, payload any)
}

// Service persists notifications and pushes them over the realtime hub.
// The unread count is cached in redis and invalidated on every write.
type Service struct {
	store  Store
	events Events
	rdb    *redis.Client
	logger *zap.Logger
}

func NewService(store Store, events Events, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{store: store, events: events, rdb: rdb, logger: logger}
}

// Notify stores the notification and pushes it to the recipient. Push and
// cache failures are logged, never surfaced; the stored row is the truth.
func (s *Service) Notify(ctx context.Context, n *notification.Notification) {
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("notification write failed",
			zap.Int64("userId", n.UserID),
			zap.Error(err),
		)
		return
	}
	s.invalidateUnread(ctx, n.UserID)
	if s.events != nil {
		s.events.Emit(userChannel(n.UserID), n)
	}
}

func (s *Service) List(ctx context.Context, userID int64, page, limit int) ([]notification.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, err := s.store.ListForUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("notification listing failed", zap.Int64("userId", userID), zap.Error(err))
		return nil, apierror.Internal()
	}
	return items, nil
}

// UnreadCount serves from the redis cache when warm, falling back to the
// store and re-priming on a miss.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if s.rdb != nil {
		if v, err := s.rdb.Get(ctx, unreadKey(userID)).Result(); err == nil {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
	}

	n, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Error("unread count failed", zap.Int64("userId", userID), zap.Error(err))
		return 0, apierror.Internal()
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, unreadKey(userID), n, unreadCacheTTL).Err(); err != nil {
			s.logger.Warn("unread cache write failed", zap.Error(err))
		}
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.store.MarkAllRead(ctx, userID); err != nil {
		s.logger.Error("mark all read failed", zap.Int64("userId", userID), zap.Error(err))
		return apierror.Internal()
	}
	s.invalidateUnread(ctx, userID)
	if s.events != nil {
		s.events.Emit(userChannel(userID), map[string]any{"unreadCount": 0})
	}
	return nil
}

func (s *Service) invalidateUnread(ctx context.Context, userID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.logger.Warn("unread cache invalidation failed", zap.Error(err))
	}
}
