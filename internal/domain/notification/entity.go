package notification

import "time"

// Notification is a persisted in-app notification, additionally pushed
// over the realtime hub on a best-effort basis.
type Notification struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	SenderID   int64     `json:"senderId,omitempty"`
	SenderName string    `json:"senderName,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}
