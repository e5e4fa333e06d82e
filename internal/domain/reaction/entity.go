package reaction

import "time"

// Reaction is one user's reaction to a message. A user has at most one
// reaction per message; reacting again replaces the previous type.
type Reaction struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"messageId"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Types allowed on a message.
var Types = []string{"heart", "fire", "laugh", "sad", "wow"}

// ValidType reports whether t is an allowed reaction type.
func ValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

type ReactRequest struct {
	MessageID int64  `json:"messageId" binding:"required"`
	Type      string `json:"type" binding:"required"`
}
