package comment

import (
	"time"

	"whispr-service/internal/domain/user"
)

// Comment is a reply on a shared message. Only shared messages accept
// comments; the author may delete their own.
type Comment struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"messageId"`
	UserID    int64     `json:"userId"`
	Body      string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is a comment joined with its author's public fields.
type View struct {
	Comment
	AuthorName    string `json:"authorName"`
	AuthorProfile string `json:"authorProfile,omitempty"`
}

type CreateRequest struct {
	MessageID int64  `json:"messageId" binding:"required"`
	Comment   string `json:"comment" binding:"required,max=1000"`
}

// Page is a paginated comment listing.
type Page struct {
	Meta user.Meta `json:"meta"`
	Data []View    `json:"data"`
}
