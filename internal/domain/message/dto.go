package message

import "whispr-service/internal/domain/user"

type SendRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

type ListFilter struct {
	IsInbox bool
	Page    int
	Limit   int
	SortDesc bool
}

// Page is a paginated listing of message views.
type Page struct {
	Meta user.Meta `json:"meta"`
	Data []View    `json:"data"`
}
