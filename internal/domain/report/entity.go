package report

import "time"

// Report is a complaint filed against a message or a user. Reference is
// an opaque id handed back to the reporter for support follow-up.
type Report struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	ReporterID int64     `json:"reporterId"`
	MessageID  int64     `json:"messageId,omitempty"`
	UserID     int64     `json:"userId,omitempty"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateRequest struct {
	MessageID int64  `json:"messageId"`
	UserID    int64  `json:"userId"`
	Reason    string `json:"reason" binding:"required"`
	Details   string `json:"details"`
}
