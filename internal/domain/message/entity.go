package message

import "time"

// Message is one anonymous note sent to a randomly paired receiver. The
// sender's identity is stored but only surfaced once the receiver shares
// the message to the public feed.
type Message struct {
	ID        int64
	PublicID  string
	SenderID  int64
	Receiver  int64
	Body      string
	IsShared  bool
	DeletedBy []int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Participant is the sender/receiver projection attached to listings.
type Participant struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Profile   string `json:"profile,omitempty"`
}

// View is a message joined with both participants.
type View struct {
	ID        int64       `json:"id"`
	PublicID  string      `json:"publicId"`
	Body      string      `json:"message"`
	IsShared  bool        `json:"isShared"`
	Sender    Participant `json:"sender"`
	Receiver  Participant `json:"receiver"`
	CreatedAt time.Time   `json:"createdAt"`
}
