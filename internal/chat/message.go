package chat

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation's message list. Optimistic
// messages are locally created and not yet confirmed by the server; they
// carry a LocalID from a separate id space and a zero server ID.
type Message struct {
	// ID is the server-issued message id. Zero while optimistic.
	ID int64

	// LocalID is a locally generated unique id for optimistic messages.
	// Cleared once the message is confirmed.
	LocalID string

	// SenderID is zero when the sender is unknown.
	SenderID   int64
	SenderName string

	Text      string
	CreatedAt time.Time

	Optimistic bool
}

// RenderID returns a stable identity for list rendering: the local id
// while optimistic, the server id once confirmed.
func (m Message) RenderID() string {
	if m.Optimistic {
		return m.LocalID
	}
	return "srv-" + strconv.FormatInt(m.ID, 10)
}

// newOptimistic builds a locally created message awaiting confirmation.
func newOptimistic(text string, senderID int64, senderName string, now time.Time) Message {
	return Message{
		LocalID:    uuid.NewString(),
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		CreatedAt:  now,
		Optimistic: true,
	}
}
