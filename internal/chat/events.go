package chat

import (
	"encoding/json"
	"time"
)

// Notification event discriminators on the user-level channel.
const (
	EventGroupAdded      = "group_added"
	EventMessageReceived = "message_received"
)

// MessageEvent is one decoded frame from a conversation channel.
type MessageEvent struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	SenderID  *int64 `json:"sender_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// Valid reports whether the event is a recognized chat message. Frames
// with no text and no recognized type are dropped by the reconciler.
func (e MessageEvent) Valid() bool {
	return e.Type == "chat.message" || e.Text != ""
}

// DecodeMessageEvent parses a raw conversation-channel frame.
func DecodeMessageEvent(data []byte) (MessageEvent, error) {
	var ev MessageEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return MessageEvent{}, err
	}
	return ev, nil
}

// NotificationEvent is one decoded frame from the notification channel.
// The Event field discriminates: group_added carries the Group* fields,
// message_received carries the Chat*/Sender*/Text fields.
type NotificationEvent struct {
	Event string `json:"event"`

	GroupID         int64  `json:"group_id"`
	GroupName       string `json:"group_name"`
	AddedByID       int64  `json:"added_by_id"`
	AddedByUsername string `json:"added_by_username"`

	ChatType  string `json:"chat_type"`
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	SenderID  int64  `json:"sender_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// DecodeNotificationEvent parses a raw notification-channel frame.
func DecodeNotificationEvent(data []byte) (NotificationEvent, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return NotificationEvent{}, err
	}
	return ev, nil
}

// ParseEventTime parses a wire timestamp, falling back to now for
// missing or unparseable values so ordering state never goes backwards
// to the zero time.
func ParseEventTime(raw string, now time.Time) time.Time {
	if raw == "" {
		return now
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}
