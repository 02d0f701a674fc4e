// Package channel owns the lifecycle of the two websocket connections:
// the per-conversation message channel and the user-level notification
// channel. It delivers inbound frames in transport order on a single
// event stream and performs no reordering, buffering beyond the stream,
// or automatic reconnection.
package channel

import "fmt"

// State of a single websocket link.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Source identifies which channel an event arrived on.
type Source int

const (
	SourceConversation Source = iota
	SourceNotification
)

// String returns the lowercase source name.
func (s Source) String() string {
	if s == SourceNotification {
		return "notification"
	}
	return "conversation"
}

// EventKind distinguishes data frames from close signals.
type EventKind int

const (
	// EventFrame carries one raw JSON frame from the transport.
	EventFrame EventKind = iota

	// EventClosed terminates a link's contribution to the stream.
	// Exactly one close event is delivered per opened link, whether the
	// close was requested locally or caused by the transport.
	EventClosed
)

// Event is one item on the manager's event stream.
type Event struct {
	Source Source
	Kind   EventKind

	// Data holds the raw frame payload for EventFrame events.
	Data []byte

	// Err is the close cause for EventClosed events; nil for a
	// locally requested close.
	Err error
}

// Conn is the minimal websocket surface the manager needs. A
// *websocket.Conn from gorilla satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens websocket connections.
type Dialer interface {
	Dial(url string) (Conn, error)
}

// outbound is the send payload on the conversation channel.
type outbound struct {
	Text string `json:"text"`
}

func conversationPath(kind string, chatID int64) string {
	return fmt.Sprintf("/ws/chat/%s/%d/", kind, chatID)
}

const notificationPath = "/ws/notifications/"
