package channel

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/logging"
)

// eventBuffer bounds the shared stream so link goroutines never block a
// slow consumer indefinitely during shutdown.
const eventBuffer = 256

// Manager owns at most one conversation link and one notification link.
// Open/close/send must be called from a single goroutine (the event
// dispatch loop); the read loops deliver into the stream concurrently.
type Manager struct {
	dialer Dialer
	wsBase string
	token  string

	events chan Event
	conv   *link
	notify *link
	log    zerolog.Logger
}

// NewManager creates a manager dialing against the given websocket base
// URL, attaching the bearer token to every channel-open URL.
func NewManager(dialer Dialer, wsBase, token string) *Manager {
	return &Manager{
		dialer: dialer,
		wsBase: wsBase,
		token:  token,
		events: make(chan Event, eventBuffer),
		log:    logging.Component("channel"),
	}
}

// Events returns the stream of inbound events from both channels, in
// the order the underlying transports deliver them.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// OpenConversation establishes the socket for one conversation,
// replacing any previously open conversation channel first: the old
// link's close event is on the stream before the new link produces
// anything.
func (m *Manager) OpenConversation(kind chat.Kind, chatID int64) error {
	m.CloseConversation()

	u := m.channelURL(conversationPath(string(kind), chatID))
	l, err := openLink(m.dialer, u, SourceConversation, m.events, m.log)
	if err != nil {
		return fmt.Errorf("open conversation channel: %w", err)
	}
	m.conv = l
	return nil
}

// CloseConversation closes and clears the conversation link, if any.
func (m *Manager) CloseConversation() {
	if m.conv != nil {
		m.conv.close()
		m.conv = nil
	}
}

// OpenNotifications establishes the single long-lived user-level
// channel. Opening while one exists replaces it.
func (m *Manager) OpenNotifications() error {
	if m.notify != nil {
		m.notify.close()
		m.notify = nil
	}

	l, err := openLink(m.dialer, m.channelURL(notificationPath), SourceNotification, m.events, m.log)
	if err != nil {
		return fmt.Errorf("open notification channel: %w", err)
	}
	m.notify = l
	return nil
}

// Send forwards a text payload on the open conversation channel. With
// no open channel the payload is silently dropped; the caller is
// responsible for disabling input.
func (m *Manager) Send(text string) {
	if m.conv == nil || m.conv.state() != StateOpen {
		m.log.Debug().Msg("dropping send, no open conversation channel")
		return
	}
	if err := m.conv.writeJSON(outbound{Text: text}); err != nil {
		m.log.Warn().Err(err).Msg("conversation send failed")
		m.CloseConversation()
	}
}

// ConversationOpen reports whether a live conversation link exists. A
// link whose transport already failed reports closed even before its
// close event is drained from the stream.
func (m *Manager) ConversationOpen() bool {
	return m.ConversationState() == StateOpen
}

// ConversationState returns the conversation link's state.
func (m *Manager) ConversationState() State {
	if m.conv == nil {
		return StateClosed
	}
	return m.conv.state()
}

// NotificationState returns the notification link's state.
func (m *Manager) NotificationState() State {
	if m.notify == nil {
		return StateClosed
	}
	return m.notify.state()
}

// Close shuts down both links. The event stream stays open; consumers
// stop after draining the close events.
func (m *Manager) Close() {
	m.CloseConversation()
	if m.notify != nil {
		m.notify.close()
		m.notify = nil
	}
}

func (m *Manager) channelURL(path string) string {
	return m.wsBase + path + "?" + url.Values{"token": {m.token}}.Encode()
}
