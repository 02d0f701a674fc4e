// Package chat implements the client-side synchronization engine: the
// message reconciler, unread ledger, recency tracker, toast scheduler,
// and the session controller that ties them together.
package chat

import "fmt"

// Kind discriminates direct (two-party) from group conversations.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Key identifies a conversation in the unread ledger and recency tracker.
// Notification events reference counterpart user ids and group ids, so the
// key is derived from those, not from the server's chat id. Every reader
// and writer of unread/recency state must go through these constructors.
type Key string

// UserKey returns the ledger key for the direct conversation with a user.
func UserKey(userID int64) Key {
	return Key(fmt.Sprintf("user_%d", userID))
}

// GroupKey returns the ledger key for a group conversation.
func GroupKey(groupID int64) Key {
	return Key(fmt.Sprintf("group_%d", groupID))
}

// ConversationRef identifies the selected conversation. For a direct
// conversation the server-assigned chat id is unknown until the open
// request resolves; Resolved reports whether ChatID is valid.
type ConversationRef struct {
	Kind Kind

	// ID is the counterpart user id for direct conversations and the
	// group id for group conversations.
	ID int64

	// ChatID is the server-assigned conversation id used on the wire.
	// For groups it equals ID as soon as the conversation is selected.
	ChatID   int64
	Resolved bool

	DisplayName string
}

// Key returns the ledger/recency key for this conversation.
func (r ConversationRef) Key() Key {
	if r.Kind == KindGroup {
		return GroupKey(r.ID)
	}
	return UserKey(r.ID)
}

// DirectRef builds an unresolved ref for a direct conversation with a user.
func DirectRef(counterpartID int64, displayName string) ConversationRef {
	return ConversationRef{
		Kind:        KindDirect,
		ID:          counterpartID,
		DisplayName: displayName,
	}
}

// GroupRef builds a ref for a group conversation. Group ids are known up
// front, so the ref is resolved immediately.
func GroupRef(groupID int64, name string) ConversationRef {
	return ConversationRef{
		Kind:        KindGroup,
		ID:          groupID,
		ChatID:      groupID,
		Resolved:    true,
		DisplayName: name,
	}
}
