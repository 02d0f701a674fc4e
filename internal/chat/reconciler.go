package chat

import "time"

// Reconciler owns the ordered message list for the currently active
// conversation. It merges optimistic, confirmed, and duplicate events
// into one consistent sequence. It performs no I/O and never errors;
// malformed events are dropped.
type Reconciler struct {
	msgs []Message
}

// NewReconciler returns an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reset clears the list. Called on every conversation switch; message
// lists are never merged across conversations.
func (r *Reconciler) Reset() {
	r.msgs = nil
}

// SeedHistory replaces the list with server-confirmed history, in the
// order received.
func (r *Reconciler) SeedHistory(history []Message) {
	r.msgs = make([]Message, len(history))
	copy(r.msgs, history)
	for i := range r.msgs {
		r.msgs[i].Optimistic = false
	}
}

// AppendOptimistic appends a locally created message and returns it so
// the interface can render it before network confirmation.
func (r *Reconciler) AppendOptimistic(text string, senderID int64, senderName string, now time.Time) Message {
	msg := newOptimistic(text, senderID, senderName, now)
	r.msgs = append(r.msgs, msg)
	return msg
}

// MergeIncoming integrates one inbound confirmed-message event. It
// reports whether the list changed. Precedence:
//
//  1. An optimistic message with identical text is replaced in place
//     with the confirmed fields. This is a best-effort match: it assumes
//     a user does not send two identical-text messages before the first
//     is confirmed.
//  2. A non-optimistic message with the same server id already in the
//     list means duplicate delivery; the event is discarded.
//  3. Otherwise a new confirmed message is appended.
func (r *Reconciler) MergeIncoming(ev MessageEvent) bool {
	if !ev.Valid() {
		return false
	}

	confirmed := messageFromEvent(ev)

	for i := range r.msgs {
		if r.msgs[i].Optimistic && r.msgs[i].Text == ev.Text {
			r.msgs[i] = confirmed
			return true
		}
	}

	if ev.ID != 0 {
		for i := range r.msgs {
			if !r.msgs[i].Optimistic && r.msgs[i].ID == ev.ID {
				return false
			}
		}
	}

	r.msgs = append(r.msgs, confirmed)
	return true
}

// Messages returns a copy of the owned list.
func (r *Reconciler) Messages() []Message {
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Len returns the number of messages in the list.
func (r *Reconciler) Len() int {
	return len(r.msgs)
}

func messageFromEvent(ev MessageEvent) Message {
	var senderID int64
	if ev.SenderID != nil {
		senderID = *ev.SenderID
	}
	return Message{
		ID:         ev.ID,
		SenderID:   senderID,
		SenderName: ev.Sender,
		Text:       ev.Text,
		CreatedAt:  ParseEventTime(ev.CreatedAt, time.Now()),
	}
}
