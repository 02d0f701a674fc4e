package chat

import (
	"time"

	"github.com/google/uuid"
)

// DefaultToastTTL is how long a toast stays on screen.
const DefaultToastTTL = 4 * time.Second

// Toast is a transient notification card.
type Toast struct {
	ID    string
	Title string
	Body  string

	// CounterpartUserID is set for message toasts, ConversationID for
	// toasts that reference a resolved conversation.
	CounterpartUserID int64
	ConversationID    int64

	CreatedAt time.Time
}

// ToastScheduler manages a bounded-lifetime set of toasts in insertion
// order. Expiry is driven by Prune rather than per-toast timers, so
// timer-based and user-initiated removal cannot race: removal is a
// set-difference operation, safe to apply twice.
type ToastScheduler struct {
	ttl    time.Duration
	toasts []Toast
}

// NewToastScheduler returns a scheduler with the given display duration.
// A non-positive ttl falls back to DefaultToastTTL.
func NewToastScheduler(ttl time.Duration) *ToastScheduler {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &ToastScheduler{ttl: ttl}
}

// Show creates a toast with a freshly generated id and records its
// creation time. Fire and forget.
func (s *ToastScheduler) Show(t Toast, now time.Time) {
	t.ID = uuid.NewString()
	t.CreatedAt = now
	s.toasts = append(s.toasts, t)
}

// Dismiss removes a toast immediately. Idempotent if already removed.
func (s *ToastScheduler) Dismiss(id string) {
	for i := range s.toasts {
		if s.toasts[i].ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// Prune removes toasts older than the display duration.
func (s *ToastScheduler) Prune(now time.Time) {
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if now.Sub(t.CreatedAt) < s.ttl {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
}

// List returns the live toasts in insertion order.
func (s *ToastScheduler) List() []Toast {
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}
