package chat

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/logging"
)

// User is a roster entry for a known counterpart.
type User struct {
	ID        int64
	Username  string
	AvatarURL string
}

// Group is a roster entry for a group the user belongs to.
type Group struct {
	ID   int64
	Name string
}

// ChannelSession is the slice of the channel session manager the
// controller drives. At most one conversation channel is open at a time;
// ConversationOpen reports whether a live one exists, and the controller
// never hands Send a payload without checking it first.
type ChannelSession interface {
	OpenConversation(kind Kind, chatID int64) error
	CloseConversation()
	ConversationOpen() bool
	Send(text string)
}

// Notifier receives platform-level notification requests for background
// message events.
type Notifier interface {
	Notify(title, body string)
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

// Notify implements Notifier.
func (NoopNotifier) Notify(string, string) {}

// Epoch tags a pending conversation selection. A history fetch that
// resolves after another selection began carries a stale epoch and is
// discarded instead of being applied to the new conversation.
type Epoch uint64

// Controller owns the active conversation, the roster, and the
// synchronization state (reconciler, unread ledger, recency tracker,
// toast scheduler). All methods must be called from a single
// event-processing goroutine; mutations run to completion before the
// next event is handled.
type Controller struct {
	session  ChannelSession
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger

	self   User
	users  []User
	groups []Group

	active *ConversationRef
	epoch  Epoch

	// lastErr is the visible, non-fatal failure tied to the most recent
	// attempted action. Cleared on the next selection.
	lastErr string

	rec     *Reconciler
	unread  *UnreadLedger
	recency *RecencyTracker
	toasts  *ToastScheduler
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithNotifier sets the platform notification hook.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithToastTTL sets the toast display duration.
func WithToastTTL(ttl time.Duration) Option {
	return func(c *Controller) { c.toasts = NewToastScheduler(ttl) }
}

// NewController creates a controller bound to a channel session.
func NewController(session ChannelSession, opts ...Option) *Controller {
	c := &Controller{
		session:  session,
		notifier: NoopNotifier{},
		now:      time.Now,
		log:      logging.Component("controller"),
		rec:      NewReconciler(),
		unread:   NewUnreadLedger(),
		recency:  NewRecencyTracker(),
		toasts:   NewToastScheduler(DefaultToastTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSelf records the authenticated user's identity, used to stamp
// optimistic messages.
func (c *Controller) SetSelf(u User) {
	c.self = u
}

// Self returns the authenticated user.
func (c *Controller) Self() User {
	return c.self
}

// SetRoster replaces the known users and groups.
func (c *Controller) SetRoster(users []User, groups []Group) {
	c.users = filterSelf(users, c.self.ID)
	c.groups = append([]Group(nil), groups...)
}

// AddGroup appends a group to the roster if it is not already known.
// Reports whether the roster changed.
func (c *Controller) AddGroup(g Group) bool {
	for _, known := range c.groups {
		if known.ID == g.ID {
			return false
		}
	}
	c.groups = append(c.groups, g)
	return true
}

// Users returns the roster ordered by recency of direct activity.
func (c *Controller) Users() []User {
	return OrderByRecency(c.recency, c.users, func(u User) Key { return UserKey(u.ID) })
}

// Groups returns the group roster ordered by recency.
func (c *Controller) Groups() []Group {
	return OrderByRecency(c.recency, c.groups, func(g Group) Key { return GroupKey(g.ID) })
}

// BeginSelect tears down the previous conversation and marks ref as the
// active selection, not yet resolved. It returns the epoch the caller
// must present to CompleteSelect once the history fetch finishes. The
// interface can render a connecting state immediately after this call.
func (c *Controller) BeginSelect(ref ConversationRef) Epoch {
	c.session.CloseConversation()
	c.rec.Reset()
	c.lastErr = ""

	if ref.Kind == KindDirect {
		ref.ChatID = 0
		ref.Resolved = false
	}
	c.active = &ref
	c.epoch++

	c.recency.Touch(ref.Key(), c.now())
	return c.epoch
}

// CompleteSelect applies the result of the history fetch started after
// BeginSelect. A stale epoch means the user switched conversations while
// the fetch was in flight; the result is discarded without side effects.
// On success the history is seeded, the conversation id resolved, unread
// state cleared, and the conversation channel opened. On failure the
// conversation stays selected but empty, with no automatic retry.
func (c *Controller) CompleteSelect(epoch Epoch, chatID int64, history []Message, fetchErr error) {
	if epoch != c.epoch || c.active == nil {
		c.log.Debug().Uint64("epoch", uint64(epoch)).Msg("discarding stale selection result")
		return
	}

	if fetchErr != nil {
		c.lastErr = fetchErr.Error()
		c.log.Warn().Err(fetchErr).Str("conversation", string(c.active.Key())).Msg("history fetch failed")
		return
	}

	c.rec.SeedHistory(history)
	c.active.ChatID = chatID
	c.active.Resolved = true
	c.unread.Clear(c.active.Key())

	if err := c.session.OpenConversation(c.active.Kind, chatID); err != nil {
		c.lastErr = err.Error()
		c.log.Warn().Err(err).Str("conversation", string(c.active.Key())).Msg("channel open failed")
	}
}

// Deselect closes the active conversation and clears the selection.
func (c *Controller) Deselect() {
	c.session.CloseConversation()
	c.rec.Reset()
	c.active = nil
	c.epoch++
}

// ActiveRef returns a copy of the active conversation ref, or false when
// nothing is selected.
func (c *Controller) ActiveRef() (ConversationRef, bool) {
	if c.active == nil {
		return ConversationRef{}, false
	}
	return *c.active, true
}

// Err returns the visible failure for the last attempted action.
func (c *Controller) Err() string {
	return c.lastErr
}

// SendMessage appends an optimistic message and forwards the text on the
// conversation channel. Empty or whitespace-only text, an unresolved
// selection, or a closed conversation channel is a no-op: an optimistic
// entry with no wire payload behind it could never be confirmed. Reports
// whether a message was sent.
func (c *Controller) SendMessage(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if c.active == nil || !c.active.Resolved {
		return false
	}
	if !c.session.ConversationOpen() {
		c.log.Debug().Str("conversation", string(c.active.Key())).Msg("send refused, channel not open")
		return false
	}

	c.rec.AppendOptimistic(text, c.self.ID, c.self.Username, c.now())
	c.session.Send(text)
	return true
}

// HandleConversationEvent merges one inbound conversation-channel event
// into the active message list.
func (c *Controller) HandleConversationEvent(ev MessageEvent) {
	if c.active == nil {
		return
	}
	c.rec.MergeIncoming(ev)
}

// HandleNotificationEvent routes one user-level notification event,
// regardless of the active conversation.
//
// Membership events add unknown groups to the roster, touch their
// recency, and always raise a toast. Message events touch the
// counterpart's recency; unless the active conversation is the direct
// conversation the event belongs to (compared by resolved chat id), the
// unread count is incremented and a toast plus a platform notification
// are raised. When the user is already looking at that conversation both
// are suppressed.
func (c *Controller) HandleNotificationEvent(ev NotificationEvent) {
	now := c.now()

	switch ev.Event {
	case EventGroupAdded:
		c.AddGroup(Group{ID: ev.GroupID, Name: ev.GroupName})
		c.recency.Touch(GroupKey(ev.GroupID), now)
		c.toasts.Show(Toast{
			Title:          "Added to " + ev.GroupName,
			Body:           "by " + ev.AddedByUsername,
			ConversationID: ev.GroupID,
		}, now)

	case EventMessageReceived:
		key := UserKey(ev.SenderID)
		c.recency.Touch(key, now)

		if c.activeDirectChat(ev.ChatID) {
			return
		}

		c.unread.Increment(key)
		c.toasts.Show(Toast{
			Title:             ev.Sender,
			Body:              ev.Text,
			CounterpartUserID: ev.SenderID,
			ConversationID:    ev.ChatID,
		}, now)
		c.notifier.Notify(ev.Sender, ev.Text)

	default:
		c.log.Debug().Str("event", ev.Event).Msg("ignoring unknown notification event")
	}
}

// activeDirectChat reports whether the active conversation is the direct
// conversation with the given resolved chat id. An unresolved selection
// never matches: its id is not yet known, so the event is treated as
// background activity.
func (c *Controller) activeDirectChat(chatID int64) bool {
	return c.active != nil &&
		c.active.Kind == KindDirect &&
		c.active.Resolved &&
		c.active.ChatID == chatID
}

// Messages returns the active conversation's message list.
func (c *Controller) Messages() []Message {
	return c.rec.Messages()
}

// Unread returns the unread count for a conversation key.
func (c *Controller) Unread(key Key) int {
	return c.unread.Get(key)
}

// UnreadTotal returns the total unread count across conversations.
func (c *Controller) UnreadTotal() int {
	return c.unread.Total()
}

// Toasts returns the live toasts in insertion order.
func (c *Controller) Toasts() []Toast {
	return c.toasts.List()
}

// DismissToast removes a toast immediately.
func (c *Controller) DismissToast(id string) {
	c.toasts.Dismiss(id)
}

// PruneToasts expires old toasts. Driven by the interface tick.
func (c *Controller) PruneToasts(now time.Time) {
	c.toasts.Prune(now)
}

func filterSelf(users []User, selfID int64) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.ID != selfID {
			out = append(out, u)
		}
	}
	return out
}

