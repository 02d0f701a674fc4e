package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func i64(n int64) *int64 { return &n }

func TestReconciler_SeedHistoryReplacesList(t *testing.T) {
	r := NewReconciler()
	r.AppendOptimistic("stale", 1, "alice", time.Now())

	r.SeedHistory([]Message{
		{ID: 1, SenderID: 2, SenderName: "bob", Text: "hey"},
		{ID: 2, SenderID: 1, SenderName: "alice", Text: "hi"},
	})

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, int64(1), msgs[0].ID)
	for _, m := range msgs {
		require.False(t, m.Optimistic)
	}
}

func TestReconciler_OptimisticReconciliation(t *testing.T) {
	r := NewReconciler()
	r.AppendOptimistic("hello", 7, "alice", time.Now())

	changed := r.MergeIncoming(MessageEvent{
		Type:      "chat.message",
		ID:        99,
		SenderID:  i64(7),
		Sender:    "alice",
		Text:      "hello",
		CreatedAt: "2026-09-01T12:00:00Z",
	})

	require.True(t, changed)
	msgs := r.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, int64(99), msgs[0].ID)
	require.False(t, msgs[0].Optimistic)
	require.Empty(t, msgs[0].LocalID)
}

func TestReconciler_DuplicateDeliveryDiscarded(t *testing.T) {
	r := NewReconciler()
	r.SeedHistory([]Message{{ID: 5, Text: "first"}})

	changed := r.MergeIncoming(MessageEvent{Type: "chat.message", ID: 5, Text: "first"})

	require.False(t, changed)
	msgs := r.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, int64(5), msgs[0].ID)
}

func TestReconciler_NewMessageAppended(t *testing.T) {
	r := NewReconciler()
	r.SeedHistory([]Message{{ID: 1, Text: "a"}})

	changed := r.MergeIncoming(MessageEvent{Type: "chat.message", ID: 2, Sender: "bob", Text: "b"})

	require.True(t, changed)
	require.Equal(t, 2, r.Len())
	require.Equal(t, "b", r.Messages()[1].Text)
}

func TestReconciler_MalformedEventDropped(t *testing.T) {
	r := NewReconciler()
	r.SeedHistory([]Message{{ID: 1, Text: "a"}})

	changed := r.MergeIncoming(MessageEvent{Type: "presence.ping"})

	require.False(t, changed)
	require.Equal(t, 1, r.Len())
}

func TestReconciler_OptimisticMatchTakesPrecedenceOverDedup(t *testing.T) {
	// An optimistic entry with matching text is replaced even when the
	// event's id is already present, mirroring the merge precedence.
	r := NewReconciler()
	r.SeedHistory([]Message{{ID: 10, Text: "other"}})
	r.AppendOptimistic("ping", 1, "alice", time.Now())

	require.True(t, r.MergeIncoming(MessageEvent{Type: "chat.message", ID: 11, SenderID: i64(1), Sender: "alice", Text: "ping"}))

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, int64(11), msgs[1].ID)
	require.False(t, msgs[1].Optimistic)
}

func TestReconciler_ResetClearsList(t *testing.T) {
	r := NewReconciler()
	r.SeedHistory([]Message{{ID: 1, Text: "a"}})
	r.Reset()
	require.Zero(t, r.Len())
}

func TestDecodeMessageEvent(t *testing.T) {
	ev, err := DecodeMessageEvent([]byte(`{"type":"chat.message","id":3,"sender_id":9,"sender":"bob","text":"yo","created_at":"2026-09-01T10:00:00Z"}`))
	require.NoError(t, err)
	require.True(t, ev.Valid())
	require.Equal(t, int64(3), ev.ID)
	require.Equal(t, int64(9), *ev.SenderID)

	_, err = DecodeMessageEvent([]byte(`{not json`))
	require.Error(t, err)
}

func TestParseEventTime_Fallback(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	parsed := ParseEventTime("2026-08-31T09:30:00Z", now)
	require.Equal(t, 2026, parsed.Year())
	require.Equal(t, time.August, parsed.Month())

	// Django's isoformat omits the zone on naive datetimes.
	parsed = ParseEventTime("2026-08-31T09:30:00.123456", now)
	require.Equal(t, 30, parsed.Minute())

	require.Equal(t, now, ParseEventTime("", now))
	require.Equal(t, now, ParseEventTime("not-a-time", now))
}
