package chat

import (
	"sort"
	"time"
)

// RecencyTracker maps conversation keys to last-activity timestamps.
// Used only for sidebar ordering, never for message correctness.
type RecencyTracker struct {
	last map[Key]time.Time
}

// NewRecencyTracker returns an empty tracker.
func NewRecencyTracker() *RecencyTracker {
	return &RecencyTracker{last: make(map[Key]time.Time)}
}

// Touch sets the key's timestamp unconditionally. Last write wins: a
// stale late-arriving touch can regress ordering, which is an accepted
// approximation.
func (t *RecencyTracker) Touch(key Key, ts time.Time) {
	t.last[key] = ts
}

// Last returns the tracked timestamp and whether the key has one.
func (t *RecencyTracker) Last(key Key) (time.Time, bool) {
	ts, ok := t.last[key]
	return ts, ok
}

// OrderByRecency sorts items descending by tracked timestamp, ties broken
// by stable input order. Items with no tracked timestamp sort last.
func OrderByRecency[T any](tracker *RecencyTracker, items []T, keyFn func(T) Key) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ti := tracker.last[keyFn(out[i])]
		tj := tracker.last[keyFn(out[j])]
		return ti.After(tj)
	})
	return out
}
