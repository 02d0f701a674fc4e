package chat

// UnreadLedger maps conversation keys to unread counts. Absence is zero:
// clearing removes the entry rather than storing a zero, and both states
// read back identically.
type UnreadLedger struct {
	counts map[Key]int
}

// NewUnreadLedger returns an empty ledger.
func NewUnreadLedger() *UnreadLedger {
	return &UnreadLedger{counts: make(map[Key]int)}
}

// Increment adds one to the key's count, creating the entry if absent.
func (l *UnreadLedger) Increment(key Key) {
	l.counts[key]++
}

// Clear removes the entry for the key.
func (l *UnreadLedger) Clear(key Key) {
	delete(l.counts, key)
}

// Get returns the stored count, or zero when the key has no entry.
func (l *UnreadLedger) Get(key Key) int {
	return l.counts[key]
}

// Total returns the sum of all unread counts.
func (l *UnreadLedger) Total() int {
	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}
