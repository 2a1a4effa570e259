package feed

import (
	"sync"

	"github.com/realiefan/note-exte/types"
)

// Epoch owns the timeline for one subscription's lifetime. It is created
// empty when a subscription starts and discarded wholesale when the filter
// changes; notes never carry over between epochs. All mutation goes through
// Insert, so observers only ever see fully ordered, deduplicated snapshots.
type Epoch struct {
	mu     sync.Mutex
	items  []types.Note
	max    int
	closed bool
}

// NewEpoch creates an empty epoch. max bounds the timeline length (oldest
// notes dropped first); max <= 0 means unbounded.
func NewEpoch(max int) *Epoch {
	return &Epoch{max: max}
}

// Insert merges one arrived note into the timeline. Returns false if the
// note was a duplicate or the epoch is already closed; late deliveries after
// Close are silently dropped.
func (e *Epoch) Insert(n types.Note) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}

	merged := Insert(e.items, n)
	if len(merged) == len(e.items) {
		return false
	}
	e.items = Trim(merged, e.max)
	return true
}

// Snapshot returns a copy of the current timeline, safe to hand to a
// consumer while inserts continue.
func (e *Epoch) Snapshot() []types.Note {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Note, len(e.items))
	copy(out, e.items)
	return out
}

// Len returns the current timeline length.
func (e *Epoch) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// Close ends the epoch. Idempotent; any insert delivered afterwards is
// ignored.
func (e *Epoch) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
