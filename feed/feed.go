// Package feed maintains an in-memory timeline of notes ordered by
// descending creation time. Notes arrive in arbitrary order from multiple
// relays; Insert places each one at its sorted position without re-sorting
// the whole timeline.
package feed

import "github.com/realiefan/note-exte/types"

// Insert returns a timeline containing n at its position in descending
// CreatedAt order. The input must already be sorted descending with unique
// IDs; the result preserves both. A note whose ID is already present leaves
// the timeline unchanged, keeping the existing entry in place. Equal
// timestamps keep arrival order: the newcomer lands after every resident
// with the same CreatedAt. The input slice is never mutated.
func Insert(items []types.Note, n types.Note) []types.Note {
	for _, e := range items {
		if e.ID == n.ID {
			return items
		}
	}

	at := len(items)
	for i, e := range items {
		if e.CreatedAt.Before(n.CreatedAt) {
			at = i
			break
		}
	}

	out := make([]types.Note, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, n)
	out = append(out, items[at:]...)
	return out
}

// Trim bounds a timeline to at most max notes by dropping from the tail,
// i.e. the oldest entries. max <= 0 means unbounded.
func Trim(items []types.Note, max int) []types.Note {
	if max <= 0 || len(items) <= max {
		return items
	}
	return items[:max]
}
