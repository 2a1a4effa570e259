package types

import (
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// Note is a single kind-1 text note as it appears in the feed. CreatedAt is
// the author-assigned creation time at seconds resolution; it is not
// monotonic across arrivals.
type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteFromEvent converts a relay event into a Note. The event is assumed to
// be signature-checked by the transport layer already.
func NoteFromEvent(ev *nostr.Event) Note {
	return Note{
		ID:        ev.ID,
		Author:    ev.PubKey,
		Content:   ev.Content,
		CreatedAt: ev.CreatedAt,
	}
}

// Profile is the kind-0 metadata published by an author. Verified is set
// only when the Nip05 claim has been checked against the domain's identity
// document.
type Profile struct {
	Pubkey   string `json:"pubkey"`
	Name     string `json:"name"`
	About    string `json:"about"`
	Picture  string `json:"picture"`
	Nip05    string `json:"nip05"`
	Verified bool   `json:"verified,omitempty"`
}

// Draft is a locally stored note body that has not been published.
type Draft struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
