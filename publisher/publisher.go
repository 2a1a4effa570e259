// Package publisher turns composed note bodies into signed kind-1 events
// and broadcasts them to the relay pool.
package publisher

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/realiefan/note-exte/nostr"
)

var logger = log.New("module", "publisher")

var hashtagRe = regexp.MustCompile(`(?:^|\s)#([a-zA-Z0-9_]+)`)

// Hashtags extracts the hashtags mentioned in a note body, lowercased and
// deduplicated, in first-occurrence order.
func Hashtags(content string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Publisher composes, signs and broadcasts notes. Signing authority stays
// with the Signer delegate; the publisher never sees key material.
type Publisher struct {
	client nostr.IClient
	signer nostr.Signer
}

func New(client nostr.IClient, signer nostr.Signer) *Publisher {
	return &Publisher{
		client: client,
		signer: signer,
	}
}

// BuildNote creates an unsigned kind-1 event for a note body, tagging every
// hashtag mentioned in the content.
func BuildNote(content string) gonostr.Event {
	var tags gonostr.Tags
	for _, t := range Hashtags(content) {
		tags = append(tags, gonostr.Tag{"t", t})
	}

	return gonostr.Event{
		CreatedAt: time.Now(),
		Kind:      1,
		Tags:      tags,
		Content:   content,
	}
}

// Publish signs and broadcasts a note body. A missing signer surfaces as
// ErrSignerUnavailable and a declined signature as ErrSignRejected, in both
// cases before anything reaches the relays, so the caller's draft stays
// intact for retry. Success means at least one relay acknowledged.
func (p *Publisher) Publish(ctx context.Context, content string) (gonostr.Event, error) {
	if p.signer == nil {
		return gonostr.Event{}, nostr.ErrSignerUnavailable
	}

	ev := BuildNote(content)
	if err := p.signer.Sign(&ev); err != nil {
		logger.Warn("signing failed", "err", err)
		return gonostr.Event{}, err
	}

	if err := p.client.Publish(ctx, ev); err != nil {
		return gonostr.Event{}, err
	}

	logger.Info("note published", "id", ev.ID, "tags", len(ev.Tags))
	return ev, nil
}
