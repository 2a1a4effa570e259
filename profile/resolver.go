// Package profile resolves author metadata (kind-0 events) for feed display.
package profile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/realiefan/note-exte/nostr"
	"github.com/realiefan/note-exte/types"
)

var logger = log.New("module", "profile")

// DefaultLookupTimeout bounds how long one metadata batch query may wait on
// the relays.
const DefaultLookupTimeout = 3 * time.Second

// Resolver fetches and caches author profiles for the lifetime of one
// session. An author is queried at most once: results are cached by pubkey
// and an in-flight fetch is tracked by a done channel, so concurrent
// lookups of the same author share one relay query and all see its result.
// Reset clears everything on session teardown.
type Resolver struct {
	client  nostr.IClient
	timeout time.Duration

	mu      sync.Mutex
	cache   map[string]types.Profile
	pending map[string]chan struct{}
}

func NewResolver(client nostr.IClient) *Resolver {
	return &Resolver{
		client:  client,
		timeout: DefaultLookupTimeout,
		cache:   make(map[string]types.Profile),
		pending: make(map[string]chan struct{}),
	}
}

// Lookup returns profiles for the requested authors, querying the relays for
// any author not yet cached. Authors already being fetched by another
// goroutine are waited for rather than skipped. Authors with no published
// metadata are simply absent from the result.
func (r *Resolver) Lookup(ctx context.Context, pubkeys []string) map[string]types.Profile {
	missing, created, inflight := r.claim(pubkeys)

	if len(missing) > 0 {
		r.fetch(ctx, missing, created)
	}

	if len(inflight) > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		for _, done := range inflight {
			select {
			case <-done:
			case <-waitCtx.Done():
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]types.Profile, len(pubkeys))
	for _, pub := range pubkeys {
		if p, ok := r.cache[pub]; ok {
			out[pub] = p
		}
	}
	return out
}

// Get returns the cached profile for one author, if resolved already.
func (r *Resolver) Get(pubkey string) (types.Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cache[pubkey]
	return p, ok
}

// Reset drops all cached profiles and forgets in-flight fetches. Each done
// channel is closed by the fetch that created it, so waiters on a fetch
// racing a Reset are still released. Called on session teardown.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]types.Profile)
	r.pending = make(map[string]chan struct{})
}

// claim splits the requested authors into those this caller must fetch
// (marked pending with a fresh done channel) and the done channels of
// fetches some other caller already has in flight.
func (r *Resolver) claim(pubkeys []string) (missing []string, created map[string]chan struct{}, inflight []<-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created = make(map[string]chan struct{})
	for _, pub := range pubkeys {
		if _, ok := r.cache[pub]; ok {
			continue
		}
		if done, ok := r.pending[pub]; ok {
			inflight = append(inflight, done)
			continue
		}
		done := make(chan struct{})
		r.pending[pub] = done
		created[pub] = done
		missing = append(missing, pub)
	}
	return missing, created, inflight
}

func (r *Resolver) fetch(ctx context.Context, pubkeys []string, created map[string]chan struct{}) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filters := []gonostr.Filter{{
		Kinds:   []int{0},
		Authors: pubkeys,
		Limit:   len(pubkeys),
	}}

	// kind-0 is replaceable: keep only the newest event per author
	newest := make(map[string]gonostr.Event, len(pubkeys))
	for ev := range r.client.Subscribe(ctx, filters) {
		if prev, ok := newest[ev.PubKey]; ok && !prev.CreatedAt.Before(ev.CreatedAt) {
			continue
		}
		newest[ev.PubKey] = ev
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for pub, ev := range newest {
		p, err := parseMetadata(&ev)
		if err != nil {
			logger.Warn("malformed profile metadata", "pubkey", pub, "err", err)
			continue
		}
		r.cache[pub] = p
	}

	// results are visible: release waiters. A Reset that raced us replaced
	// the map, so only drop entries that are still ours.
	for pub, done := range created {
		if r.pending[pub] == done {
			delete(r.pending, pub)
		}
		close(done)
	}
}

func parseMetadata(ev *gonostr.Event) (types.Profile, error) {
	var content struct {
		Name    string `json:"name"`
		About   string `json:"about"`
		Picture string `json:"picture"`
		Nip05   string `json:"nip05"`
	}
	if err := json.Unmarshal([]byte(ev.Content), &content); err != nil {
		return types.Profile{}, err
	}

	return types.Profile{
		Pubkey:  ev.PubKey,
		Name:    content.Name,
		About:   content.About,
		Picture: content.Picture,
		Nip05:   content.Nip05,
	}, nil
}
