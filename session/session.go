// Package session ties one hashtag subscription to the timeline it feeds.
// Changing the hashtag set tears the old subscription down and starts over
// with an empty timeline; notes never leak across that boundary.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/realiefan/note-exte/feed"
	"github.com/realiefan/note-exte/nostr"
	"github.com/realiefan/note-exte/profile"
	"github.com/realiefan/note-exte/types"
)

var logger = log.New("module", "session")

// ErrClosed is returned when a closed session is asked to subscribe again.
var ErrClosed = errors.New("session closed")

// backfillLimit caps how much history a fresh subscription requests.
const backfillLimit = 100

// Session owns the active subscription and its timeline. All relay
// deliveries funnel through here; consumers read debounced snapshots.
// Subscriptions live on the session's own context, so they survive the
// caller that started them and die with the session.
type Session struct {
	client   nostr.IClient
	resolver *profile.Resolver
	max      int

	base       context.Context
	baseCancel context.CancelFunc

	deb       *feed.Debouncer
	snapshots chan []types.Note

	mu     sync.Mutex
	epoch  *feed.Epoch
	cancel context.CancelFunc
	tags   []string
	closed bool
}

// New creates a session. resolver may be nil to skip metadata lookups.
// debounce is the minimum interval between snapshot emissions; max bounds
// the timeline length.
func New(client nostr.IClient, resolver *profile.Resolver, debounce time.Duration, max int) *Session {
	base, baseCancel := context.WithCancel(context.Background())
	s := &Session{
		client:     client,
		resolver:   resolver,
		max:        max,
		base:       base,
		baseCancel: baseCancel,
		snapshots:  make(chan []types.Note, 1),
	}
	s.deb = feed.NewDebouncer(debounce, s.emit)
	return s
}

// SetTags replaces the hashtag filter. The previous subscription is torn
// down and its timeline discarded; a fresh epoch fills from newly arriving
// notes only. An empty tag set subscribes to all kind-1 notes. The new
// subscription is scoped to the session, not to the caller.
func (s *Session) SetTags(tags []string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.epoch != nil {
		s.epoch.Close()
	}

	epoch := feed.NewEpoch(s.max)
	s.epoch = epoch
	s.tags = append([]string(nil), tags...)

	subCtx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.mu.Unlock()

	logger.Info("subscribing", "tags", tags)

	filter := gonostr.Filter{
		Kinds: []int{1},
		Limit: backfillLimit,
	}
	if len(tags) > 0 {
		filter.Tags = gonostr.TagMap{"t": tags}
	}

	ch := s.client.Subscribe(subCtx, []gonostr.Filter{filter})
	go s.consume(subCtx, epoch, ch)
	return nil
}

// Refresh resubscribes with the current tags, discarding and repopulating
// the timeline. Used by the periodic reconnect job.
func (s *Session) Refresh() error {
	s.mu.Lock()
	tags := append([]string(nil), s.tags...)
	s.mu.Unlock()
	return s.SetTags(tags)
}

// Tags returns the active hashtag filter.
func (s *Session) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...)
}

// Snapshot returns the current timeline synchronously.
func (s *Session) Snapshot() []types.Note {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	if epoch == nil {
		return []types.Note{}
	}
	return epoch.Snapshot()
}

// Snapshots delivers debounced timeline snapshots. Only the most recent
// snapshot is retained when the consumer lags. The channel closes when the
// session does.
func (s *Session) Snapshots() <-chan []types.Note {
	return s.snapshots
}

// Close tears the session down: the subscription is cancelled, late
// deliveries are dropped, and one final snapshot is flushed if a debounce
// window was open. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	s.baseCancel()
	if s.cancel != nil {
		s.cancel()
	}
	if s.epoch != nil {
		s.epoch.Close()
	}
	s.mu.Unlock()

	s.deb.Close()
	close(s.snapshots)

	if s.resolver != nil {
		s.resolver.Reset()
	}
	logger.Info("session closed")
}

func (s *Session) consume(ctx context.Context, epoch *feed.Epoch, ch <-chan gonostr.Event) {
	for ev := range ch {
		ev := ev
		n := types.NoteFromEvent(&ev)
		if !epoch.Insert(n) {
			continue
		}
		s.deb.Notify()

		if s.resolver != nil {
			go s.resolver.Lookup(ctx, []string{n.Author})
		}
	}
}

func (s *Session) emit() {
	snap := s.Snapshot()
	select {
	case s.snapshots <- snap:
	default:
		// consumer lagging: replace the stale snapshot
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- snap:
		default:
		}
	}
}
