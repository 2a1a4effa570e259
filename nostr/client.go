package nostr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// Client is a pool of relay connections. Subscriptions fan in events from
// every connected relay onto one channel; publishes fan out to every relay.
type Client struct {
	Relays map[string]*nostr.Relay
}

// IClient is the transport surface the rest of the application depends on.
type IClient interface {
	Subscribe(ctx context.Context, filters []nostr.Filter) <-chan nostr.Event
	Publish(ctx context.Context, ev nostr.Event) error
	Close() error
}

func DecodeNsec(nsec string) (string, error) {
	prefix, val, err := nip19.Decode(nsec)
	if err != nil {
		return "", err
	}

	if prefix != "nsec" {
		return "", fmt.Errorf("invalid nsec prefix: %s", prefix)
	}

	if sk, ok := val.(string); ok {
		return sk, nil
	}

	return "", fmt.Errorf("invalid nsec value: %v", val)
}

func DecodeNpub(npub string) (string, error) {
	prefix, val, err := nip19.Decode(npub)
	if err != nil {
		return "", err
	}

	if prefix != "npub" {
		return "", fmt.Errorf("invalid npub prefix: %s", prefix)
	}

	if pub, ok := val.(string); ok {
		return pub, nil
	}

	return "", fmt.Errorf("invalid npub value: %v", val)
}

// NewClient connects to every uri, skipping relays that fail to connect. An
// error is returned only when no relay at all could be reached.
func NewClient(ctx context.Context, uris []string) (*Client, error) {
	rs := map[string]*nostr.Relay{}
	for _, uri := range uris {
		r, err := nostr.RelayConnect(ctx, uri)
		if err != nil {
			log.Warn("failed to connect to relay, skipping...", "uri", uri, "err", err)
			continue
		}
		rs[uri] = r
	}

	if len(uris) > 0 && len(rs) == 0 {
		return nil, fmt.Errorf("no relay reachable out of %d", len(uris))
	}

	return &Client{
		Relays: rs,
	}, nil
}

// Subscribe opens one subscription per relay and merges all deliveries onto
// the returned channel. Cancelling ctx unsubscribes at each relay; the
// channel closes once every relay goroutine has drained.
func (c *Client) Subscribe(ctx context.Context, filters []nostr.Filter) <-chan nostr.Event {
	ch := make(chan nostr.Event)

	var wg sync.WaitGroup
	for uri, r := range c.Relays {
		sub := r.Subscribe(ctx, filters)

		wg.Add(1)
		go func(uri string, sub *nostr.Subscription) {
			defer wg.Done()
			defer sub.Unsub()

			for {
				select {
				case ev, ok := <-sub.Events:
					if !ok {
						return
					}
					select {
					case ch <- *ev:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					log.Debug("subscription cancelled", "uri", uri)
					return
				}
			}
		}(uri, sub)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	return ch
}

// Publish broadcasts a signed event to all relays. A single acknowledgement
// is enough for success; per-relay failures are logged and tolerated. The
// error is non-nil only when every relay rejected the event.
func (c *Client) Publish(ctx context.Context, ev nostr.Event) error {
	if len(c.Relays) == 0 {
		return fmt.Errorf("no connected relays")
	}

	var failed []string
	for uri, r := range c.Relays {
		status, err := r.Publish(ctx, ev)
		if err != nil || status == nostr.PublishStatusFailed {
			log.Warn("relay rejected event", "uri", uri, "id", ev.ID, "err", err)
			failed = append(failed, uri)
			continue
		}
		log.Debug("relay accepted event", "uri", uri, "id", ev.ID, "status", status)
	}

	if len(failed) == len(c.Relays) {
		return fmt.Errorf("all relays rejected event: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Close disconnects every relay, returning the first error encountered.
func (c *Client) Close() error {
	var first error
	for uri, r := range c.Relays {
		if err := r.Close(); err != nil && first == nil {
			log.Warn("failed to close relay connection", "uri", uri, "err", err)
			first = err
		}
	}
	return first
}
