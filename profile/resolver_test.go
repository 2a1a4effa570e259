package profile

import (
	"context"
	"testing"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/realiefan/note-exte/nostr"
	"github.com/realiefan/note-exte/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func metadataEvent(pubkey, content string, sec int64) gonostr.Event {
	return gonostr.Event{
		ID:        "meta_" + pubkey,
		PubKey:    pubkey,
		Kind:      0,
		Content:   content,
		CreatedAt: time.Unix(sec, 0),
	}
}

func eventChan(evs ...gonostr.Event) <-chan gonostr.Event {
	ch := make(chan gonostr.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestLookupResolvesAndCaches(t *testing.T) {
	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Return(
		eventChan(metadataEvent("pub1", `{"name":"alice","about":"hi","nip05":"alice@example.com"}`, 100)),
	).Once()

	resolver := NewResolver(mockClient)

	got := resolver.Lookup(context.Background(), []string{"pub1"})
	assert.Contains(t, got, "pub1")
	assert.Equal(t, "alice", got["pub1"].Name)
	assert.Equal(t, "alice@example.com", got["pub1"].Nip05)

	// second lookup is served from cache, no relay query
	got = resolver.Lookup(context.Background(), []string{"pub1"})
	assert.Equal(t, "alice", got["pub1"].Name)
	mockClient.AssertNumberOfCalls(t, "Subscribe", 1)
}

func TestLookupKeepsNewestMetadata(t *testing.T) {
	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Return(
		eventChan(
			metadataEvent("pub1", `{"name":"old"}`, 100),
			metadataEvent("pub1", `{"name":"new"}`, 200),
		),
	).Once()

	resolver := NewResolver(mockClient)

	got := resolver.Lookup(context.Background(), []string{"pub1"})
	assert.Equal(t, "new", got["pub1"].Name)
}

func TestLookupSkipsMalformedMetadata(t *testing.T) {
	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Return(
		eventChan(metadataEvent("pub1", `not json`, 100)),
	)

	resolver := NewResolver(mockClient)

	got := resolver.Lookup(context.Background(), []string{"pub1"})
	assert.NotContains(t, got, "pub1")
}

func TestLookupOnlyQueriesMissingAuthors(t *testing.T) {
	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Return(
		eventChan(metadataEvent("pub1", `{"name":"alice"}`, 100)),
	).Once()
	mockClient.On("Subscribe", mock.Anything, mock.MatchedBy(func(filters []gonostr.Filter) bool {
		return len(filters) == 1 && len(filters[0].Authors) == 1 && filters[0].Authors[0] == "pub2"
	})).Return(
		eventChan(metadataEvent("pub2", `{"name":"bob"}`, 100)),
	).Once()

	resolver := NewResolver(mockClient)

	resolver.Lookup(context.Background(), []string{"pub1"})
	got := resolver.Lookup(context.Background(), []string{"pub1", "pub2"})

	assert.Equal(t, "alice", got["pub1"].Name)
	assert.Equal(t, "bob", got["pub2"].Name)
	mockClient.AssertNumberOfCalls(t, "Subscribe", 2)
}

func TestConcurrentLookupWaitsForInFlightFetch(t *testing.T) {
	subscribed := make(chan struct{})
	events := make(chan gonostr.Event)

	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(subscribed)
	}).Return((<-chan gonostr.Event)(events)).Once()

	resolver := NewResolver(mockClient)

	first := make(chan map[string]types.Profile, 1)
	go func() {
		first <- resolver.Lookup(context.Background(), []string{"pub1"})
	}()

	// the first lookup holds the fetch; a second for the same author must
	// wait for its result instead of reporting the author as absent
	<-subscribed
	second := make(chan map[string]types.Profile, 1)
	go func() {
		second <- resolver.Lookup(context.Background(), []string{"pub1"})
	}()

	events <- metadataEvent("pub1", `{"name":"alice"}`, 100)
	close(events)

	got := <-second
	assert.Contains(t, got, "pub1")
	assert.Equal(t, "alice", got["pub1"].Name)

	got = <-first
	assert.Equal(t, "alice", got["pub1"].Name)

	mockClient.AssertNumberOfCalls(t, "Subscribe", 1)
}

func TestResetClearsCache(t *testing.T) {
	mockClient := new(nostr.MockClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything).Return(
		eventChan(metadataEvent("pub1", `{"name":"alice"}`, 100)),
	)

	resolver := NewResolver(mockClient)
	resolver.Lookup(context.Background(), []string{"pub1"})

	_, ok := resolver.Get("pub1")
	assert.True(t, ok)

	resolver.Reset()
	_, ok = resolver.Get("pub1")
	assert.False(t, ok)
}
