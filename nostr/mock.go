package nostr

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Subscribe(ctx context.Context, filters []nostr.Filter) <-chan nostr.Event {
	args := m.Called(ctx, filters)
	return args.Get(0).(<-chan nostr.Event)
}

func (m *MockClient) Publish(ctx context.Context, ev nostr.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) PublicKey() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockSigner) Sign(ev *nostr.Event) error {
	args := m.Called(ev)
	return args.Error(0)
}
