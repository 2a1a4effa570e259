package nostr

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
)

func TestNewKeySignerRequiresKey(t *testing.T) {
	_, err := NewKeySigner("")
	assert.ErrorIs(t, err, ErrSignerUnavailable)
}

func TestKeySignerFromHex(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	signer, err := NewKeySigner(sk)
	assert.NoError(t, err)

	pub, err := signer.PublicKey()
	assert.NoError(t, err)

	expected, err := nostr.GetPublicKey(sk)
	assert.NoError(t, err)
	assert.Equal(t, expected, pub)
}

func TestKeySignerFromNsec(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	nsec, err := nip19.EncodePrivateKey(sk)
	assert.NoError(t, err)

	signer, err := NewKeySigner(nsec)
	assert.NoError(t, err)

	pub, err := signer.PublicKey()
	assert.NoError(t, err)

	expected, err := nostr.GetPublicKey(sk)
	assert.NoError(t, err)
	assert.Equal(t, expected, pub)
}

func TestKeySignerSignsEvent(t *testing.T) {
	signer, err := NewKeySigner(nostr.GeneratePrivateKey())
	assert.NoError(t, err)

	ev := nostr.Event{
		CreatedAt: time.Now(),
		Kind:      1,
		Content:   "signed note",
	}
	err = signer.Sign(&ev)
	assert.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.Sig)

	ok, err := ev.CheckSignature()
	assert.NoError(t, err)
	assert.True(t, ok)
}
