package nostr

import (
	"errors"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// ErrSignerUnavailable means no signing authority is configured; callers
// surface this as a precondition failure before any state changes.
var ErrSignerUnavailable = errors.New("no signing key configured")

// ErrSignRejected means the signing delegate declined to sign. The draft
// being published must be preserved so the user can retry.
var ErrSignRejected = errors.New("signing rejected")

// Signer holds signing authority over outgoing events. The application never
// touches key material outside a Signer implementation.
type Signer interface {
	PublicKey() (string, error)
	Sign(ev *nostr.Event) error
}

// KeySigner signs with a locally configured secret key, given either as
// nsec or raw hex.
type KeySigner struct {
	sk  string
	pub string
}

func NewKeySigner(key string) (*KeySigner, error) {
	if key == "" {
		return nil, ErrSignerUnavailable
	}

	sk := key
	if strings.HasPrefix(key, "nsec") {
		decoded, err := DecodeNsec(key)
		if err != nil {
			return nil, err
		}
		sk = decoded
	}

	pub, err := nostr.GetPublicKey(sk)
	if err != nil {
		return nil, err
	}

	return &KeySigner{sk: sk, pub: pub}, nil
}

func (s *KeySigner) PublicKey() (string, error) {
	return s.pub, nil
}

func (s *KeySigner) Sign(ev *nostr.Event) error {
	ev.PubKey = s.pub
	return ev.Sign(s.sk)
}
