package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/realiefan/note-exte/types"
)

// NameResponse is the body of a .well-known/nostr.json identity document.
type NameResponse struct {
	Names map[string]string `json:"names"`
}

// WellKnownURL builds the NIP-05 identity document URL for an identifier
// like "alice@example.com". A bare domain is shorthand for "_@domain".
func WellKnownURL(nip05 string) (name, rawurl string, err error) {
	name = "_"
	domain := nip05
	if i := strings.LastIndex(nip05, "@"); i >= 0 {
		name = nip05[:i]
		domain = nip05[i+1:]
	}

	if domain == "" || name == "" {
		return "", "", fmt.Errorf("invalid nip05 identifier: %q", nip05)
	}

	u := url.URL{
		Scheme:   "https",
		Host:     domain,
		Path:     "/.well-known/nostr.json",
		RawQuery: "name=" + url.QueryEscape(name),
	}
	return name, u.String(), nil
}

// MatchName reports whether the identity document maps name to pubkey.
func MatchName(resp *NameResponse, name, pubkey string) bool {
	if resp == nil || resp.Names == nil {
		return false
	}
	return resp.Names[name] == pubkey
}

// VerifyAll checks the NIP-05 claim of every profile that carries one and
// returns the profiles with Verified set accordingly. Profiles without a
// claim, and claims whose document cannot be fetched, stay unverified.
func VerifyAll(ctx context.Context, client *http.Client, profiles map[string]types.Profile) map[string]types.Profile {
	out := make(map[string]types.Profile, len(profiles))
	for pub, p := range profiles {
		if p.Nip05 != "" {
			ok, err := Verify(ctx, client, p.Nip05, p.Pubkey)
			if err != nil {
				logger.Warn("nip05 verification failed", "pubkey", pub, "nip05", p.Nip05, "err", err)
			}
			p.Verified = ok && err == nil
		}
		out[pub] = p
	}
	return out
}

// Verify checks an author's NIP-05 identity proof against the domain's
// identity document. client may be nil, in which case http.DefaultClient is
// used.
func Verify(ctx context.Context, client *http.Client, nip05, pubkey string) (bool, error) {
	name, rawurl, err := WellKnownURL(nip05)
	if err != nil {
		return false, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return false, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("identity document request failed: %s", resp.Status)
	}

	var doc NameResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return false, err
	}

	return MatchName(&doc, name, pubkey), nil
}
