// Package link frames handshake blobs as shareable URLs:
//
//	<origin><path>#offer=<token>&myip=<address>
//	<origin><path>#answer=<token>&myip=<address>
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/1ureka/p2plink/internal/payload"
)

// Kind distinguishes an invite from its reply.
type Kind string

const (
	KindOffer  Kind = "offer"
	KindAnswer Kind = "answer"
)

// Fragment key carrying the advertise address. Informational only.
const addressKey = "myip"

var (
	ErrEmpty      = errors.New("link: empty input")
	ErrInvalidURL = errors.New("link: invalid URL")
	ErrMissingKey = errors.New("link: no offer or answer in fragment")
)

// Link is a parsed shareable link.
type Link struct {
	Kind    Kind
	Blob    string // decoded description blob
	Address string // advertise address of the sender, may be empty
}

// Build returns origin with a fragment carrying blob and advertiseAddress.
// Any fragment already on origin is replaced.
func Build(origin string, kind Kind, blob, advertiseAddress string) string {
	if i := strings.IndexByte(origin, '#'); i >= 0 {
		origin = origin[:i]
	}
	return fmt.Sprintf("%s#%s=%s&%s=%s",
		origin, kind, payload.Encode(blob), addressKey, url.QueryEscape(advertiseAddress))
}

// Parse extracts the blob from a shareable link. When both keys are
// present the offer wins.
func Parse(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, ErrEmpty
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return Link{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	params, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return Link{}, fmt.Errorf("%w: fragment: %v", ErrInvalidURL, err)
	}

	var kind Kind
	switch {
	case params.Has(string(KindOffer)):
		kind = KindOffer
	case params.Has(string(KindAnswer)):
		kind = KindAnswer
	default:
		return Link{}, ErrMissingKey
	}

	blob, err := payload.Decode(params.Get(string(kind)))
	if err != nil {
		return Link{}, fmt.Errorf("decode %s: %w", kind, err)
	}

	return Link{
		Kind:    kind,
		Blob:    blob,
		Address: params.Get(addressKey),
	}, nil
}
