package link

import (
	"errors"
	"strings"
	"testing"

	"github.com/1ureka/p2plink/internal/payload"
)

const blob = "v=0\r\ns=-\r\na=candidate:1 1 udp 2130706431 198.51.100.7 51234 typ host\r\n"

func TestBuildParseRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		origin  string
		kind    Kind
		address string
	}{
		{"offer", "https://example.com/chat/", KindOffer, "198.51.100.7"},
		{"answer", "https://example.com/chat/index.html", KindAnswer, "203.0.113.9"},
		{"ipv6 address", "http://localhost:8080/", KindOffer, "2001:db8::7"},
		{"sentinel address", "https://example.com/", KindAnswer, "Unable to detect local IP"},
		{"origin already has fragment", "https://example.com/#offer=stale", KindAnswer, "203.0.113.9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw := Build(tc.origin, tc.kind, blob, tc.address)

			if strings.Count(raw, "#") != 1 {
				t.Fatalf("link %q has more than one fragment marker", raw)
			}
			wantPrefix := strings.SplitN(tc.origin, "#", 2)[0] + "#" + string(tc.kind) + "="
			if !strings.HasPrefix(raw, wantPrefix) {
				t.Errorf("link %q does not start with %q", raw, wantPrefix)
			}

			got, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.Kind != tc.kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tc.kind)
			}
			if got.Blob != blob {
				t.Errorf("Blob = %q, want %q", got.Blob, blob)
			}
			if got.Address != tc.address {
				t.Errorf("Address = %q, want %q", got.Address, tc.address)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"blank", "   \n", ErrEmpty},
		{"no scheme", "just some text", ErrInvalidURL},
		{"no fragment", "https://example.com/", ErrMissingKey},
		{"unknown key", "https://example.com/#invite=abc", ErrMissingKey},
		{"bad token", "https://example.com/#offer=not*base64&myip=1.2.3.4", payload.ErrDecode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tc.raw, err, tc.want)
			}
		})
	}
}

func TestParseOfferWins(t *testing.T) {
	raw := "https://example.com/#answer=" + payload.Encode("a") + "&offer=" + payload.Encode("o")

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Kind != KindOffer || got.Blob != "o" {
		t.Errorf("got %+v, want the offer", got)
	}
}

func TestParseWithoutAddress(t *testing.T) {
	got, err := Parse("https://example.com/#answer=" + payload.Encode(blob))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Address != "" {
		t.Errorf("Address = %q, want empty", got.Address)
	}
}
