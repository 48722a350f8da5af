// Package payload implements the text transforms applied to a handshake blob
// before it leaves the process and after it arrives from the remote peer.
// Every function here is pure.
package payload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Line prefixes recognised by the codec.
const (
	maxMessageSizePrefix = "a=max-message-size"
	candidatePrefix      = "a=candidate:"
)

// candidateAddressIndex is the position of the connection address inside a
// candidate line: a=candidate:<foundation> <component> <transport> <priority> <address> <port> ...
const candidateAddressIndex = 4

// ErrDecode is returned when a token was not produced by Encode.
var ErrDecode = errors.New("payload: invalid token")

// tokenEncoding is unpadded URL-safe base64, so a token survives a URL
// fragment and a query-string parser untouched.
var tokenEncoding = base64.RawURLEncoding.Strict()

// StripUnsupportedAttributes removes every max-message-size attribute line.
// All other lines pass through unchanged and in order.
func StripUnsupportedAttributes(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, maxMessageSizePrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// RewriteCandidateAddress replaces the address field of every candidate line
// with newAddress. Lines with fewer than five fields are left alone.
func RewriteCandidateAddress(text, newAddress string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, candidatePrefix) {
			continue
		}
		fields := strings.Split(line, " ")
		if len(fields) <= candidateAddressIndex {
			continue
		}
		fields[candidateAddressIndex] = newAddress
		lines[i] = strings.Join(fields, " ")
	}
	return strings.Join(lines, "\n")
}

// Normalize applies the outgoing pipeline: strip, then rewrite.
func Normalize(text, advertiseAddress string) string {
	return RewriteCandidateAddress(StripUnsupportedAttributes(text), advertiseAddress)
}

// Encode turns arbitrary text into a single URL-fragment-safe token.
func Encode(text string) string {
	return tokenEncoding.EncodeToString([]byte(text))
}

// Decode reverses Encode.
func Decode(token string) (string, error) {
	// The decoder skips CR and LF; Encode never emits them.
	if strings.ContainsAny(token, "\r\n") {
		return "", fmt.Errorf("%w: line break in token", ErrDecode)
	}
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(raw), nil
}
