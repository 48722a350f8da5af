// Package config holds the CLI configuration types.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Role represents the side of the two-message handshake.
type Role string

const (
	RoleInitiator Role = "offer"  // creates the invite
	RoleResponder Role = "answer" // replies to an invite
)

// Defaults. The watchdog and probe timeouts are advisory and tunable.
const (
	DefaultOrigin              = "https://p2plink.local/"
	DefaultAnswerWatchdog      = 30 * time.Second
	DefaultAddressProbeTimeout = 5 * time.Second
)

// Config stores all parameters gathered from CLI flags or interactive prompts.
type Config struct {
	Role                Role
	AdvertiseAddress    string        // substituted into every outgoing candidate line
	Origin              string        // prefix of generated links
	InviteLink          string        // Responder: invite link to answer
	STUNServers         []string      // empty: host candidates only
	WebListen           string        // non-empty: serve the event hub here
	AnswerWatchdog      time.Duration // Initiator: advisory connect deadline after SetAnswer
	AddressProbeTimeout time.Duration // bound on local address discovery
	Debug               bool
}

// Default returns a Config with every tunable at its default.
func Default() Config {
	return Config{
		Origin:              DefaultOrigin,
		AnswerWatchdog:      DefaultAnswerWatchdog,
		AddressProbeTimeout: DefaultAddressProbeTimeout,
	}
}

// ParseRole accepts the role names used on the command line.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "offer", "initiator", "host":
		return RoleInitiator, nil
	case "answer", "responder", "join":
		return RoleResponder, nil
	}
	return "", fmt.Errorf("invalid role %q: must be 'offer' or 'answer'", raw)
}

// ParseSTUNServers splits a comma-separated list of stun: URLs.
func ParseSTUNServers(raw string) ([]string, error) {
	var servers []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, "stun:") && !strings.HasPrefix(s, "stuns:") {
			return nil, fmt.Errorf("invalid STUN server %q: must start with stun: or stuns:", s)
		}
		servers = append(servers, s)
	}
	return servers, nil
}

// Validate checks fields that the handshake depends on.
func (c Config) Validate() error {
	if c.Role != RoleInitiator && c.Role != RoleResponder {
		return fmt.Errorf("invalid role %q", c.Role)
	}
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid origin %q: must be an absolute URL", c.Origin)
	}
	if c.AnswerWatchdog <= 0 {
		return fmt.Errorf("invalid answer watchdog %s: must be positive", c.AnswerWatchdog)
	}
	if c.AddressProbeTimeout <= 0 {
		return fmt.Errorf("invalid address probe timeout %s: must be positive", c.AddressProbeTimeout)
	}
	return nil
}
