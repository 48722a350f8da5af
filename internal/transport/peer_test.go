package transport

import (
	"errors"
	"testing"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

func TestNewPeerConnection(t *testing.T) {
	testCases := []struct {
		name    string
		servers []string
	}{
		{"host only", nil},
		{"with stun", []string{"stun:stun.l.google.com:19302"}},
	}

	api := NewAPI(Settings{DisableMDNS: true, LoggerFactory: logging.NewDefaultLoggerFactory()})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pc, err := NewPeerConnection(api, tc.servers)
			if err != nil {
				t.Fatalf("NewPeerConnection failed: %v", err)
			}
			defer pc.Close()

			got := pc.GetConfiguration().ICEServers
			if len(tc.servers) == 0 && len(got) != 0 {
				t.Errorf("ICEServers = %v, want none", got)
			}
			if len(tc.servers) > 0 && (len(got) != 1 || len(got[0].URLs) != len(tc.servers)) {
				t.Errorf("ICEServers = %v, want %v", got, tc.servers)
			}
		})
	}
}

func TestChannelBeforeOpen(t *testing.T) {
	pc, err := NewPeerConnection(NewAPI(Settings{}), nil)
	if err != nil {
		t.Fatalf("NewPeerConnection failed: %v", err)
	}
	defer pc.Close()

	raw, err := NewChatChannel(pc)
	if err != nil {
		t.Fatalf("NewChatChannel failed: %v", err)
	}
	if !raw.Ordered() {
		t.Error("chat channel must be ordered")
	}

	ch := NewChannel(raw, ChannelHandlers{})
	if ch.Label() != ChatLabel {
		t.Errorf("Label = %q, want %q", ch.Label(), ChatLabel)
	}
	if ch.IsOpen() {
		t.Error("channel open before negotiation")
	}
	if err := ch.Send("hello"); !errors.Is(err, ErrChannelNotOpen) {
		t.Errorf("Send error = %v, want ErrChannelNotOpen", err)
	}

	select {
	case <-ch.Ready():
		t.Error("Ready closed before negotiation")
	default:
	}

	if raw.ReadyState() != webrtc.DataChannelStateConnecting {
		t.Errorf("ReadyState = %s, want connecting", raw.ReadyState())
	}
}
