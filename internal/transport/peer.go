// Package transport builds the pion objects a handshake runs on: the API
// with its SettingEngine, PeerConnections and the chat DataChannel.
package transport

import (
	"net"

	"github.com/pion/ice/v4"
	"github.com/pion/logging"
	pionnet "github.com/pion/transport/v4"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2plink/internal/util"
)

// ChatLabel is the label of the single text channel the initiator opens.
const ChatLabel = "chat"

// Settings tunes candidate gathering. The zero value gathers host candidates
// on every non-loopback interface of the real network.
type Settings struct {
	Net             pionnet.Net           // nil: the host network stack
	IPFilter        func(net.IP) bool     // nil: every interface address
	IncludeLoopback bool                  // gather 127.0.0.1 / ::1 candidates as well
	DisableMDNS     bool                  // never query or publish .local candidates
	LoggerFactory   logging.LoggerFactory // nil: util.PionLoggerFactory
}

// NewAPI creates a pion API configured from s.
func NewAPI(s Settings) *webrtc.API {
	se := webrtc.SettingEngine{}

	if s.Net != nil {
		se.SetNet(s.Net)
	}
	if s.IPFilter != nil {
		se.SetIPFilter(s.IPFilter)
	}
	se.SetIncludeLoopbackCandidate(s.IncludeLoopback)
	if s.DisableMDNS {
		se.SetICEMulticastDNSMode(ice.MulticastDNSModeDisabled)
	}

	se.LoggerFactory = s.LoggerFactory
	if se.LoggerFactory == nil {
		se.LoggerFactory = util.PionLoggerFactory{}
	}

	return webrtc.NewAPI(webrtc.WithSettingEngine(se))
}

// NewPeerConnection creates a PeerConnection on api. No ICE servers are
// configured unless stunServers is non-empty; the advertise-address rewrite
// is what lets peers on different networks attempt a direct path.
func NewPeerConnection(api *webrtc.API, stunServers []string) (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{}
	if len(stunServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{
			{URLs: stunServers},
		}
	}
	return api.NewPeerConnection(config)
}

// NewChatChannel creates the ordered, reliable chat DataChannel. It is
// in-band negotiated so a browser peer receives it through ondatachannel.
func NewChatChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	return pc.CreateDataChannel(ChatLabel, nil)
}
