package session

import (
	"context"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2plink/internal/transport"
	"github.com/1ureka/p2plink/internal/util"
)

// UnknownAddress is returned by LocalAddress when no candidate was found.
const UnknownAddress = "Unable to detect local IP"

// LocalAddress reports the address of the first candidate a throwaway
// PeerConnection gathers on api. It never fails: on timeout, cancellation or
// engine error it returns UnknownAddress.
//
// The result is a user-editable suggestion, not a reachability guarantee.
func LocalAddress(ctx context.Context, api *webrtc.API, timeout time.Duration) string {
	if api == nil {
		api = transport.NewAPI(transport.Settings{})
	}

	pc, err := transport.NewPeerConnection(api, nil)
	if err != nil {
		util.LogDebug("address probe: %v", err)
		return UnknownAddress
	}
	defer func() {
		if err := pc.Close(); err != nil {
			util.LogDebug("address probe: close: %v", err)
		}
	}()

	found := make(chan string, 1)
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || c.Address == "" {
			return
		}
		select {
		case found <- c.Address:
		default:
		}
	})

	if _, err := pc.CreateDataChannel("", nil); err != nil {
		util.LogDebug("address probe: %v", err)
		return UnknownAddress
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		util.LogDebug("address probe: %v", err)
		return UnknownAddress
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		util.LogDebug("address probe: %v", err)
		return UnknownAddress
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case addr := <-found:
		util.LogDebug("address probe: %s", addr)
		return addr
	case <-timer.C:
		util.LogDebug("address probe timed out after %s", timeout)
	case <-ctx.Done():
		util.LogDebug("address probe canceled: %v", ctx.Err())
	}
	return UnknownAddress
}
