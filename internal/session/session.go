// Package session orchestrates a manual two-message WebRTC handshake.
//
// A Session owns one PeerConnection and its chat DataChannel. The initiator
// calls CreateOffer and later SetAnswer; the responder calls CreateAnswer.
// Every blob a Session returns is self-contained: all local candidates are
// gathered and embedded before it is handed out, so no trickle messages
// follow.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/p2plink/internal/config"
	"github.com/1ureka/p2plink/internal/payload"
	"github.com/1ureka/p2plink/internal/transport"
	"github.com/1ureka/p2plink/internal/util"
)

// Status texts shown to the user.
const (
	statusConnected     = "Connected! You can now chat."
	statusICECompleted  = "ICE completed. Waiting for data channel..."
	statusClosed        = "Connection closed."
	statusICEFailed     = "Connection failed. Ensure same network or share public IPs manually."
	statusWatchdogFired = "Connection failed. For same PC testing, use two different browsers " +
		"(e.g., Chrome and Firefox). For cross-network, ensure public IPs are entered and shared."
)

// Options configures a Session. The zero value is usable.
type Options struct {
	API            *webrtc.API   // nil: transport.NewAPI with default settings
	STUNServers    []string      // empty: host candidates only
	AnswerWatchdog time.Duration // <= 0: config.DefaultAnswerWatchdog

	// OnEvent receives every event synchronously, outside the Session's
	// lock. It must not block.
	OnEvent func(Event)
}

// Session is one participant's side of one connection attempt.
// Safe for concurrent use.
type Session struct {
	opts Options
	api  *webrtc.API

	stats util.Stats

	mu         sync.Mutex
	role       config.Role
	step       State // handshake progress, owned by the Session
	link       State // connectivity observed from the engine, StateNew until seen
	pc         *webrtc.PeerConnection
	ch         *transport.Channel
	candidates []string
	transcript []string
	chatShown  bool
	watchdog   *time.Timer
	closed     bool
}

// New creates an idle Session.
func New(opts Options) *Session {
	if opts.AnswerWatchdog <= 0 {
		opts.AnswerWatchdog = config.DefaultAnswerWatchdog
	}
	api := opts.API
	if api == nil {
		api = transport.NewAPI(transport.Settings{})
	}
	return &Session{opts: opts, api: api}
}

// ---------------------------------------------------------------------------
// Handshake
// ---------------------------------------------------------------------------

// CreateOffer makes this Session the initiator and returns the offer blob
// with every candidate address rewritten to advertiseAddress. An empty
// advertiseAddress leaves discovered addresses in place.
//
// It blocks until candidate gathering completes or ctx is done; there is no
// internal deadline.
func (s *Session) CreateOffer(ctx context.Context, advertiseAddress string) (string, error) {
	if err := s.begin(config.RoleInitiator); err != nil {
		return "", err
	}
	util.LogDebug("creating offer")
	s.status("Creating offer...")

	pc, err := s.newPeerConnection()
	if err != nil {
		return "", s.fail(FailureProtocol, "Could not create the connection.", fmt.Errorf("create peer connection: %w", err))
	}

	raw, err := transport.NewChatChannel(pc)
	if err != nil {
		return "", s.fail(FailureProtocol, "Could not create the chat channel.", fmt.Errorf("create data channel: %w", err))
	}
	s.attachChannel(raw)

	s.setStep(StateDescriptionPending)
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return "", s.fail(FailureProtocol, "Could not create the offer.", fmt.Errorf("create offer: %w", err))
	}

	return s.completeLocalDescription(ctx, pc, offer, advertiseAddress)
}

// CreateAnswer makes this Session the responder, applies offerBlob and
// returns the answer blob, rewritten to advertiseAddress like CreateOffer.
//
// Empty or unparsable input is rejected before the Session is touched, so
// the caller may retry with corrected input.
func (s *Session) CreateAnswer(ctx context.Context, offerBlob, advertiseAddress string) (string, error) {
	offer, err := s.checkRemote("offer", offerBlob)
	if err != nil {
		return "", err
	}
	if err := s.begin(config.RoleResponder); err != nil {
		return "", err
	}
	util.LogDebug("creating answer")
	s.status("Creating answer...")

	pc, err := s.newPeerConnection()
	if err != nil {
		return "", s.fail(FailureProtocol, "Could not create the connection.", fmt.Errorf("create peer connection: %w", err))
	}

	// The initiator opens the channel; capture it when it arrives.
	pc.OnDataChannel(func(raw *webrtc.DataChannel) {
		util.LogDebug("data channel received: %s", raw.Label())
		s.attachChannel(raw)
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer,
	}); err != nil {
		return "", s.fail(FailureProtocol, "The offer was rejected.", fmt.Errorf("set remote description: %w", err))
	}
	s.setStep(StateRemoteApplied)

	s.setStep(StateDescriptionPending)
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", s.fail(FailureProtocol, "Could not create the answer.", fmt.Errorf("create answer: %w", err))
	}

	return s.completeLocalDescription(ctx, pc, answer, advertiseAddress)
}

// SetAnswer applies the responder's answer blob to an initiator Session.
//
// It arms an advisory watchdog: if ICE has not connected when it fires, a
// FailureEvent of kind FailureTimeout is emitted. The handshake itself is
// never aborted or retried.
func (s *Session) SetAnswer(answerBlob string) error {
	s.mu.Lock()
	role, pc, closed := s.role, s.pc, s.closed
	s.mu.Unlock()

	switch {
	case closed:
		return ErrClosed
	case role == "":
		return ErrNotStarted
	case role != config.RoleInitiator:
		return fmt.Errorf("set answer on %s side: %w", role, ErrWrongRole)
	case pc == nil:
		return ErrNotStarted
	}

	answer, err := s.checkRemote("answer", answerBlob)
	if err != nil {
		return err
	}

	util.LogDebug("setting answer")
	s.status("Setting answer...")
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		return s.fail(FailureProtocol, "The answer was rejected.", fmt.Errorf("set remote description: %w", err))
	}
	s.setStep(StateRemoteApplied)
	util.LogDebug("answer set; connection %s, ICE %s", pc.ConnectionState(), pc.ICEConnectionState())
	s.status("Answer set. Connecting...")

	s.armWatchdog(pc)
	return nil
}

// checkRemote strips and validates a remote blob without touching state.
func (s *Session) checkRemote(kind, blob string) (string, error) {
	if strings.TrimSpace(blob) == "" {
		return "", s.fail(FailureInput, fmt.Sprintf("Please paste the %s.", kind), ErrEmptyBlob)
	}

	blob = payload.StripUnsupportedAttributes(blob)
	sum, err := payload.Validate(blob)
	if err != nil {
		return "", s.fail(FailureParse, fmt.Sprintf("Invalid %s.", kind), err)
	}
	util.LogDebug("remote %s: %d media, %d candidates, fingerprint %s",
		kind, sum.Media, sum.Candidates, util.Fingerprint(blob))
	return blob, nil
}

// completeLocalDescription applies desc, waits for gathering and assembles
// the outgoing blob.
func (s *Session) completeLocalDescription(ctx context.Context, pc *webrtc.PeerConnection, desc webrtc.SessionDescription, advertiseAddress string) (string, error) {
	gathered := webrtc.GatheringCompletePromise(pc)

	if err := pc.SetLocalDescription(desc); err != nil {
		return "", s.fail(FailureProtocol, "Could not apply the local description.", fmt.Errorf("set local description: %w", err))
	}
	s.setStep(StateGathering)

	select {
	case <-gathered:
	case <-ctx.Done():
		return "", s.fail(FailureProtocol, "Candidate gathering did not complete.", fmt.Errorf("gather candidates: %w", ctx.Err()))
	}
	util.LogDebug("ICE gathering complete")

	s.mu.Lock()
	candidates := append([]string(nil), s.candidates...)
	s.mu.Unlock()

	blob := payload.AppendCandidates(pc.LocalDescription().SDP, candidates)
	util.LogDebug("assembled %s SDP:\n%s", desc.Type, blob)

	if advertiseAddress != "" {
		blob = payload.Normalize(blob, advertiseAddress)
	} else {
		blob = payload.StripUnsupportedAttributes(blob)
	}
	util.LogDebug("final %s SDP:\n%s", desc.Type, blob)

	s.setStep(StateDescriptionReady)
	util.LogInfo("%s created (%d candidates, fingerprint %s)", desc.Type, len(candidates), util.Fingerprint(blob))
	return blob, nil
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

// SendMessage delivers text if and only if the chat channel reports itself
// open. It returns whether the message was sent; nothing is queued.
func (s *Session) SendMessage(text string) bool {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	if ch == nil {
		return false
	}
	if err := ch.Send(text); err != nil {
		if !errors.Is(err, transport.ErrChannelNotOpen) {
			util.LogWarning("failed to send message: %v", err)
		}
		return false
	}

	s.stats.AddSent(len(text))
	s.appendLine(FromYou, text)
	return true
}

// receive handles an inbound chat message.
func (s *Session) receive(text string) {
	util.LogDebug("message received: %q", text)
	s.stats.AddRecv(len(text))
	s.appendLine(FromPeer, text)
}

func (s *Session) appendLine(from Sender, text string) {
	prefix := "You: "
	if from == FromPeer {
		prefix = "Peer: "
	}
	line := prefix + text

	s.mu.Lock()
	s.transcript = append(s.transcript, line)
	s.mu.Unlock()

	s.emit(MessageEvent{From: from, Text: text, Line: line})
}

// attachChannel wires the chat channel, created locally or received.
func (s *Session) attachChannel(raw *webrtc.DataChannel) {
	ch := transport.NewChannel(raw, transport.ChannelHandlers{
		OnOpen: func() {
			util.LogDebug("data channel opened")
			s.status(statusConnected)
			s.showChat()
		},
		OnClose: func() {
			util.LogDebug("data channel closed")
			s.status(statusClosed)
		},
		OnText: s.receive,
		OnError: func(err error) {
			util.LogWarning("data channel error: %v", err)
		},
	})

	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()
}

// showChat emits ChatReadyEvent the first time it is called.
func (s *Session) showChat() {
	s.mu.Lock()
	shown := s.chatShown
	s.chatShown = true
	s.mu.Unlock()

	if !shown {
		s.emit(ChatReadyEvent{})
	}
}

// ---------------------------------------------------------------------------
// Engine wiring
// ---------------------------------------------------------------------------

func (s *Session) newPeerConnection() (*webrtc.PeerConnection, error) {
	pc, err := transport.NewPeerConnection(s.api, s.opts.STUNServers)
	if err != nil {
		return nil, err
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		util.LogDebug("ICE candidate generated: %s", c.String())
		s.mu.Lock()
		s.candidates = append(s.candidates, c.ToJSON().Candidate)
		s.mu.Unlock()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("connection state: %s", state)
		s.status("Connection: " + state.String())
	})

	pc.OnICEConnectionStateChange(s.handleICEState)

	pc.OnSignalingStateChange(func(state webrtc.SignalingState) {
		util.LogDebug("signaling state: %s", state)
	})

	s.mu.Lock()
	s.pc = pc
	s.mu.Unlock()
	return pc, nil
}

func (s *Session) handleICEState(state webrtc.ICEConnectionState) {
	util.LogDebug("ICE connection state: %s", state)

	switch state {
	case webrtc.ICEConnectionStateChecking:
		s.setLink(StateConnecting)
	case webrtc.ICEConnectionStateConnected:
		s.setLink(StateConnected)
		s.status(statusConnected)
		s.showChat()
	case webrtc.ICEConnectionStateCompleted:
		s.setLink(StateConnected)
		s.status(statusICECompleted)
	case webrtc.ICEConnectionStateFailed:
		s.setLink(StateFailed)
		s.fail(FailureConnection, statusICEFailed, errors.New("ICE connection failed"))
	case webrtc.ICEConnectionStateClosed:
		s.setLink(StateClosed)
	}
}

func (s *Session) armWatchdog(pc *webrtc.PeerConnection) {
	t := time.AfterFunc(s.opts.AnswerWatchdog, func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		state := pc.ICEConnectionState()
		util.LogDebug("watchdog: connection %s, ICE %s", pc.ConnectionState(), state)
		if state != webrtc.ICEConnectionStateConnected && state != webrtc.ICEConnectionStateCompleted {
			s.fail(FailureTimeout, statusWatchdogFired, ErrConnectTimeout)
		}
	})

	s.mu.Lock()
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.watchdog = t
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// State & events
// ---------------------------------------------------------------------------

// begin claims the Session for role.
func (s *Session) begin(role config.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.role != "" {
		return fmt.Errorf("%w as %s", ErrAlreadyStarted, s.role)
	}
	s.role = role
	return nil
}

func (s *Session) currentLocked() State {
	if s.link != StateNew {
		return s.link
	}
	return s.step
}

func (s *Session) setStep(st State) { s.transition(func() { s.step = st }) }
func (s *Session) setLink(st State) { s.transition(func() { s.link = st }) }

func (s *Session) transition(apply func()) {
	s.mu.Lock()
	before := s.currentLocked()
	if s.closed && before == StateClosed {
		s.mu.Unlock()
		return
	}
	apply()
	after := s.currentLocked()
	s.mu.Unlock()

	if after != before {
		util.LogDebug("session state: %s -> %s", before, after)
		s.emit(StateEvent{State: after})
	}
}

func (s *Session) status(text string) {
	s.emit(StatusEvent{Text: text})
}

// fail logs err, emits a FailureEvent and returns err.
func (s *Session) fail(kind FailureKind, text string, err error) error {
	switch kind {
	case FailureProtocol:
		util.LogError("%s: %v", text, err)
	default:
		util.LogWarning("%s (%v)", text, err)
	}
	s.emit(FailureEvent{Kind: kind, Text: text, Err: err})
	return err
}

func (s *Session) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

// ---------------------------------------------------------------------------
// Accessors & lifecycle
// ---------------------------------------------------------------------------

// State returns the current composite state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// Role returns the role claimed by CreateOffer or CreateAnswer, or "".
func (s *Session) Role() config.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Transcript returns a copy of the chat transcript, oldest line first.
func (s *Session) Transcript() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transcript...)
}

// Stats returns the Session's traffic counters.
func (s *Session) Stats() *util.Stats { return &s.stats }

// Close tears down the chat channel and the PeerConnection and stops the
// watchdog. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	before := s.currentLocked()
	s.closed = true
	s.link = StateClosed
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	pc, ch := s.pc, s.ch
	s.mu.Unlock()

	var errs []error
	if ch != nil {
		errs = append(errs, ch.Close())
	}
	if pc != nil {
		errs = append(errs, pc.Close())
	}

	if before != StateClosed {
		s.emit(StateEvent{State: StateClosed})
	}
	return errors.Join(errs...)
}
