package session

import "fmt"

// State is the composite lifecycle state of a Session. The handshake steps
// (new through remote-applied) are driven by the Session itself; the
// connectivity states are observed from the engine and take precedence once
// reached.
type State int

const (
	StateNew State = iota
	StateDescriptionPending
	StateGathering
	StateDescriptionReady
	StateRemoteApplied
	StateConnecting
	StateConnected
	StateFailed
	StateClosed
)

var stateNames = [...]string{
	StateNew:                "new",
	StateDescriptionPending: "description-pending",
	StateGathering:          "gathering",
	StateDescriptionReady:   "description-ready",
	StateRemoteApplied:      "remote-applied",
	StateConnecting:         "connecting",
	StateConnected:          "connected",
	StateFailed:             "failed",
	StateClosed:             "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FailureKind classifies a FailureEvent.
type FailureKind int

const (
	FailureInput      FailureKind = iota // empty or missing required text
	FailureParse                         // blob does not parse
	FailureProtocol                      // engine rejected a step
	FailureTimeout                       // advisory connect watchdog fired
	FailureConnection                    // ICE reported failed
)

func (k FailureKind) String() string {
	switch k {
	case FailureInput:
		return "input"
	case FailureParse:
		return "parse"
	case FailureProtocol:
		return "protocol"
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		return "connection"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Sender identifies the author of a chat line.
type Sender string

const (
	FromYou  Sender = "you"
	FromPeer Sender = "peer"
)

// Event is a notification emitted by a Session. The concrete types are
// StatusEvent, StateEvent, ChatReadyEvent, MessageEvent and FailureEvent.
type Event interface {
	isEvent()
}

// StatusEvent replaces the single-line status text.
type StatusEvent struct {
	Text string
}

// StateEvent reports a change of Session.State.
type StateEvent struct {
	State State
}

// ChatReadyEvent is emitted once, when the chat surface should appear.
type ChatReadyEvent struct{}

// MessageEvent reports a line appended to the transcript.
type MessageEvent struct {
	From Sender
	Text string // message as sent
	Line string // transcript line, "You: ..." or "Peer: ..."
}

// FailureEvent reports an error or an advisory timeout. Text is meant for
// the status line.
type FailureEvent struct {
	Kind FailureKind
	Text string
	Err  error
}

func (StatusEvent) isEvent()    {}
func (StateEvent) isEvent()     {}
func (ChatReadyEvent) isEvent() {}
func (MessageEvent) isEvent()   {}
func (FailureEvent) isEvent()   {}
