// Package surface renders session events for a user: on the terminal, or
// as a JSON event stream for an external page.
package surface

import "github.com/1ureka/p2plink/internal/session"

// Surface consumes session events. Handle runs on the session's callback
// goroutine and must not block.
type Surface interface {
	Handle(ev session.Event)
}

// Multi fans every event out to each surface in order.
type Multi []Surface

func (m Multi) Handle(ev session.Event) {
	for _, s := range m {
		if s != nil {
			s.Handle(ev)
		}
	}
}

// Wire message types.
const (
	TypeStatus    = "status"
	TypeState     = "state"
	TypeChatReady = "chat_ready"
	TypeMessage   = "message"
	TypeFailure   = "failure"
	TypeSend      = "send" // inbound only
)

// Message is the JSON frame exchanged on the event stream.
type Message struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	State string `json:"state,omitempty"`
	From  string `json:"from,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// toMessage converts ev into its wire form.
func toMessage(ev session.Event) (Message, bool) {
	switch e := ev.(type) {
	case session.StatusEvent:
		return Message{Type: TypeStatus, Text: e.Text}, true
	case session.StateEvent:
		return Message{Type: TypeState, State: e.State.String()}, true
	case session.ChatReadyEvent:
		return Message{Type: TypeChatReady}, true
	case session.MessageEvent:
		return Message{Type: TypeMessage, Text: e.Text, From: string(e.From)}, true
	case session.FailureEvent:
		return Message{Type: TypeFailure, Text: e.Text, Kind: e.Kind.String()}, true
	}
	return Message{}, false
}
