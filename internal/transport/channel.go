package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ErrChannelNotOpen is returned by Send when the channel is not open yet or
// has already closed. Nothing is queued.
var ErrChannelNotOpen = errors.New("transport: data channel not open")

// ChannelHandlers are the callbacks a Channel forwards. Any may be nil.
// They run on pion's goroutines and must not block.
type ChannelHandlers struct {
	OnOpen  func()
	OnClose func()
	OnText  func(text string)
	OnError func(err error)
}

// Channel wraps a pion DataChannel carrying plain-text chat messages.
//
// Its lifecycle mirrors the DataChannel: Ready is closed on open, Done on
// close. Both fire at most once.
type Channel struct {
	raw *webrtc.DataChannel

	openSignal chan struct{}
	doneSignal chan struct{}
}

// NewChannel wraps raw and registers h on it. Call it before the channel
// opens; a handler registered late still sees the open event.
func NewChannel(raw *webrtc.DataChannel, h ChannelHandlers) *Channel {
	c := &Channel{
		raw:        raw,
		openSignal: make(chan struct{}),
		doneSignal: make(chan struct{}),
	}

	var openOnce, closeOnce sync.Once

	raw.OnOpen(func() {
		openOnce.Do(func() { close(c.openSignal) })
		if h.OnOpen != nil {
			h.OnOpen()
		}
	})

	raw.OnClose(func() {
		closeOnce.Do(func() { close(c.doneSignal) })
		if h.OnClose != nil {
			h.OnClose()
		}
	})

	raw.OnMessage(func(msg webrtc.DataChannelMessage) {
		if h.OnText != nil {
			h.OnText(string(msg.Data))
		}
	})

	raw.OnError(func(err error) {
		if h.OnError != nil {
			h.OnError(err)
		}
	})

	return c
}

// Ready returns a channel that is closed once the DataChannel is open.
func (c *Channel) Ready() <-chan struct{} { return c.openSignal }

// Done returns a channel that is closed once the DataChannel has closed.
func (c *Channel) Done() <-chan struct{} { return c.doneSignal }

// Label returns the DataChannel label.
func (c *Channel) Label() string { return c.raw.Label() }

// IsOpen reports whether the DataChannel currently reports itself open.
func (c *Channel) IsOpen() bool {
	return c.raw.ReadyState() == webrtc.DataChannelStateOpen
}

// Send delivers text if and only if the channel is open.
func (c *Channel) Send(text string) error {
	if !c.IsOpen() {
		return ErrChannelNotOpen
	}
	return c.raw.SendText(text)
}

// Close closes the underlying DataChannel.
func (c *Channel) Close() error { return c.raw.Close() }
