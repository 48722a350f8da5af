package surface

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/p2plink/internal/session"
	"github.com/1ureka/p2plink/internal/util"
)

// EventsPath is where the Hub accepts WebSocket clients.
const EventsPath = "/events"

const (
	writeWait     = 5 * time.Second
	clientBacklog = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub streams session events to WebSocket clients and forwards their
// "send" frames to a callback. Every client sees every event emitted after
// it connected.
type Hub struct {
	onSend func(text string) bool

	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	listener net.Listener
	closed   bool
}

type hubClient struct {
	conn *websocket.Conn
	out  chan Message
	done chan struct{}
	once sync.Once
}

func (c *hubClient) stop() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewHub creates a Hub. onSend receives the text of each inbound "send"
// frame and reports whether it was delivered; it may be nil.
func NewHub(onSend func(text string) bool) *Hub {
	return &Hub{
		onSend:  onSend,
		clients: make(map[*hubClient]struct{}),
	}
}

// Handler returns an http.Handler serving EventsPath.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(EventsPath, h.handleWS)
	return mux
}

// Start listens on addr and serves the Hub in the background. It returns
// the bound address.
func (h *Hub) Start(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start event hub: %w", err)
	}

	h.mu.Lock()
	h.listener = listener
	h.mu.Unlock()

	go func() {
		if err := http.Serve(listener, h.Handler()); err != nil && !errors.Is(err, net.ErrClosed) {
			util.LogWarning("event hub stopped: %v", err)
		}
	}()

	return listener.Addr(), nil
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &hubClient{
		conn: conn,
		out:  make(chan Message, clientBacklog),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	util.LogDebug("event hub: client connected from %s", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
	util.LogDebug("event hub: client %s left", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *hubClient) {
	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.stop()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) readLoop(c *hubClient) {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != TypeSend {
			continue
		}
		if strings.TrimSpace(msg.Text) == "" || h.onSend == nil {
			continue
		}
		if !h.onSend(msg.Text) {
			h.deliver(c, Message{Type: TypeFailure, Kind: "input", Text: "Chat is not connected yet."})
		}
	}
}

// Handle broadcasts ev to every connected client. A client that cannot keep
// up is disconnected.
func (h *Hub) Handle(ev session.Event) {
	msg, ok := toMessage(ev)
	if !ok {
		return
	}

	h.mu.Lock()
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.deliver(c, msg)
	}
}

func (h *Hub) deliver(c *hubClient, msg Message) {
	select {
	case c.out <- msg:
	case <-c.done:
	default:
		util.LogWarning("event hub: dropping slow client")
		c.stop()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the listener and disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	listener := h.listener
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
	if listener != nil {
		return listener.Close()
	}
	return nil
}
