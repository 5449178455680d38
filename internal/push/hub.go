package push

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/web3-frozen/chain-watchdog/internal/metrics"
	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

// Event is the wire envelope for push messages: type "update" once per tick,
// type "alert" once per newly created alert.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans events out to connected WebSocket subscribers. Delivery is
// at-most-once per subscriber per event: a client whose send buffer is full
// is dropped rather than allowed to stall the loop, and there is no replay
// for late joiners.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "push"),
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and registers the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, 16)}
	h.register(c)
	h.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
}

// readPump discards inbound frames; the channel is one-way. A read error
// means the client went away.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.logger.Info("websocket client disconnected", "error", err.Error())
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			h.logger.Warn("websocket write failed", "error", err)
			c.conn.Close()
			return
		}
	}
	// send channel closed by unregister
	c.conn.Close()
}

// Broadcast queues an event to every connected subscriber, dropping clients
// that cannot keep up.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket client")
		h.unregister(c)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishUpdate implements watchdog.Publisher.
func (h *Hub) PublishUpdate(u watchdog.Update) {
	h.Broadcast(Event{Type: "update", Payload: u})
}

// PublishAlert implements watchdog.Publisher.
func (h *Hub) PublishAlert(a watchdog.Alert) {
	h.Broadcast(Event{Type: "alert", Payload: a})
}

var _ watchdog.Publisher = (*Hub)(nil)
