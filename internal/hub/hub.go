package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	drepo "AquaWatch/internal/domain/repository"
	applogger "AquaWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// ConnectionEvent is one entry in the bounded connection log.
type ConnectionEvent struct {
	Time   time.Time `json:"time"`
	Remote string    `json:"remote"`
	Event  string    `json:"event"` // connect or disconnect
}

// Status is the hub introspection payload.
type Status struct {
	Connections int               `json:"connections"`
	Recent      []ConnectionEvent `json:"recent"`
}

// Options configures the hub.
type Options struct {
	SendBuffer       int
	HeartbeatTimeout time.Duration
	ConnectionLog    int
}

// Hub fans events out to live websocket subscribers. Delivery is
// best-effort: a subscriber whose send buffer is full at broadcast time is
// dropped rather than allowed to stall the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	opts    Options
	log     *applogger.Logger
	metrics drepo.Metrics

	connLog []ConnectionEvent

	upgrader websocket.Upgrader
}

// NewHub creates a hub.
func NewHub(opts Options, log *applogger.Logger, metrics drepo.Metrics) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 60 * time.Second
	}
	if opts.ConnectionLog <= 0 {
		opts.ConnectionLog = 50
	}
	return &Hub{
		clients: make(map[*Client]bool),
		opts:    opts,
		log:     log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades an HTTP request and runs the subscriber until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.opts.SendBuffer),
		remote: conn.RemoteAddr().String(),
	}
	h.add(client)

	go client.writePump()
	go client.readPump()
	return nil
}

// Publish implements the domain Broadcaster. It never blocks the caller.
func (h *Hub) Publish(event interface{}) {
	delivered, failed := h.Broadcast(event)
	if h.metrics != nil {
		h.metrics.RecordBroadcast(delivered, failed)
	}
}

// Broadcast marshals the event once and enqueues it to every subscriber.
// It returns delivery counts; a full subscriber buffer counts as failed and
// the subscriber is removed.
func (h *Hub) Broadcast(event interface{}) (delivered, failed int) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("broadcast marshal failed", applogger.Error(err))
		return 0, 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
			delivered++
		default:
			failed++
			h.dropLocked(client)
		}
	}
	return delivered, failed
}

// Status reports the subscriber count and the most recent connection events.
func (h *Hub) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	recent := make([]ConnectionEvent, len(h.connLog))
	copy(recent, h.connLog)
	return Status{Connections: len(h.clients), Recent: recent}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.recordLocked(ConnectionEvent{Time: time.Now().UTC(), Remote: client.remote, Event: "connect"})
	h.log.Info("websocket client connected",
		applogger.String("remote", client.remote),
		applogger.Int("connections", len(h.clients)))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

// enqueue hands data to a client's send buffer. The hub lock serializes it
// against dropLocked closing the channel; enqueueing to a dropped client or
// a full buffer reports failure instead of blocking.
func (h *Hub) enqueue(client *Client, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// dropLocked removes a client under the hub lock. Safe to call twice for the
// same client.
func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	if client.conn != nil {
		_ = client.conn.Close()
	}
	h.recordLocked(ConnectionEvent{Time: time.Now().UTC(), Remote: client.remote, Event: "disconnect"})
	h.log.Info("websocket client disconnected",
		applogger.String("remote", client.remote),
		applogger.Int("connections", len(h.clients)))
}

func (h *Hub) recordLocked(ev ConnectionEvent) {
	h.connLog = append(h.connLog, ev)
	if len(h.connLog) > h.opts.ConnectionLog {
		h.connLog = h.connLog[len(h.connLog)-h.opts.ConnectionLog:]
	}
}
