package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	defaultMaxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped.
	defaultSendBuffer = 256
)

// Options configures a Hub
type Options struct {
	// AllowedOrigins lists browser origins allowed to connect; "*" allows all
	AllowedOrigins []string

	MaxMessageSize int64
	SendBuffer     int
}

// Client is one websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   room.ConnID
}

// Hub owns the live connections. It feeds inbound messages to a handler
// and implements service.Gateway for outbound delivery.
type Hub struct {
	clients map[room.ConnID]*Client
	mu      sync.RWMutex

	// Unregister requests from clients
	unregister chan *Client

	done     chan struct{}
	handler  service.MessageHandler
	upgrader websocket.Upgrader
	opts     Options
}

var _ service.Gateway = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(opts Options) *Hub {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	policy := newOriginPolicy(opts.AllowedOrigins)
	return &Hub{
		clients:    make(map[room.ConnID]*Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		opts:       opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// SetHandler sets the receiver of inbound messages. It must be called
// before the first connection is served.
func (h *Hub) SetHandler(handler service.MessageHandler) {
	h.handler = handler
}

// Run starts the hub's event loop and returns when ctx is cancelled,
// closing every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// ServeWS upgrades the request and starts the client pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.opts.SendBuffer),
		id:   room.ConnID(uuid.NewString()),
	}

	// Registered before the pumps start so replies to the first message
	// can be delivered
	select {
	case <-h.done:
		conn.Close()
		return
	default:
		h.registerClient(client)
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Deliver queues a payload for one connection without blocking. A client
// whose buffer is full is disconnected.
func (h *Hub) Deliver(conn room.ConnID, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		log.Warn().Str("conn", string(conn)).Msg("send buffer full, closing connection")
		client.conn.Close()
		return false
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Debug().Str("conn", string(client.id)).Int("clients", total).Msg("client registered")
}

// unregisterClient removes a client and closes its send channel
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.id]; ok && current == client {
		delete(h.clients, client.id)
		close(client.send)

		log.Debug().Str("conn", string(client.id)).Int("clients", len(h.clients)).Msg("client unregistered")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
}

// readPump pumps messages from the WebSocket connection to the handler.
// It is the only place a connection's disconnect is reported.
func (c *Client) readPump() {
	defer func() {
		if c.hub.handler != nil {
			c.hub.handler.Disconnect(c.id)
		}
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", string(c.id)).Msg("websocket error")
			}
			break
		}

		if c.hub.handler != nil {
			c.hub.handler.HandleMessage(c.id, message)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Each
// message is written as its own frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
