package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control messages
	maxMessageSize = 4 * 1024

	sendBuffer = 256
)

// WebSocketMessage is the envelope of every message on the socket.
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Publisher delivers change events to a user's open connections.
type Publisher interface {
	Publish(userID int64, msg WebSocketMessage)
}

// Client is one websocket connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID int64
}

type envelope struct {
	userID  int64
	payload []byte
}

type directMessage struct {
	client  *Client
	payload []byte
}

// Hub keeps the open connections per user and fans events out to them. All
// of its state is owned by the Run goroutine.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	broadcast  chan envelope
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
}

// NewHub creates a new hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		broadcast:  make(chan envelope, sendBuffer),
		direct:     make(chan directMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Serve registers conn for userID and starts its pumps. It returns
// immediately; the pumps stop when the connection or the hub goes away.
func (h *Hub) Serve(conn *websocket.Conn, userID int64) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), UserID: userID}
	if !h.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// Register adds a client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues msg for every connection of userID. Events are dropped
// when the queue is full or the hub has stopped.
func (h *Hub) Publish(userID int64, msg WebSocketMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal websocket message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- envelope{userID: userID, payload: payload}:
	default:
		h.log.Warn("websocket queue full, dropping event", zap.String("type", msg.Type), zap.Int64("user", userID))
	}
}

func (h *Hub) reply(client *Client, msg WebSocketMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, payload: payload}:
	case <-h.done:
	}
}

// connections must only be called from the Run goroutine or after Run returned.
func (h *Hub) connections(userID int64) int {
	return len(h.clients[userID])
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			return nil
		case client := <-h.register:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.log.Debug("websocket client connected", zap.Int64("user", client.UserID), zap.Int("connections", len(set)))
		case client := <-h.unregister:
			h.drop(client)
		case m := <-h.direct:
			if _, ok := h.clients[m.client.UserID][m.client]; ok {
				h.deliver(m.client, m.payload)
			}
		case e := <-h.broadcast:
			for client := range h.clients[e.userID] {
				h.deliver(client, e.payload)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.log.Warn("websocket send buffer full, removing client", zap.Int64("user", client.UserID))
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	h.log.Debug("websocket client disconnected", zap.Int64("user", client.UserID))
}

// ReadPump reads control messages from the connection until it fails.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read failed", zap.Int64("user", c.UserID), zap.Error(err))
			}
			return
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Debug("ignoring malformed websocket message", zap.Int64("user", c.UserID), zap.Error(err))
			continue
		}
		if msg.Type == "ping" {
			c.hub.reply(c, WebSocketMessage{
				Type: "pong",
				Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
			})
		}
	}
}

// WritePump writes queued messages and keepalive pings to the connection.
func (c *Client) WritePump() {
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
