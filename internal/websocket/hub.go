package eventsws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"go.uber.org/zap"
)

// Hub fans tracker events out to every socket attached to a session.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	log        *zap.Logger
}

type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	hub       *Hub
	conn      conn
	sessionID string
	send      chan []byte
}

type Message struct {
	SessionID string           `json:"-"`
	Type      string           `json:"type"`
	Step      string           `json:"step,omitempty"`
	State     onboarding.State `json:"state"`
	Timestamp string           `json:"timestamp"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

func NewClient(hub *Hub, conn conn, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 16),
	}
}

// Run owns the client registry until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for sessionID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, sessionID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.sessionID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register attaches client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues events for the session's sockets. It never blocks; events
// are dropped when the queue is full.
func (h *Hub) Publish(sessionID string, events ...onboarding.Event) {
	for _, event := range events {
		message := &Message{
			SessionID: sessionID,
			Type:      string(event.Type),
			Step:      string(event.Step),
			State:     event.State,
			Timestamp: event.At.UTC().Format(time.RFC3339),
		}
		select {
		case h.broadcast <- message:
		default:
			h.log.Warn("event queue full, dropping event",
				zap.String("session_id", sessionID),
				zap.String("type", message.Type),
			)
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.sessionID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.sessionID)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		h.log.Error("encode event message", zap.Error(err))
		return
	}

	set, ok := h.clients[message.SessionID]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- encoded:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, message.SessionID)
	}
}

// ReadPump drains inbound frames so closes are noticed. Clients only listen.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
