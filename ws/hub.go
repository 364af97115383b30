package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed over the event feed.
const (
	MsgTypeInit  = "init"
	MsgTypeEvent = "event"
)

// Message is the envelope for every frame on the event feed
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InitData is the first frame a client receives: the full record snapshot
type InitData struct {
	Vehicles          interface{} `json:"vehicles"`
	Maintenance       interface{} `json:"maintenance"`
	SelectedVehicleID string      `json:"selectedVehicleId"`
}

// Client holds one websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans record store events out to every connected client
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	getInitData func() *InitData
}

// NewHub creates a hub with no clients
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetInitDataProvider registers the snapshot callback invoked for every new client
func (h *Hub) SetInitDataProvider(provider func() *InitData) {
	h.getInitData = provider
}

// Run owns the client set, it must be started before any client connects
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			zap.S().Infow("event feed client connected", "total", h.ClientCount())

			h.sendInitData(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			zap.S().Infow("event feed client disconnected", "total", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer, drop the connection
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) sendInitData(client *Client) {
	if h.getInitData == nil {
		return
	}

	initData := h.getInitData()
	if initData == nil {
		return
	}

	data, err := json.Marshal(Message{Type: MsgTypeInit, Data: initData})
	if err != nil {
		zap.S().Errorw("failed to marshal init frame", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		zap.S().Warn("init frame dropped, client buffer full")
	}
}

// Broadcast sends a raw frame to every client
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// BroadcastEvent sends a typed event frame to every client
func (h *Hub) BroadcastEvent(data interface{}) {
	jsonData, err := json.Marshal(Message{Type: MsgTypeEvent, Data: data})
	if err != nil {
		zap.S().Errorw("failed to marshal event frame", "error", err)
		return
	}
	h.Broadcast(jsonData)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub
func (c *Client) Register() {
	c.hub.register <- c
}

// Unregister removes the client from the hub
func (c *Client) Unregister() {
	c.hub.unregister <- c
}

// ReadPump drains inbound frames so pings keep the connection alive.
// The feed is one-way, client messages are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump flushes queued frames until the send channel closes
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
