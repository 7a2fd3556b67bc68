package ws

import (
	"github.com/gorilla/websocket" // WebSocket connections
	"github.com/sirupsen/logrus"   // Logging library
)

// Message is the envelope for every frame on the telemetry channel
type Message struct {
	Type string `json:"type"`           // Frame type: MINING_UPDATE, PING, PONG, BALANCE_UPDATE, ERROR
	Data any    `json:"data,omitempty"` // Type-specific payload
}

// Client is one connected miner
type Client struct {
	UserID uint            // Authenticated user
	Conn   *websocket.Conn // Underlying connection
}

// Hub tracks connected miners and routes targeted pushes. All map access
// happens on the run loop goroutine; callers only touch the channels.
type Hub struct {
	clients    map[uint]*websocket.Conn // Connected miners by user id
	register   chan *Client             // New connections
	unregister chan *Client             // Dropped connections
	send       chan *targetedMessage    // Outbound pushes
}

// targetedMessage pairs a frame with its recipient; a zero UserID broadcasts
type targetedMessage struct {
	UserID  uint     // Recipient, 0 for everyone
	Message *Message // Frame to deliver
}

// NewHub creates the hub and starts its run loop
func NewHub() *Hub {
	hub := &Hub{
		clients:    make(map[uint]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan *targetedMessage, 100),
	}
	go hub.run()
	return hub
}

// Register announces a new connection to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a dropped connection from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Push queues a frame for one user; it is dropped if they are offline
func (h *Hub) Push(userID uint, msg *Message) {
	h.send <- &targetedMessage{UserID: userID, Message: msg}
}

// Broadcast queues a frame for every connected miner
func (h *Hub) Broadcast(msg *Message) {
	h.send <- &targetedMessage{Message: msg}
}

// run owns the client map
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.UserID] = client.Conn
			logrus.WithField("user_id", client.UserID).Info("Miner connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
				logrus.WithField("user_id", client.UserID).Info("Miner disconnected")
			}

		case tm := <-h.send:
			if tm.UserID != 0 {
				if conn, ok := h.clients[tm.UserID]; ok {
					_ = conn.WriteJSON(tm.Message)
				}
			} else {
				for _, conn := range h.clients {
					_ = conn.WriteJSON(tm.Message)
				}
			}
		}
	}
}
