// Package websocket provides WebSocket connection management and message
// broadcasting, so every open dashboard tab sees calendar changes made in
// any other tab.
package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// envelope is a queued message. An empty userID means every client.
type envelope struct {
	userID string
	data   []byte
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop. Call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected (total: %d)", h.ClientCount())

		case env := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if env.userID != "" && client.userID != env.userID {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					// Send buffer full, drop the connection
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	h.enqueue(envelope{data: message})
}

// BroadcastTo sends a message to every connection of one user. Calendar
// data is owner-scoped, so event and reminder traffic goes through here
// rather than Broadcast.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	h.enqueue(envelope{userID: userID, data: message})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.broadcast <- env:
	default:
		log.Println("Broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client represents one WebSocket connection, tied to the authenticated
// user who opened it.
type Client struct {
	hub    *Hub
	userID string
	send   chan []byte
}

// NewClient creates a new WebSocket client for the given user.
func NewClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, 256),
	}
}

// UserID returns the id of the user who owns this connection.
func (c *Client) UserID() string {
	return c.userID
}

// Send returns the send channel for the client.
func (c *Client) Send() chan []byte {
	return c.send
}
