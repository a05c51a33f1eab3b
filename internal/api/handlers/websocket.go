package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/practice-planner/backend/internal/api/middleware"
	ws "github.com/practice-planner/backend/internal/websocket"
)

// WebSocketUpgrade returns a handler that upgrades HTTP connections to
// WebSocket. The handshake's Origin header is checked against the allowed
// origins; CORS does not cover WebSocket upgrades.
func WebSocketUpgrade(hub *ws.Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(hub, middleware.UserID(r))
		hub.Register(client)

		go writePump(conn, client)
		go readPump(conn, client, hub)
	}
}

// originChecker accepts same-origin requests (no Origin header, e.g.
// non-browser clients) and origins on the allow list. "*" allows any.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// writePump pumps messages from the hub to the WebSocket connection. It is
// the connection's only writer; everything outbound goes through the
// client's send channel.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		handleClientMessage(client, message)
	}
}

// handleClientMessage answers application-level pings; everything else is
// ignored, clients only listen. The pong is queued on the send channel so
// writePump stays the connection's single writer.
func handleClientMessage(client *ws.Client, message []byte) {
	msg, err := ws.ParseMessage(message)
	if err != nil {
		return
	}

	if msg.Type == ws.TypePing {
		data, err := ws.NewMessage(ws.TypePong, nil).JSON()
		if err != nil {
			return
		}
		select {
		case client.Send() <- data:
		default:
			// Send buffer full, skip the pong
		}
	}
}
