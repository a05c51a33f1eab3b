package handlers

import (
	"net/http"
	"testing"

	ws "github.com/practice-planner/backend/internal/websocket"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"http://localhost:3000"}, "", true},
		{"listed origin", []string{"http://localhost:3000"}, "http://localhost:3000", true},
		{"unlisted origin", []string{"http://localhost:3000"}, "http://evil.example", false},
		{"wildcard", []string{"*"}, "http://anywhere.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/api/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(r); got != tt.want {
				t.Errorf("Expected %v for origin %q", tt.want, tt.origin)
			}
		})
	}
}

func TestHandleClientMessage_PingQueuesPong(t *testing.T) {
	client := ws.NewClient(ws.NewHub(), "u1")

	handleClientMessage(client, []byte(`{"type":"ping"}`))

	select {
	case data := <-client.Send():
		msg, err := ws.ParseMessage(data)
		if err != nil {
			t.Fatalf("Failed to decode reply: %v", err)
		}
		if msg.Type != ws.TypePong {
			t.Errorf("Expected pong, got %s", msg.Type)
		}
	default:
		t.Fatal("Expected a pong on the send channel")
	}
}

func TestHandleClientMessage_IgnoresOtherTraffic(t *testing.T) {
	client := ws.NewClient(ws.NewHub(), "u1")

	handleClientMessage(client, []byte("not json"))
	handleClientMessage(client, []byte(`{"type":"event.created"}`))

	select {
	case data := <-client.Send():
		t.Errorf("Unexpected reply queued: %s", data)
	default:
	}
}
