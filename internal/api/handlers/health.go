// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	EventsCount     int `json:"events_count"`
	ClientsCount    int `json:"clients_count"`
	ActiveSessions  int `json:"active_sessions"`
	ConnectedSocket int `json:"connected_sockets"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var eventsCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_events").Scan(&eventsCount)

		var clientsCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clients").Scan(&clientsCount)

		var activeSessions int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE expires_at > ?", time.Now().UTC()).Scan(&activeSessions)

		response := StatusResponse{
			EventsCount:     eventsCount,
			ClientsCount:    clientsCount,
			ActiveSessions:  activeSessions,
			ConnectedSocket: hub.ClientCount(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
