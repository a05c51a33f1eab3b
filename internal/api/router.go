// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/practice-planner/backend/internal/api/handlers"
	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/auth"
	"github.com/practice-planner/backend/internal/config"
	"github.com/practice-planner/backend/internal/planner"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/websocket"
)

// Deps bundles everything the router needs.
type Deps struct {
	DB          *storage.DB
	Hub         *websocket.Hub
	Broadcaster *websocket.EventBroadcaster
	Auth        *auth.Service
	Planner     *planner.Service
	Events      *storage.EventRepository
	Clients     *storage.ClientRepository
	Users       *storage.UserRepository
}

// NewRouter creates and configures the HTTP handler with all API routes.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(deps.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(deps.DB, deps.Hub)).Methods("GET")

	// Auth endpoints (no session required)
	api.HandleFunc("/auth/signup", handlers.SignUp(deps.Auth)).Methods("POST")
	api.HandleFunc("/auth/signin", handlers.SignIn(deps.Auth)).Methods("POST")
	api.HandleFunc("/auth/reset", handlers.RequestPasswordReset(deps.Auth)).Methods("POST")
	api.HandleFunc("/auth/reset/confirm", handlers.ConfirmPasswordReset(deps.Auth)).Methods("POST")

	// Everything below requires a valid session token
	private := api.NewRoute().Subrouter()
	private.Use(middleware.Authenticate(deps.Auth))

	private.HandleFunc("/auth/signout", handlers.SignOut(deps.Auth)).Methods("POST")
	private.HandleFunc("/auth/session", handlers.GetSession(deps.Auth)).Methods("GET")
	private.HandleFunc("/auth/password", handlers.UpdatePassword(deps.Auth)).Methods("PUT")

	// Event endpoints
	private.HandleFunc("/events", handlers.ListEvents(deps.Planner)).Methods("GET")
	private.HandleFunc("/events", handlers.CreateEvent(deps.Planner)).Methods("POST")
	private.HandleFunc("/events/export.ics", handlers.ExportICS(deps.Events)).Methods("GET")
	private.HandleFunc("/events/{id}", handlers.GetEvent(deps.Planner)).Methods("GET")
	private.HandleFunc("/events/{id}", handlers.UpdateEvent(deps.Planner)).Methods("PUT")
	private.HandleFunc("/events/{id}", handlers.DeleteEvent(deps.Planner)).Methods("DELETE")

	// Week grid endpoint
	private.HandleFunc("/calendar/week", handlers.WeekView(deps.Planner)).Methods("GET")

	// Client endpoints
	private.HandleFunc("/clients", handlers.ListClients(deps.Clients)).Methods("GET")
	private.HandleFunc("/clients", handlers.CreateClient(deps.Clients, deps.Broadcaster)).Methods("POST")
	private.HandleFunc("/clients/{id}", handlers.UpdateClient(deps.Clients, deps.Broadcaster)).Methods("PUT")
	private.HandleFunc("/clients/{id}", handlers.DeleteClient(deps.Clients, deps.Broadcaster)).Methods("DELETE")

	// Profile endpoints
	private.HandleFunc("/profile", handlers.GetProfile(deps.Users)).Methods("GET")
	private.HandleFunc("/profile", handlers.PutProfile(deps.Users)).Methods("PUT")

	// WebSocket endpoint
	private.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub, cfg.AllowedOrigins)).Methods("GET")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
