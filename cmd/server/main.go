// Package main is the entry point for the Practice Planner server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/practice-planner/backend/internal/api"
	"github.com/practice-planner/backend/internal/auth"
	"github.com/practice-planner/backend/internal/config"
	"github.com/practice-planner/backend/internal/planner"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg := config.Load()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting Practice Planner (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DataDir + "/practice-planner.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewEventBroadcaster(hub)

	// Initialize repositories
	eventRepo := storage.NewEventRepository(db)
	clientRepo := storage.NewClientRepository(db)
	userRepo := storage.NewUserRepository(db)

	// Initialize services
	authSvc := auth.NewService(userRepo, cfg.SessionTTL)
	plannerSvc := planner.NewService(eventRepo, clientRepo, broadcaster)

	// Initialize schedulers
	reminder := planner.NewReminder(eventRepo, broadcaster, cfg.ReminderWindow)
	janitor := auth.NewJanitor(authSvc)

	if err := reminder.Start(); err != nil {
		log.Printf("Warning: Failed to start reminder scheduler: %v", err)
	}
	if err := janitor.Start(); err != nil {
		log.Printf("Warning: Failed to start session cleanup: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(cfg, api.Deps{
		DB:          db,
		Hub:         hub,
		Broadcaster: broadcaster,
		Auth:        authSvc,
		Planner:     plannerSvc,
		Events:      eventRepo,
		Clients:     clientRepo,
		Users:       userRepo,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop schedulers
	reminder.Stop()
	janitor.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
