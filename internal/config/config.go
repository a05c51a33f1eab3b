// Package config loads the server configuration once at startup. It is
// passed down explicitly; nothing reads ambient globals at runtime.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the server process.
type Config struct {
	Addr           string
	DataDir        string
	StaticDir      string
	AllowedOrigins []string
	SessionTTL     time.Duration
	ReminderWindow time.Duration
}

// Load reads configuration from an optional .env file and the environment,
// falling back to defaults suitable for local development.
func Load() *Config {
	// Missing .env is fine; the environment still applies.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		Addr:           getEnv("ADDR", ":8099"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		StaticDir:      getEnv("STATIC_DIR", "./static"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},
		SessionTTL:     getDuration("SESSION_TTL_HOURS", 30*24) * time.Hour,
		ReminderWindow: getDuration("REMINDER_WINDOW_MIN", 10) * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultUnits int64) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return time.Duration(defaultUnits)
}
