package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Janitor periodically deletes expired sessions so the table stays small.
type Janitor struct {
	cron *cron.Cron
	svc  *Service
}

// NewJanitor creates a session cleanup scheduler.
func NewJanitor(svc *Service) *Janitor {
	return &Janitor{
		cron: cron.New(),
		svc:  svc,
	}
}

// Start begins the cleanup loop.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 1h", func() {
		removed, err := j.svc.PruneSessions(context.Background())
		if err != nil {
			log.Printf("Session cleanup failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Removed %d expired sessions", removed)
		}
	}); err != nil {
		return fmt.Errorf("scheduling session cleanup: %w", err)
	}

	j.cron.Start()
	log.Println("Session cleanup scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Println("Session cleanup scheduler stopped")
}
