package planner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/practice-planner/backend/internal/storage/models"
)

// UpcomingLister is the repository slice the reminder scheduler needs.
type UpcomingLister interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
}

// Reminder periodically scans for events starting soon and pushes a
// one-shot notification for each over the WebSocket hub.
type Reminder struct {
	cron        *cron.Cron
	events      UpcomingLister
	broadcaster Broadcaster
	window      time.Duration

	notified   map[string]time.Time
	notifiedMu sync.Mutex
}

// NewReminder creates a reminder scheduler. window is how far ahead of an
// event's start the notification fires; zero means 10 minutes.
func NewReminder(events UpcomingLister, broadcaster Broadcaster, window time.Duration) *Reminder {
	if window <= 0 {
		window = 10 * time.Minute
	}

	return &Reminder{
		cron:        cron.New(),
		events:      events,
		broadcaster: broadcaster,
		window:      window,
		notified:    make(map[string]time.Time),
	}
}

// Start begins the scan loop.
func (r *Reminder) Start() error {
	if _, err := r.cron.AddFunc("@every 1m", func() {
		r.scan(context.Background(), time.Now())
	}); err != nil {
		return fmt.Errorf("scheduling reminder scan: %w", err)
	}

	r.cron.Start()
	log.Println("Reminder scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (r *Reminder) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder scheduler stopped")
}

// scan broadcasts one notification per event starting within the window.
func (r *Reminder) scan(ctx context.Context, now time.Time) {
	events, err := r.events.ListStartingBetween(ctx, now, now.Add(r.window))
	if err != nil {
		log.Printf("Reminder scan failed: %v", err)
		return
	}

	for i := range events {
		ev := &events[i]
		if !r.markNotified(ev.ID, now) {
			continue
		}
		if r.broadcaster != nil {
			r.broadcaster.Notify(ev.UserID, "info", "Upcoming session",
				fmt.Sprintf("%s starts at %s", ev.Title, ev.StartTime.Format("15:04")))
		}
	}

	r.prune(now)
}

// markNotified records the notification, returning false if one was
// already sent for this event.
func (r *Reminder) markNotified(eventID string, now time.Time) bool {
	r.notifiedMu.Lock()
	defer r.notifiedMu.Unlock()

	if _, seen := r.notified[eventID]; seen {
		return false
	}
	r.notified[eventID] = now
	return true
}

// prune forgets notifications older than a day so the map stays bounded.
func (r *Reminder) prune(now time.Time) {
	r.notifiedMu.Lock()
	defer r.notifiedMu.Unlock()

	for id, at := range r.notified {
		if now.Sub(at) > 24*time.Hour {
			delete(r.notified, id)
		}
	}
}
