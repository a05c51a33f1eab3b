package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/practice-planner/backend/internal/storage/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func testUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()

	u := &models.User{Email: email, PasswordHash: "x"}
	if err := NewUserRepository(db).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

func testEvent(userID, id, title string, start time.Time) *models.CalendarEvent {
	return &models.CalendarEvent{
		ID:        id,
		UserID:    userID,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Color:     models.DefaultColor,
	}
}

func TestEventRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	start := time.Date(2025, time.September, 20, 9, 0, 0, 0, time.UTC)
	ev := testEvent(user.ID, "", "Session A", start)
	if err := repo.Create(ctx, ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("Expected id assigned on create")
	}

	got, err := repo.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Session A" || !got.StartTime.Equal(start) {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.RecurrencePattern != "" {
		t.Errorf("Expected empty pattern, got %q", got.RecurrencePattern)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}
}

func TestEventRepository_CreateKeepsPresetID(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	ev := testEvent(user.ID, "base_3", "Occurrence", time.Now().UTC())
	if err := repo.Create(ctx, ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ev.ID != "base_3" {
		t.Errorf("Preset id was replaced with %q", ev.ID)
	}
}

func TestEventRepository_ListByUserOrdered(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")
	other := testUser(t, db, "other@example.com")

	base := time.Date(2025, time.September, 20, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Third", "First", "Second"} {
		offsets := []time.Duration{4 * time.Hour, 0, 2 * time.Hour}
		if err := repo.Create(ctx, testEvent(user.ID, "", title, base.Add(offsets[i]))); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := repo.Create(ctx, testEvent(other.ID, "", "Foreign", base)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	events, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if events[i].Title != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, events[i].Title)
		}
	}
}

func TestEventRepository_CreateSeries(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	start := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	base := testEvent(user.ID, "series1", "Weekly", start)
	base.IsRecurring = true
	base.RecurrencePattern = models.RecurrenceWeekly
	base.SeriesID = &base.ID

	occs := make([]models.CalendarEvent, 0, 3)
	for i := 1; i <= 3; i++ {
		occ := *base
		occ.ID = "series1_" + strconv.Itoa(i)
		occ.StartTime = start.AddDate(0, 0, 7*i)
		occ.EndTime = occ.StartTime.Add(time.Hour)
		occs = append(occs, occ)
	}

	if err := repo.CreateSeries(ctx, base, occs); err != nil {
		t.Fatalf("CreateSeries failed: %v", err)
	}

	n, err := repo.CountByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountByUser failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 rows, got %d", n)
	}
}

func TestEventRepository_CreateSeriesRollsBack(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	start := time.Now().UTC()
	base := testEvent(user.ID, "dup", "Base", start)

	// The second occurrence reuses the base id, forcing a constraint
	// failure mid-transaction
	occs := []models.CalendarEvent{
		*testEvent(user.ID, "dup_1", "OK", start.AddDate(0, 0, 1)),
		*testEvent(user.ID, "dup", "Duplicate", start.AddDate(0, 0, 2)),
	}

	if err := repo.CreateSeries(ctx, base, occs); err == nil {
		t.Fatal("Expected constraint error")
	}

	n, err := repo.CountByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountByUser failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected rollback to leave no rows, got %d", n)
	}
}

func TestEventRepository_PartialUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	start := time.Date(2025, time.September, 20, 9, 0, 0, 0, time.UTC)
	ev := testEvent(user.ID, "", "Before", start)
	if err := repo.Create(ctx, ev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	title := "After"
	updated, err := repo.Update(ctx, ev.ID, EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "After" {
		t.Errorf("Expected updated title, got %q", updated.Title)
	}
	if !updated.StartTime.Equal(start) {
		t.Errorf("Untouched field changed: %v", updated.StartTime)
	}

	// Clearing a nullable field needs the double pointer set to nil value
	name := "Someone"
	if _, err := repo.Update(ctx, ev.ID, EventUpdate{ClientName: ptrTo(&name)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	var cleared *string
	updated, err = repo.Update(ctx, ev.ID, EventUpdate{ClientName: &cleared})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ClientName != nil {
		t.Errorf("Expected cleared client name, got %q", *updated.ClientName)
	}

	if _, err := repo.Update(ctx, "missing", EventUpdate{Title: &title}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}
}

func TestEventRepository_DeleteSeries(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	start := time.Now().UTC()
	baseID := "abc"

	base := testEvent(user.ID, baseID, "Base", start)
	base.SeriesID = &baseID
	if err := repo.Create(ctx, base); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// One occurrence with the explicit series id, one legacy row with only
	// the id prefix
	occ := testEvent(user.ID, "abc_1", "Occ", start.AddDate(0, 0, 7))
	occ.SeriesID = &baseID
	if err := repo.Create(ctx, occ); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testEvent(user.ID, "abc_2", "Legacy occ", start.AddDate(0, 0, 14))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Lookalike ids must survive: "abcX..." shares the prefix without the
	// underscore, "abcd_1" belongs to a different base
	if err := repo.Create(ctx, testEvent(user.ID, "abcX", "Unrelated", start)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testEvent(user.ID, "abcd_1", "Other series", start)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := repo.DeleteSeries(ctx, baseID)
	if err != nil {
		t.Fatalf("DeleteSeries failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed, got %d", removed)
	}

	for _, id := range []string{"abcX", "abcd_1"} {
		if _, err := repo.GetByID(ctx, id); err != nil {
			t.Errorf("Lookalike %q was removed: %v", id, err)
		}
	}
}

func TestEventRepository_ListStartingBetween(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	user := testUser(t, db, "t@example.com")

	now := time.Date(2025, time.September, 20, 9, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		title string
		start time.Time
	}{
		{"Past", now.Add(-time.Hour)},
		{"Soon", now.Add(5 * time.Minute)},
		{"Later", now.Add(2 * time.Hour)},
	} {
		if err := repo.Create(ctx, testEvent(user.ID, "", tc.title, tc.start)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	events, err := repo.ListStartingBetween(ctx, now, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("ListStartingBetween failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Soon" {
		t.Errorf("Expected only the upcoming event, got %v", events)
	}
}

func ptrTo[T any](v T) *T {
	return &v
}
