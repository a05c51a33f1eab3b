package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/practice-planner/backend/internal/api/handlers"
	"github.com/practice-planner/backend/internal/auth"
	"github.com/practice-planner/backend/internal/config"
	"github.com/practice-planner/backend/internal/planner"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
	"github.com/practice-planner/backend/internal/websocket"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewEventBroadcaster(hub)

	eventRepo := storage.NewEventRepository(db)
	clientRepo := storage.NewClientRepository(db)
	userRepo := storage.NewUserRepository(db)
	authSvc := auth.NewService(userRepo, time.Hour)

	cfg := &config.Config{
		Addr:           ":0",
		StaticDir:      t.TempDir(),
		AllowedOrigins: []string{"*"},
	}

	return NewRouter(cfg, Deps{
		DB:          db,
		Hub:         hub,
		Broadcaster: broadcaster,
		Auth:        authSvc,
		Planner:     planner.NewService(eventRepo, clientRepo, broadcaster),
		Events:      eventRepo,
		Clients:     clientRepo,
		Users:       userRepo,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := doJSON(t, router, "POST", "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Sign-up returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode sign-up response: %v", err)
	}
	return resp.Token
}

func TestRouter_HealthCheck(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, "GET", "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp handlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" || !resp.DBConnected {
		t.Errorf("Unexpected health response: %+v", resp)
	}
}

func TestRouter_EventsRequireAuth(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, "GET", "/api/events", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/events", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", rec.Code)
	}
}

func TestRouter_EventLifecycle(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	// Create a recurring weekly event with an end date
	rec := doJSON(t, router, "POST", "/api/events", token, map[string]any{
		"title":               "Weekly check-in",
		"start_time":          "2025-01-06T09:00:00Z",
		"end_time":            "2025-01-06T10:00:00Z",
		"is_recurring":        true,
		"recurrence_pattern":  "weekly",
		"recurrence_end_date": "2025-01-27",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body.String())
	}

	var created handlers.CreateEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}
	if created.OccurrencesCreated != 3 {
		t.Errorf("Expected 3 occurrences, got %d", created.OccurrencesCreated)
	}
	if created.Event.Color != models.DefaultColor {
		t.Errorf("Expected default color, got %s", created.Event.Color)
	}

	// The list shows the base plus its occurrences
	rec = doJSON(t, router, "GET", "/api/events", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List returned %d", rec.Code)
	}
	var events []models.CalendarEvent
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}

	// Update one occurrence
	occID := created.Event.ID + "_1"
	rec = doJSON(t, router, "PUT", "/api/events/"+occID, token, map[string]any{
		"title":              "Moved session",
		"start_time":         "2025-01-13T11:00:00Z",
		"end_time":           "2025-01-13T12:00:00Z",
		"is_recurring":       true,
		"recurrence_pattern": "weekly",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/events/"+occID, token, nil)
	var got models.CalendarEvent
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if got.Title != "Moved session" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}

	// Delete the whole series from the occurrence
	rec = doJSON(t, router, "DELETE", "/api/events/"+occID+"?mode=all", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/events", token, nil)
	events = nil
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected empty list after series delete, got %d", len(events))
	}
}

func TestRouter_EventOwnership(t *testing.T) {
	router := testRouter(t)
	owner := signUp(t, router, "owner@example.com")
	intruder := signUp(t, router, "intruder@example.com")

	rec := doJSON(t, router, "POST", "/api/events", owner, map[string]any{
		"title":      "Private",
		"start_time": "2025-01-06T09:00:00Z",
		"end_time":   "2025-01-06T10:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d", rec.Code)
	}
	var created handlers.CreateEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}

	// A foreign event reads as 404, not 403, to avoid leaking existence
	rec = doJSON(t, router, "GET", "/api/events/"+created.Event.ID, intruder, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign event, got %d", rec.Code)
	}
	rec = doJSON(t, router, "DELETE", "/api/events/"+created.Event.ID, intruder, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting foreign event, got %d", rec.Code)
	}
}

func TestRouter_CreateEventValidation(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	rec := doJSON(t, router, "POST", "/api/events", token, map[string]any{
		"title":      "",
		"start_time": "2025-01-06T09:00:00Z",
		"end_time":   "2025-01-06T10:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty title, got %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/events", token, map[string]any{
		"title":      "Bad time",
		"start_time": "yesterday",
		"end_time":   "2025-01-06T10:00:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed time, got %d", rec.Code)
	}
}

func TestRouter_WeekView(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	rec := doJSON(t, router, "POST", "/api/events", token, map[string]any{
		"title":      "Session A",
		"start_time": "2025-09-20T09:00:00Z",
		"end_time":   "2025-09-20T10:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/calendar/week?anchor=2025-09-20", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Week view returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp handlers.WeekViewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode week view: %v", err)
	}
	if resp.WeekStart != "2025-09-15" {
		t.Errorf("Expected week start 2025-09-15, got %s", resp.WeekStart)
	}
	if resp.WeekNumber != 38 {
		t.Errorf("Expected week 38, got %d", resp.WeekNumber)
	}
	if len(resp.Slots) != 23 {
		t.Fatalf("Expected 23 slot rows, got %d", len(resp.Slots))
	}

	// 2025-09-20 is Saturday, day index 5; the event occupies only 09:00
	for _, row := range resp.Slots {
		occupied := len(row.Cells[5]) > 0
		if row.Label == "09:00" && !occupied {
			t.Errorf("Expected Session A in the 09:00 row")
		}
		if row.Label != "09:00" && occupied {
			t.Errorf("Unexpected occupant in the %s row", row.Label)
		}
	}
}

func TestRouter_ClientsCRUD(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	rec := doJSON(t, router, "POST", "/api/clients", token, map[string]string{
		"display_name": "Jordan P.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create client returned %d: %s", rec.Code, rec.Body.String())
	}
	var client models.Client
	if err := json.NewDecoder(rec.Body).Decode(&client); err != nil {
		t.Fatalf("Failed to decode client: %v", err)
	}

	rec = doJSON(t, router, "PUT", "/api/clients/"+client.ID, token, map[string]string{
		"display_name": "Jordan Q.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update client returned %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/clients", token, nil)
	var clients []models.Client
	if err := json.NewDecoder(rec.Body).Decode(&clients); err != nil {
		t.Fatalf("Failed to decode clients: %v", err)
	}
	if len(clients) != 1 || clients[0].DisplayName != "Jordan Q." {
		t.Errorf("Unexpected client list: %+v", clients)
	}

	// Another account cannot touch it
	other := signUp(t, router, "other@example.com")
	rec = doJSON(t, router, "DELETE", "/api/clients/"+client.ID, other, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign client, got %d", rec.Code)
	}

	rec = doJSON(t, router, "DELETE", "/api/clients/"+client.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
}

func TestRouter_Profile(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	rec := doJSON(t, router, "PUT", "/api/profile", token, map[string]string{
		"role":      "therapist",
		"full_name": "Dr. Kim",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Put profile returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/profile", token, nil)
	var profile models.Profile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if profile.Role == nil || *profile.Role != "therapist" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}

func TestRouter_ExportICS(t *testing.T) {
	router := testRouter(t)
	token := signUp(t, router, "t@example.com")

	rec := doJSON(t, router, "POST", "/api/events", token, map[string]any{
		"title":              "Weekly check-in",
		"start_time":         "2025-01-06T09:00:00Z",
		"end_time":           "2025-01-06T10:00:00Z",
		"is_recurring":       true,
		"recurrence_pattern": "weekly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/api/events/export.ics", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Export returned %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Expected text/calendar content type, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VEVENT") {
		t.Error("Expected a VEVENT in the export")
	}
	if !strings.Contains(body, "SUMMARY:Weekly check-in") {
		t.Error("Expected the event summary in the export")
	}
	if !strings.Contains(body, "FREQ=WEEKLY") {
		t.Error("Expected an RRULE for the recurring event")
	}
	// Occurrence rows collapse into the base's RRULE
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("Expected 1 VEVENT, got %d", n)
	}
}
