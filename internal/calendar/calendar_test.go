package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"google.golang.org/api/option"
)

type fakeCalendarAPI struct {
	mu       sync.Mutex
	requests []string
	events   map[string]bool
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	const prefix = "/calendars/primary/events"
	id := ""
	if len(r.URL.Path) > len(prefix)+1 {
		id = r.URL.Path[len(prefix)+1:]
	}

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var ev struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &ev)
		f.events[ev.ID] = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	case http.MethodPut:
		if !f.events[id] {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + id + `"}`))
	case http.MethodDelete:
		if !f.events[id] {
			http.Error(w, `{"error":{"code":410,"message":"Gone"}}`, http.StatusGone)
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeCalendarAPI) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id]
}

func (f *fakeCalendarAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestSync(t *testing.T) (*Sync, *fakeCalendarAPI) {
	t.Helper()
	api := &fakeCalendarAPI{events: make(map[string]bool)}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	s, err := NewSync(context.Background(), "primary", "Australia/Brisbane",
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("new sync: %v", err)
	}
	return s, api
}

func TestApplyFollowsBookedShift(t *testing.T) {
	s, api := newTestSync(t)
	start := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	shift := &domain.Shift{
		ID:         uuid.New(),
		Title:      "Friday fade session",
		Status:     domain.ShiftStatusConfirmed,
		StartTime:  start,
		EndTime:    start.Add(4 * time.Hour),
		HourlyRate: 45,
	}
	id := EventID(shift)

	if err := s.Apply(context.Background(), domain.ShiftEvent{Type: domain.EventShiftAccepted, Shift: shift}); err != nil {
		t.Fatalf("accepted: %v", err)
	}
	if !api.has(id) {
		t.Fatalf("expected calendar event %s to exist", id)
	}

	if err := s.Apply(context.Background(), domain.ShiftEvent{Type: domain.EventShiftTimesChanged, Shift: shift}); err != nil {
		t.Fatalf("times changed: %v", err)
	}

	cancelled := domain.ShiftEvent{Type: domain.EventShiftCancelled, FromStatus: domain.ShiftStatusConfirmed, Shift: shift}
	if err := s.Apply(context.Background(), cancelled); err != nil {
		t.Fatalf("cancelled: %v", err)
	}
	if api.has(id) {
		t.Fatalf("expected calendar event removed")
	}
	// deleting twice is fine
	if err := s.Apply(context.Background(), cancelled); err != nil {
		t.Fatalf("second cancel: %v", err)
	}

	want := []string{
		"PUT /calendars/primary/events/" + id,
		"POST /calendars/primary/events",
		"PUT /calendars/primary/events/" + id,
		"DELETE /calendars/primary/events/" + id,
		"DELETE /calendars/primary/events/" + id,
	}
	got := api.calls()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestApplyIgnoresUnbookedShifts(t *testing.T) {
	s, api := newTestSync(t)
	shift := &domain.Shift{ID: uuid.New(), Status: domain.ShiftStatusOpen}

	events := []domain.ShiftEvent{
		{Type: domain.EventShiftPublished, Shift: shift},
		{Type: domain.EventShiftTimesChanged, Shift: shift},
		{Type: domain.EventShiftCancelled, FromStatus: domain.ShiftStatusOpen, Shift: shift},
		{Type: domain.EventShiftAccepted},
	}
	for _, event := range events {
		if err := s.Apply(context.Background(), event); err != nil {
			t.Fatalf("%s: %v", event.Type, err)
		}
	}
	if got := api.calls(); len(got) != 0 {
		t.Fatalf("expected no calendar calls, got %v", got)
	}
}

func TestEventIDIsCalendarSafe(t *testing.T) {
	id := EventID(&domain.Shift{ID: uuid.MustParse("6f1c2a9e-0b7d-4c1e-9a55-3d2f8e7b6c10")})
	if id != "shift6f1c2a9e0b7d4c1e9a553d2f8e7b6c10" {
		t.Fatalf("unexpected id %s", id)
	}
}
