package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eventqr/internal/event"
)

func eventOn(id int64, date time.Time, start, end string) event.Event {
	return event.Event{
		ID:        id,
		Name:      fmt.Sprintf("Event %d", id),
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
}

func TestDashboardPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []event.Event{
		eventOn(1, day, "09:00", "11:00"), // ongoing
		eventOn(2, day, "13:00", "15:00"), // upcoming
		eventOn(3, day.AddDate(0, 0, -2), "09:00", "11:00"), // past
	}

	payload := dashboardPayload(events, now, 120, 8, 34)

	totals, ok := payload["events"].(gin.H)
	if !ok {
		t.Fatalf("events totals missing: %#v", payload["events"])
	}
	for key, want := range map[string]int{"total": 3, "upcoming": 1, "ongoing": 1, "past": 1} {
		if got := totals[key]; got != want {
			t.Errorf("events.%s = %v, want %d", key, got, want)
		}
	}
	if got := payload["students"]; got != 120 {
		t.Errorf("students = %v, want 120", got)
	}
	if got := payload["registrations_today"]; got != 8 {
		t.Errorf("registrations_today = %v, want 8", got)
	}
	if got := payload["check_ins_today"]; got != 34 {
		t.Errorf("check_ins_today = %v, want 34", got)
	}
	ongoing, ok := payload["ongoing_events"].([]eventView)
	if !ok || len(ongoing) != 1 || ongoing[0].ID != 1 {
		t.Fatalf("ongoing_events = %#v, want event 1 only", payload["ongoing_events"])
	}
}

// A status-filtered listing pages over the filtered set, so every page is full
// and no match is skipped.
func TestStatusViewsPaging(t *testing.T) {
	now := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	var events []event.Event
	// Five past days interleaved with five upcoming days.
	for i := 1; i <= 5; i++ {
		events = append(events,
			eventOn(int64(i), now.AddDate(0, 0, -i), "09:00", "11:00"),
			eventOn(int64(100+i), now.AddDate(0, 0, i), "09:00", "11:00"),
		)
	}

	past := statusViews(events, event.StatusPast, now)
	if len(past) != 5 {
		t.Fatalf("filtered to %d events, want 5", len(past))
	}
	for _, v := range past {
		if v.Status != event.StatusPast {
			t.Fatalf("event %d has status %q", v.ID, v.Status)
		}
	}

	page1 := pageViews(past, 2, 0)
	page2 := pageViews(past, 2, 2)
	page3 := pageViews(past, 2, 4)
	if len(page1) != 2 || len(page2) != 2 || len(page3) != 1 {
		t.Fatalf("page sizes = %d, %d, %d, want 2, 2, 1", len(page1), len(page2), len(page3))
	}
	seen := map[int64]bool{}
	for _, page := range [][]eventView{page1, page2, page3} {
		for _, v := range page {
			if seen[v.ID] {
				t.Fatalf("event %d appears on two pages", v.ID)
			}
			seen[v.ID] = true
		}
	}
	if len(seen) != 5 {
		t.Fatalf("paging covered %d of 5 matches", len(seen))
	}

	if got := pageViews(past, 2, 10); len(got) != 0 {
		t.Fatalf("offset past the end returned %d rows", len(got))
	}
	if got := statusViews(events, "", now); len(got) != 10 {
		t.Fatalf("unfiltered views = %d, want 10", len(got))
	}
}
