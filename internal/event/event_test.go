package event

import (
	"testing"
	"time"
)

func sample() Event {
	return Event{
		ID:        7,
		Name:      "Orientation",
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "11:00",
		Location:  "Main Hall",
	}
}

func TestClassify(t *testing.T) {
	ev := sample()

	cases := []struct {
		name     string
		now      time.Time
		status   Status
		timeInfo string
	}{
		{"hour before start", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), StatusUpcoming, "Starts in 1 hr, 0 min"},
		{"minutes before start", time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC), StatusUpcoming, "Starts in 15 min"},
		{"exactly at start", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), StatusOngoing, "Ends in 2 hr, 0 min"},
		{"midway", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), StatusOngoing, "Ends in 1 hr, 0 min"},
		{"exactly at end", time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), StatusOngoing, "Ends in 0 min"},
		{"ended ninety minutes ago", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), StatusPast, "Ended 1 hr ago"},
		{"ended minutes ago", time.Date(2024, 5, 1, 11, 20, 0, 0, time.UTC), StatusPast, "Ended 20 min ago"},
		{"long past shows date", time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC), StatusPast, "May 1, 2024"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(ev, tc.now)
			if got.Status != tc.status {
				t.Fatalf("status = %q, want %q", got.Status, tc.status)
			}
			if got.TimeInfo != tc.timeInfo {
				t.Fatalf("time info = %q, want %q", got.TimeInfo, tc.timeInfo)
			}
		})
	}
}

// The three statuses must be mutually exclusive and exhaustive over now.
func TestClassifyExhaustive(t *testing.T) {
	ev := sample()
	start := ev.StartAt()
	end := ev.EndAt()

	for now := start.Add(-3 * time.Hour); now.Before(end.Add(3 * time.Hour)); now = now.Add(7 * time.Minute) {
		got := Classify(ev, now)
		var want Status
		switch {
		case now.Before(start):
			want = StatusUpcoming
		case !now.After(end):
			want = StatusOngoing
		default:
			want = StatusPast
		}
		if got.Status != want {
			t.Fatalf("at %s: status = %q, want %q", now, got.Status, want)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"09:00", 9 * time.Hour, false},
		{"23:59", 23*time.Hour + 59*time.Minute, false},
		{"10:30:15", 10*time.Hour + 30*time.Minute + 15*time.Second, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"09:5", 0, true},
		{"09:00junk", 0, true},
		{" 09:00", 0, true},
		{"morning", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValidateTimes(t *testing.T) {
	if err := ValidateTimes("09:00", "11:00"); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if err := ValidateTimes("11:00", "09:00"); err == nil {
		t.Fatal("inverted range accepted")
	}
	if err := ValidateTimes("11:00", "11:00"); err == nil {
		t.Fatal("zero-length range accepted")
	}
	if err := ValidateTimes("eleven", "12:00"); err == nil {
		t.Fatal("unparseable start accepted")
	}
}

// Accepted clock strings must order lexically the same way they order in time,
// because the schema compares start_time < end_time as text.
func TestValidateTimesLexicalOrder(t *testing.T) {
	cases := [][2]string{
		{"9:00", "10:00"},
		{"9:05", "9:30"},
		{"8:00", "17:00"},
	}
	for _, tc := range cases {
		if err := ValidateTimes(tc[0], tc[1]); err == nil {
			t.Errorf("ValidateTimes(%q, %q): unpadded input accepted, but %q < %q is false as text",
				tc[0], tc[1], tc[0], tc[1])
		}
	}
	if err := ValidateTimes("09:00", "10:00"); err != nil {
		t.Fatalf("padded range rejected: %v", err)
	}
}
