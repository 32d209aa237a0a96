package attendance

import (
	"errors"
	"testing"
	"time"

	"eventqr/internal/event"
)

func ts(h, m int) time.Time {
	return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC)
}

func checkedIn(at time.Time) *Record {
	return &Record{ID: 1, StudentCode: "2024-00001-AB-1", EventID: 7, CheckInTime: &at, Status: StatusPresent}
}

func TestDecideCheckIn(t *testing.T) {
	in := ts(9, 30)

	cases := []struct {
		name         string
		snap         Snapshot
		requested    Status
		autoRegister bool
		wantErr      error
		wantOutcome  Outcome
		wantWrite    bool
		wantRegister bool
		wantCheckout bool
	}{
		{
			name:    "event not started",
			snap:    Snapshot{EventStatus: event.StatusUpcoming, Registered: true},
			wantErr: ErrEventNotStarted,
		},
		{
			name:    "event ended",
			snap:    Snapshot{EventStatus: event.StatusPast, Registered: true},
			wantErr: ErrEventEnded,
		},
		{
			name:        "registered and unmarked",
			snap:        Snapshot{EventStatus: event.StatusOngoing, Registered: true},
			wantOutcome: OutcomeCheckedIn,
			wantWrite:   true,
		},
		{
			name:        "late check-in keeps requested status",
			snap:        Snapshot{EventStatus: event.StatusOngoing, Registered: true},
			requested:   StatusLate,
			wantOutcome: OutcomeCheckedIn,
			wantWrite:   true,
		},
		{
			name:      "invalid requested status",
			snap:      Snapshot{EventStatus: event.StatusOngoing, Registered: true},
			requested: StatusAbsent,
			wantErr:   ErrBadStatus,
		},
		{
			name:    "not registered without auto-register",
			snap:    Snapshot{EventStatus: event.StatusOngoing},
			wantErr: ErrNotRegistered,
		},
		{
			name:         "not registered with auto-register",
			snap:         Snapshot{EventStatus: event.StatusOngoing},
			autoRegister: true,
			wantOutcome:  OutcomeCheckedIn,
			wantWrite:    true,
			wantRegister: true,
		},
		{
			name:         "rescan while checked in",
			snap:         Snapshot{EventStatus: event.StatusOngoing, Registered: true, Record: checkedIn(in)},
			wantOutcome:  OutcomeAlreadyCheckedIn,
			wantCheckout: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decideCheckIn(tc.snap, tc.requested, tc.autoRegister)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Outcome != tc.wantOutcome {
				t.Fatalf("outcome = %q, want %q", got.Outcome, tc.wantOutcome)
			}
			if got.WriteRecord != tc.wantWrite {
				t.Fatalf("WriteRecord = %v, want %v", got.WriteRecord, tc.wantWrite)
			}
			if got.Register != tc.wantRegister {
				t.Fatalf("Register = %v, want %v", got.Register, tc.wantRegister)
			}
			if got.CanCheckout != tc.wantCheckout {
				t.Fatalf("CanCheckout = %v, want %v", got.CanCheckout, tc.wantCheckout)
			}
		})
	}
}

// Re-resolving the same scan must never ask for a second write.
func TestDecideCheckInIdempotent(t *testing.T) {
	snap := Snapshot{EventStatus: event.StatusOngoing, Registered: true}
	first, err := decideCheckIn(snap, StatusPresent, false)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Outcome != OutcomeCheckedIn || !first.WriteRecord {
		t.Fatalf("first scan: %+v", first)
	}

	// A second later, the snapshot now carries the row the first scan wrote.
	snap.Record = checkedIn(ts(9, 30))
	second, err := decideCheckIn(snap, StatusPresent, false)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Outcome != OutcomeAlreadyCheckedIn {
		t.Fatalf("second scan outcome = %q", second.Outcome)
	}
	if second.WriteRecord || second.Register {
		t.Fatalf("second scan asked for writes: %+v", second)
	}
}

func TestDecideCheckOut(t *testing.T) {
	end := ts(11, 0)

	t.Run("not checked in", func(t *testing.T) {
		if _, err := decideCheckOut(nil, ts(10, 0), end); !errors.Is(err, ErrNotCheckedIn) {
			t.Fatalf("err = %v", err)
		}
		unmarked := &Record{Status: StatusAbsent}
		if _, err := decideCheckOut(unmarked, ts(10, 0), end); !errors.Is(err, ErrNotCheckedIn) {
			t.Fatalf("absent row err = %v", err)
		}
	})

	t.Run("before end marks left early", func(t *testing.T) {
		got, err := decideCheckOut(checkedIn(ts(9, 30)), ts(10, 0), end)
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeCheckedOut || !got.LeftEarly || got.Status != StatusLeftEarly {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("after end keeps recorded status", func(t *testing.T) {
		got, err := decideCheckOut(checkedIn(ts(9, 30)), ts(11, 30), end)
		if err != nil {
			t.Fatal(err)
		}
		if got.LeftEarly || got.Status != StatusPresent {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("repeat checkout is idempotent", func(t *testing.T) {
		rec := checkedIn(ts(9, 30))
		out := ts(10, 0)
		rec.CheckOutTime = &out
		rec.Status = StatusLeftEarly
		got, err := decideCheckOut(rec, ts(10, 1), end)
		if err != nil {
			t.Fatal(err)
		}
		if got.Outcome != OutcomeAlreadyCheckedOut || got.WriteRecord {
			t.Fatalf("got %+v", got)
		}
	})
}
