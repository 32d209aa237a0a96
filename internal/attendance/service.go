package attendance

import (
	"context"
	"database/sql"
	"time"

	"eventqr/internal/event"
)

// Service coordinates scan resolution. The decision logic itself is pure
// (resolve.go); the service loads the snapshot and applies the decision
// inside a single transaction, with the attendance unique constraint as the
// final guard against concurrent duplicate scans.
type Service struct {
	db           *sql.DB
	repo         *Repository
	events       *event.Repository
	autoRegister bool
}

// NewService creates a service backed by a repository.
func NewService(db *sql.DB, repo *Repository, events *event.Repository, autoRegister bool) *Service {
	return &Service{db: db, repo: repo, events: events, autoRegister: autoRegister}
}

// Result is the applied outcome of a scan.
type Result struct {
	Outcome     Outcome
	Record      *Record
	Event       event.Event
	CanCheckout bool
	LeftEarly   bool
}

// CheckIn records a student's arrival at an event. Fails when the event is
// not ongoing or the student is not registered (unless auto-register is on);
// repeating a check-in resolves to OutcomeAlreadyCheckedIn without writing.
func (s *Service) CheckIn(ctx context.Context, studentCode string, eventID int64, requested Status, staff string, now time.Time) (Result, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Result{}, err
	}
	if ev == nil {
		return Result{}, ErrEventNotFound
	}
	cls := event.Classify(*ev, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	isReg, err := registered(ctx, tx, studentCode, eventID)
	if err != nil {
		return Result{}, err
	}
	rec, err := record(ctx, tx, studentCode, eventID)
	if err != nil {
		return Result{}, err
	}

	decision, err := decideCheckIn(Snapshot{EventStatus: cls.Status, Registered: isReg, Record: rec}, requested, s.autoRegister)
	if err != nil {
		return Result{Event: *ev}, err
	}

	if decision.Outcome == OutcomeAlreadyCheckedIn {
		return Result{Outcome: decision.Outcome, Record: rec, Event: *ev, CanCheckout: decision.CanCheckout}, nil
	}

	if decision.Register {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_registrations (student_code, event_id)
			VALUES ($1, $2)
			ON CONFLICT (student_code, event_id) DO NOTHING
		`, studentCode, eventID); err != nil {
			return Result{}, err
		}
	}

	checkIn := now.UTC()
	out := Record{StudentCode: studentCode, EventID: eventID, CheckInTime: &checkIn, Status: decision.Status, MarkedBy: staff}
	if rec != nil {
		// A pre-existing row without a check-in (an absent mark) gets filled in.
		out.ID = rec.ID
		_, err = tx.ExecContext(ctx, `
			UPDATE attendance SET check_in_time = $3, status = $4, marked_by = $5
			WHERE student_code = $1 AND event_id = $2
		`, studentCode, eventID, checkIn, decision.Status, staff)
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO attendance (student_code, event_id, check_in_time, status, marked_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, studentCode, eventID, checkIn, decision.Status, staff).Scan(&out.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race to a concurrent scan: same answer as a rescan.
			_ = tx.Rollback()
			current, lerr := s.repo.GetRecord(ctx, studentCode, eventID)
			if lerr != nil {
				return Result{}, lerr
			}
			canCheckout := current != nil && current.CheckInTime != nil && current.CheckOutTime == nil
			return Result{Outcome: OutcomeAlreadyCheckedIn, Record: current, Event: *ev, CanCheckout: canCheckout}, nil
		}
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeCheckedIn, Record: &out, Event: *ev}, nil
}

// CheckOut records a student's departure. Leaving before the event's
// scheduled end rewrites the status to "left early".
func (s *Service) CheckOut(ctx context.Context, studentCode string, eventID int64, staff string, now time.Time) (Result, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Result{}, err
	}
	if ev == nil {
		return Result{}, ErrEventNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	rec, err := record(ctx, tx, studentCode, eventID)
	if err != nil {
		return Result{}, err
	}
	decision, err := decideCheckOut(rec, now, ev.EndAt())
	if err != nil {
		return Result{Event: *ev}, err
	}
	if decision.Outcome == OutcomeAlreadyCheckedOut {
		return Result{Outcome: decision.Outcome, Record: rec, Event: *ev}, nil
	}

	checkOut := now.UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE attendance SET check_out_time = $3, status = $4
		WHERE student_code = $1 AND event_id = $2
	`, studentCode, eventID, checkOut, decision.Status); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	rec.CheckOutTime = &checkOut
	rec.Status = decision.Status
	return Result{Outcome: OutcomeCheckedOut, Record: rec, Event: *ev, LeftEarly: decision.LeftEarly}, nil
}

// MarkAbsentees writes absent rows for unmarked registrations of an ended
// event. Running it before the event ends is refused.
func (s *Service) MarkAbsentees(ctx context.Context, eventID int64, now time.Time) (int64, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if ev == nil {
		return 0, ErrEventNotFound
	}
	if event.Classify(*ev, now).Status != event.StatusPast {
		return 0, ErrEventNotEnded
	}
	return s.repo.MarkAbsentees(ctx, eventID)
}

// SweepEnded runs the absentee sweep over every event that ended within the
// lookback window. Safe to repeat: the sweep only inserts missing rows.
func (s *Service) SweepEnded(ctx context.Context, lookback time.Duration, now time.Time) (int64, error) {
	events, err := s.events.EndedSince(ctx, lookback, now)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, ev := range events {
		if event.Classify(ev, now).Status != event.StatusPast {
			continue
		}
		n, err := s.repo.MarkAbsentees(ctx, ev.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// RegisteredEvents returns the events a student is signed up for, for the
// diagnostic block of a failed scan.
func (s *Service) RegisteredEvents(ctx context.Context, studentCode string) ([]event.Event, error) {
	ids, err := s.repo.RegisteredEventIDs(ctx, studentCode)
	if err != nil {
		return nil, err
	}
	var res []event.Event
	for _, id := range ids {
		ev, err := s.events.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			res = append(res, *ev)
		}
	}
	return res, nil
}
