package attendance

import (
	"time"

	"eventqr/internal/event"
)

// Snapshot is the state a check-in decision depends on, loaded inside the
// same transaction that applies the decision.
type Snapshot struct {
	EventStatus event.Status
	Registered  bool
	Record      *Record // nil when the student has not been marked
}

// Decision is the pure result of resolving a scan. The service applies the
// writes it calls for; nothing here touches storage.
type Decision struct {
	Outcome     Outcome
	Status      Status // status to record when writing
	Register    bool   // create the missing registration (auto-register)
	WriteRecord bool   // insert or fill the attendance row
	CanCheckout bool   // already checked in and not yet out
	LeftEarly   bool   // check-out happened before the event end
}

// decideCheckIn resolves a check-in scan against a snapshot. Check-ins are
// only accepted while the event is ongoing. Re-scanning an already checked-in
// student is not an error: it resolves to OutcomeAlreadyCheckedIn with no
// writes, which keeps the resolver idempotent.
func decideCheckIn(snap Snapshot, requested Status, autoRegister bool) (Decision, error) {
	switch snap.EventStatus {
	case event.StatusUpcoming:
		return Decision{}, ErrEventNotStarted
	case event.StatusPast:
		return Decision{}, ErrEventEnded
	}

	if requested == "" {
		requested = StatusPresent
	}
	if requested != StatusPresent && requested != StatusLate {
		return Decision{}, ErrBadStatus
	}

	if rec := snap.Record; rec != nil && rec.CheckInTime != nil {
		return Decision{
			Outcome:     OutcomeAlreadyCheckedIn,
			Status:      rec.Status,
			CanCheckout: rec.CheckOutTime == nil,
		}, nil
	}

	if !snap.Registered {
		if !autoRegister {
			return Decision{}, ErrNotRegistered
		}
		return Decision{Outcome: OutcomeCheckedIn, Status: requested, Register: true, WriteRecord: true}, nil
	}

	return Decision{Outcome: OutcomeCheckedIn, Status: requested, WriteRecord: true}, nil
}

// decideCheckOut resolves a check-out scan. Checking out before the event's
// scheduled end rewrites the status to "left early"; at or after the end the
// originally recorded status stands. Repeated check-outs are idempotent.
func decideCheckOut(rec *Record, now, eventEnd time.Time) (Decision, error) {
	if rec == nil || rec.CheckInTime == nil {
		return Decision{}, ErrNotCheckedIn
	}
	if rec.CheckOutTime != nil {
		return Decision{Outcome: OutcomeAlreadyCheckedOut, Status: rec.Status}, nil
	}
	d := Decision{Outcome: OutcomeCheckedOut, Status: rec.Status, WriteRecord: true}
	if now.Before(eventEnd) {
		d.Status = StatusLeftEarly
		d.LeftEarly = true
	}
	return d, nil
}
