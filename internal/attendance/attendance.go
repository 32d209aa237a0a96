package attendance

import (
	"errors"
	"time"
)

// Status is the recorded attendance state for one (student, event) pair.
// Absence of a record is distinct from StatusAbsent: no record means the
// student has not been marked at all, while StatusAbsent is written explicitly
// by the absentee sweep after the event ends.
type Status string

const (
	StatusPresent   Status = "present"
	StatusLate      Status = "late"
	StatusAbsent    Status = "absent"
	StatusLeftEarly Status = "left early"
)

// Outcome is what a scan resolved to.
type Outcome string

const (
	OutcomeCheckedIn         Outcome = "checked_in"
	OutcomeAlreadyCheckedIn  Outcome = "already_checked_in"
	OutcomeCheckedOut        Outcome = "checked_out"
	OutcomeAlreadyCheckedOut Outcome = "already_checked_out"
)

// Record is one attendance row.
type Record struct {
	ID           int64      `json:"id"`
	StudentCode  string     `json:"student_code"`
	EventID      int64      `json:"event_id"`
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
	Status       Status     `json:"status"`
	MarkedBy     string     `json:"marked_by,omitempty"`
}

// Registration is a student's signup for an event, independent of attendance.
type Registration struct {
	ID           int64     `json:"id"`
	StudentCode  string    `json:"student_code"`
	EventID      int64     `json:"event_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Failure taxonomy. Handlers map these to the scan response flags; everything
// else surfaces as a database error.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotStarted   = errors.New("event has not started yet")
	ErrEventEnded        = errors.New("event has already ended")
	ErrEventNotEnded     = errors.New("event has not ended yet")
	ErrNotRegistered     = errors.New("student is not registered for this event")
	ErrNotCheckedIn      = errors.New("student has not checked in")
	ErrStudentNotFound   = errors.New("student not found")
	ErrAlreadyRegistered = errors.New("student is already registered for this event")
	ErrBadStatus         = errors.New("check-in status must be present or late")
)
