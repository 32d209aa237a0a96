package event

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Status classifies an event relative to a point in time.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusPast     Status = "past"
)

// Event is a scheduled event. Start and end are times of day on Date,
// stored as zero-padded "HH:MM" strings.
type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Classification is the derived status of an event plus a display string.
type Classification struct {
	Status   Status `json:"status"`
	TimeInfo string `json:"time_info"`
}

// ErrBadClock reports a time-of-day string that is not zero-padded HH:MM.
var ErrBadClock = errors.New("time must be zero-padded HH:MM")

var clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)

// ParseClock parses a zero-padded "HH:MM" (or "HH:MM:SS") time of day. The
// padding is mandatory, not cosmetic: the stored strings order lexically, and
// the schema's start < end check depends on that.
func ParseClock(s string) (time.Duration, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrBadClock
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if h > 23 || min > 59 || sec > 59 {
		return 0, ErrBadClock
	}
	return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second, nil
}

// ValidateTimes checks that both clocks parse and that start precedes end.
func ValidateTimes(startTime, endTime string) error {
	start, err := ParseClock(startTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return errors.New("start_time must be before end_time")
	}
	return nil
}

// StartAt composes the event's start timestamp from its date and start time.
func (e Event) StartAt() time.Time {
	return at(e.Date, e.StartTime)
}

// EndAt composes the event's end timestamp.
func (e Event) EndAt() time.Time {
	return at(e.Date, e.EndTime)
}

func at(date time.Time, clock string) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset, err := ParseClock(clock)
	if err != nil {
		return day
	}
	return day.Add(offset)
}

// Classify resolves an event's status at now. The bounds are inclusive on
// both ends: now == start and now == end both count as ongoing. TimeInfo is a
// display string ("Starts in 1 hr, 5 min", "Ends in 30 min", "Ended 2 hr
// ago"); events more than seven days past show the literal date instead.
func Classify(e Event, now time.Time) Classification {
	start := e.StartAt()
	end := e.EndAt()

	switch {
	case now.Before(start):
		return Classification{Status: StatusUpcoming, TimeInfo: "Starts in " + span(start.Sub(now))}
	case !now.After(end):
		return Classification{Status: StatusOngoing, TimeInfo: "Ends in " + span(end.Sub(now))}
	default:
		elapsed := now.Sub(end)
		if elapsed > 7*24*time.Hour {
			return Classification{Status: StatusPast, TimeInfo: e.Date.Format("Jan 2, 2006")}
		}
		return Classification{Status: StatusPast, TimeInfo: "Ended " + ago(elapsed)}
	}
}

func span(d time.Duration) string {
	mins := int(d.Minutes())
	if mins < 0 {
		mins = 0
	}
	if h := mins / 60; h > 0 {
		return fmt.Sprintf("%d hr, %d min", h, mins%60)
	}
	return fmt.Sprintf("%d min", mins)
}

func ago(d time.Duration) string {
	mins := int(d.Minutes())
	if h := mins / 60; h > 0 {
		return fmt.Sprintf("%d hr ago", h)
	}
	return fmt.Sprintf("%d min ago", mins)
}
