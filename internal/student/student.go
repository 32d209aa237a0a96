package student

import (
	"errors"
	"regexp"
	"time"
)

// Student is a registered student. Code is the formatted campus identifier
// (e.g. "2024-00001-AB-1") and is what registrations and attendance key on.
// QRCode is the string badges encode; it defaults to Code but survives badge
// re-issues independently.
type Student struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	QRCode    string    `json:"qr_code"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Course    string    `json:"course"`
	YearLevel int       `json:"year_level"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var codePattern = regexp.MustCompile(`^\d{4}-\d{5}-[A-Z]{2}-\d$`)

// ErrBadCode reports a student code that does not match the campus format.
var ErrBadCode = errors.New("student code must match YYYY-NNNNN-XX-N")

// ValidateCode checks the formatted identifier.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return ErrBadCode
	}
	return nil
}
