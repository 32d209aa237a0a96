package student

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestValidateCode(t *testing.T) {
	valid := []string{"2024-00001-AB-1", "2019-54321-ZX-9"}
	for _, code := range valid {
		if err := ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q): %v", code, err)
		}
	}

	invalid := []string{
		"",
		"2024-00001-AB",     // missing section
		"24-00001-AB-1",     // short year
		"2024-1-AB-1",       // short serial
		"2024-00001-ab-1",   // lowercase section
		"2024-00001-AB-12",  // long suffix
		"2024 00001 AB 1",   // wrong separators
		"x2024-00001-AB-1",  // leading junk
	}
	for _, code := range invalid {
		if err := ValidateCode(code); err == nil {
			t.Errorf("ValidateCode(%q): expected error", code)
		}
	}
}

// Only a unique-constraint violation counts as a duplicate student; ordinary
// database failures must surface unchanged so they are not reported as 409s.
func TestUniqueViolationDetection(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "students_code_key"}
	if !isUniqueViolation(dup) {
		t.Fatal("unique violation not detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("wrapped unique violation not detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "53300"}) {
		t.Fatal("too_many_connections treated as duplicate")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error treated as duplicate")
	}
}

func TestBadgePNG(t *testing.T) {
	s := Student{Code: "2024-00001-AB-1", QRCode: "2024-00001-AB-1"}
	png, err := BadgePNG(s, 0)
	if err != nil {
		t.Fatalf("BadgePNG: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty badge")
	}
	// PNG magic
	if string(png[1:4]) != "PNG" {
		t.Fatalf("not a PNG: % x", png[:8])
	}
}
