package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"eventqr/internal/attendance"
	"eventqr/internal/event"
)

func fixtures() (event.Event, []attendance.Entry) {
	ev := event.Event{
		ID:        7,
		Name:      "Orientation",
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "11:00",
		Location:  "Main Hall",
	}
	in := time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)
	out := time.Date(2024, 5, 1, 10, 40, 0, 0, time.UTC)
	entries := []attendance.Entry{
		{StudentCode: "2024-00001-AB-1", FirstName: "Ana", LastName: "Cruz", Course: "BSIT", YearLevel: 2, Status: attendance.StatusPresent, CheckInTime: &in},
		{StudentCode: "2024-00002-AB-1", FirstName: "Ben", LastName: "Diaz", Course: "BSCS", YearLevel: 3, Status: attendance.StatusLeftEarly, CheckInTime: &in, CheckOutTime: &out},
		{StudentCode: "2024-00003-AB-1", FirstName: "Cara", LastName: "Enriquez", Course: "BSIT", YearLevel: 2, Status: attendance.StatusAbsent},
	}
	return ev, entries
}

func TestCSV(t *testing.T) {
	ev, entries := fixtures()
	out, err := CSV(ev, entries)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "Student Code" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "2024-00001-AB-1" || rows[1][5] != "present" || rows[1][6] != "09:05" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[2][5] != "left early" || rows[2][7] != "10:40" {
		t.Fatalf("left-early row = %v", rows[2])
	}
	if rows[3][5] != "absent" || rows[3][6] != "" {
		t.Fatalf("absent row = %v", rows[3])
	}
}

func TestSummary(t *testing.T) {
	_, entries := fixtures()
	counts := Summary(entries)
	if counts[attendance.StatusPresent] != 1 || counts[attendance.StatusLeftEarly] != 1 || counts[attendance.StatusAbsent] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestXLSX(t *testing.T) {
	ev, entries := fixtures()
	out, err := XLSX(ev, entries)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	// xlsx files are zip archives
	if len(out) < 4 || out[0] != 'P' || out[1] != 'K' {
		t.Fatal("output is not a zip archive")
	}
}

func TestPDF(t *testing.T) {
	ev, entries := fixtures()
	out, err := PDF(ev, entries)
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}
