package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"eventqr/internal/attendance"
	"eventqr/internal/event"
)

var header = []string{"Student Code", "Last Name", "First Name", "Course", "Year", "Status", "Check-in", "Check-out"}

func rowOf(e attendance.Entry) []string {
	return []string{
		e.StudentCode,
		e.LastName,
		e.FirstName,
		e.Course,
		fmt.Sprintf("%d", e.YearLevel),
		string(e.Status),
		clock(e.CheckInTime),
		clock(e.CheckOutTime),
	}
}

func clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

// Summary tallies an attendance sheet by status.
func Summary(entries []attendance.Entry) map[attendance.Status]int {
	counts := make(map[attendance.Status]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	return counts
}

// CSV renders the attendance sheet for an event as CSV.
func CSV(ev event.Event, entries []attendance.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write(rowOf(e)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// XLSX renders the attendance sheet as an Excel workbook with the event
// details above the table.
func XLSX(ev event.Event, entries []attendance.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", ev.Name)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("%s %s-%s, %s",
		ev.Date.Format("Jan 2, 2006"), ev.StartTime, ev.EndTime, ev.Location))

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 4)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}
	for i, e := range entries {
		for col, v := range rowOf(e) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+5)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF renders the attendance sheet as a printable PDF table.
func PDF(ev event.Event, entries []attendance.Entry) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, ev.Name)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s  %s-%s  %s",
		ev.Date.Format("Jan 2, 2006"), ev.StartTime, ev.EndTime, ev.Location))
	pdf.Ln(10)

	widths := []float64{40, 40, 40, 35, 15, 30, 25, 25}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, e := range entries {
		for i, v := range rowOf(e) {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 9)
	counts := Summary(entries)
	pdf.Cell(0, 6, fmt.Sprintf("present %d, late %d, left early %d, absent %d",
		counts[attendance.StatusPresent], counts[attendance.StatusLate],
		counts[attendance.StatusLeftEarly], counts[attendance.StatusAbsent]))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
