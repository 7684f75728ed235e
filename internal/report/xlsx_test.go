package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteAttendanceXLSX(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	rows := []models.ReportRow{
		{EventID: 1, EmployeeName: "Ana", Username: "ana", Timestamp: time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), Type: models.EventClockIn},
		{EventID: 9, EmployeeName: "Zoe", Username: "zoe", Timestamp: time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC), Type: models.EventClockOut, Justification: models.ManualEntryJustification},
	}

	var buf bytes.Buffer
	if err := WriteAttendanceXLSX(&buf, rows, loc); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(got))
	}
	if got[0][0] != "ID" || got[0][3] != "Timestamp" {
		t.Fatalf("unexpected header %v", got[0])
	}
	if got[1][3] != "04/03/2024 08:00:00" {
		t.Fatalf("timestamp not converted to local time: %q", got[1][3])
	}
	if got[2][0] != "9" || got[2][5] != models.ManualEntryJustification {
		t.Fatalf("unexpected row %v", got[2])
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(2024, 3); got != "attendance_2024_03.xlsx" {
		t.Fatalf("FileName = %q", got)
	}
}
