package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
)

func setupAttendance(t *testing.T) (*AttendanceService, *EmployeeService) {
	t.Helper()
	db := newTestDB(t)
	return NewAttendanceService(db, testLoc), NewEmployeeService(db)
}

func TestRecordPunchRejectsUnknownType(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()

	for _, bad := range []models.EventType{"", "coffee_break", "CLOCK_IN"} {
		_, err := attendance.RecordPunch(ctx, emp.ID, bad, time.Now())
		if !errors.Is(err, ErrInvalidEventType) {
			t.Fatalf("RecordPunch(%q): expected ErrInvalidEventType, got %v", bad, err)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Raw != string(bad) {
			t.Fatalf("RecordPunch(%q): expected raw input in error, got %v", bad, err)
		}
	}
	if n := countRows(t, attendance.db, "SELECT COUNT(*) FROM attendance_events"); n != 0 {
		t.Fatalf("expected nothing persisted, found %d rows", n)
	}
}

func TestRecordPunchAllowsDuplicates(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	first, err := attendance.RecordPunch(ctx, emp.ID, models.EventClockIn, now)
	if err != nil {
		t.Fatalf("first punch: %v", err)
	}
	second, err := attendance.RecordPunch(ctx, emp.ID, models.EventClockIn, now)
	if err != nil {
		t.Fatalf("duplicate punch: %v", err)
	}
	if first.ID == second.ID || !second.Timestamp.Equal(now) {
		t.Fatalf("unexpected events %+v %+v", first, second)
	}
}

func TestTodaysEventTypesUsesLocalDay(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()

	// 2024-03-04 10:00 local (-03:00) is 13:00 UTC; local midnight is 03:00 UTC.
	now := time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC)
	punches := []struct {
		at time.Time
		tp models.EventType
	}{
		{now.Add(2 * time.Hour), models.EventClockOut},                     // after now
		{time.Date(2024, 3, 4, 2, 59, 0, 0, time.UTC), models.EventLunchIn}, // yesterday local
		{time.Date(2024, 3, 4, 3, 0, 0, 0, time.UTC), models.EventLunchOut}, // exactly local midnight
		{time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), models.EventClockIn},
		{now, models.EventClockIn},
	}
	for _, p := range punches {
		if _, err := attendance.RecordPunch(ctx, emp.ID, p.tp, p.at); err != nil {
			t.Fatalf("punch %s: %v", p.tp, err)
		}
	}

	got, err := attendance.TodaysEventTypes(ctx, emp.ID, now)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	want := []models.EventType{models.EventClockIn, models.EventLunchOut}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TodaysEventTypes = %v, want %v", got, want)
	}

	other := mustCreateEmployee(t, employees, "Bob", "bob", models.RoleEmployee)
	got, err = attendance.TodaysEventTypes(ctx, other.ID, now)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no events for another employee, got %v (%v)", got, err)
	}
}

func TestManualInsertSkipsEmptyEntries(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()

	events, err := attendance.ManualInsert(ctx, emp.ID, "2024-03-04", map[models.EventType]string{
		models.EventClockIn:  "08:00",
		models.EventLunchOut: "",
		models.EventLunchIn:  "   ",
		models.EventClockOut: "17:30",
	})
	if err != nil {
		t.Fatalf("manual insert: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	wantIn := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)
	if events[0].Type != models.EventClockIn || !events[0].Timestamp.Equal(wantIn) {
		t.Fatalf("unexpected clock in %+v", events[0])
	}
	if events[1].Type != models.EventClockOut || events[1].Justification == nil || *events[1].Justification != models.ManualEntryJustification {
		t.Fatalf("unexpected clock out %+v", events[1])
	}
	if n := countRows(t, attendance.db, "SELECT COUNT(*) FROM attendance_events WHERE justification = ?", models.ManualEntryJustification); n != 2 {
		t.Fatalf("expected 2 persisted manual events, found %d", n)
	}
}

func TestManualInsertValidatesBeforeWriting(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()

	_, err := attendance.ManualInsert(ctx, emp.ID, "2024-03-04", map[models.EventType]string{
		models.EventClockIn:  "08:00",
		models.EventClockOut: "25:99",
	})
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
	if _, err := attendance.ManualInsert(ctx, emp.ID, "04/03/2024", map[models.EventType]string{models.EventClockIn: "08:00"}); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for bad date, got %v", err)
	}
	if _, err := attendance.ManualInsert(ctx, 404, "2024-03-04", map[models.EventType]string{models.EventClockIn: "08:00"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown employee, got %v", err)
	}
	if n := countRows(t, attendance.db, "SELECT COUNT(*) FROM attendance_events"); n != 0 {
		t.Fatalf("expected no rows after failed inserts, found %d", n)
	}
}

func TestEditEventIsAllOrNothing(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()
	original := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)

	ev, err := attendance.RecordPunch(ctx, emp.ID, models.EventClockIn, original)
	if err != nil {
		t.Fatalf("punch: %v", err)
	}

	badTS := "yesterday-ish"
	newType := models.EventClockOut
	note := "forgot"
	if _, err := attendance.EditEvent(ctx, ev.ID, EventPatch{Timestamp: &badTS, Type: &newType, Justification: &note}); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
	stored, err := attendance.getEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Type != models.EventClockIn || stored.Justification != nil || !stored.Timestamp.Equal(original) {
		t.Fatalf("failed edit must not mutate the event, got %+v", stored)
	}

	localTS := "2024-03-04T09:15"
	edited, err := attendance.EditEvent(ctx, ev.ID, EventPatch{Timestamp: &localTS, Justification: &note})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Type != models.EventClockIn {
		t.Fatalf("type must be unchanged when absent from patch, got %q", edited.Type)
	}
	if !edited.Timestamp.Equal(time.Date(2024, 3, 4, 12, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected edited timestamp %v", edited.Timestamp)
	}
	if edited.Justification == nil || *edited.Justification != note {
		t.Fatalf("unexpected justification %v", edited.Justification)
	}

	if _, err := attendance.EditEvent(ctx, 999, EventPatch{Justification: &note}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	attendance, employees := setupAttendance(t)
	emp := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)
	ctx := context.Background()

	ev, err := attendance.RecordPunch(ctx, emp.ID, models.EventClockIn, time.Now())
	if err != nil {
		t.Fatalf("punch: %v", err)
	}
	if err := attendance.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := attendance.DeleteEvent(ctx, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMonthlyReportOrdering(t *testing.T) {
	attendance, employees := setupAttendance(t)
	ctx := context.Background()
	zoe := mustCreateEmployee(t, employees, "Zoe", "zoe", models.RoleEmployee)
	ana := mustCreateEmployee(t, employees, "Ana", "ana", models.RoleEmployee)

	punch := func(id int64, tp models.EventType, at time.Time) {
		t.Helper()
		if _, err := attendance.RecordPunch(ctx, id, tp, at); err != nil {
			t.Fatalf("punch: %v", err)
		}
	}
	punch(zoe.ID, models.EventClockIn, time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC))
	punch(ana.ID, models.EventClockOut, time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC))
	punch(ana.ID, models.EventClockIn, time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC))
	// 2024-04-01 01:00 UTC is still March 31st locally.
	punch(ana.ID, models.EventClockOut, time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC))
	// 2024-03-01 02:00 UTC is February locally.
	punch(zoe.ID, models.EventClockOut, time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC))

	rows, err := attendance.MonthlyReport(ctx, 2024, 3, nil)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(rows), rows)
	}
	wantNames := []string{"Ana", "Ana", "Ana", "Zoe"}
	for i, r := range rows {
		if r.EmployeeName != wantNames[i] {
			t.Fatalf("row %d name = %s, want %s", i, r.EmployeeName, wantNames[i])
		}
		if i > 0 && r.EmployeeName == rows[i-1].EmployeeName && r.Timestamp.Before(rows[i-1].Timestamp) {
			t.Fatalf("rows not ordered by timestamp: %+v", rows)
		}
	}
	if _, off := rows[0].Timestamp.Zone(); off != -3*3600 {
		t.Fatalf("report timestamps should be local, offset %d", off)
	}

	rows, err = attendance.MonthlyReport(ctx, 2024, 3, &zoe.ID)
	if err != nil || len(rows) != 1 || rows[0].Username != "zoe" {
		t.Fatalf("filtered report = %+v (%v)", rows, err)
	}

	rows, err = attendance.MonthlyReport(ctx, 2023, 1, nil)
	if err != nil || rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil report, got %+v (%v)", rows, err)
	}

	if _, err := attendance.MonthlyReport(ctx, 2024, 13, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for month 13, got %v", err)
	}
}
