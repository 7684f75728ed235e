package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/ponto-be/internal/database"
	"github.com/isdelr/ponto-be/internal/models"
)

// AttendanceServiceProvider defines the interface for attendance services.
type AttendanceServiceProvider interface {
	RecordPunch(ctx context.Context, employeeID int64, eventType models.EventType, now time.Time) (models.AttendanceEvent, error)
	TodaysEventTypes(ctx context.Context, employeeID int64, now time.Time) ([]models.EventType, error)
	ManualInsert(ctx context.Context, employeeID int64, date string, times map[models.EventType]string) ([]models.AttendanceEvent, error)
	EditEvent(ctx context.Context, id int64, patch EventPatch) (models.AttendanceEvent, error)
	DeleteEvent(ctx context.Context, id int64) error
	MonthlyReport(ctx context.Context, year, month int, employeeID *int64) ([]models.ReportRow, error)
	Location() *time.Location
}

// EventPatch is a partial update of an attendance event. Nil fields are left untouched.
type EventPatch struct {
	Timestamp     *string           `json:"timestamp"`
	Type          *models.EventType `json:"event_type"`
	Justification *string           `json:"justification"`
}

// AttendanceService records punches and answers questions about them.
// Instants are stored in UTC; loc is only used to find local day and month boundaries.
type AttendanceService struct {
	db  *database.DB
	loc *time.Location
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(db *database.DB, loc *time.Location) *AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{db: db, loc: loc}
}

// Location returns the civil time zone used for day boundaries and reports.
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

// RecordPunch appends an event stamped with now. Repeated punches of the same type are accepted.
func (s *AttendanceService) RecordPunch(ctx context.Context, employeeID int64, eventType models.EventType, now time.Time) (models.AttendanceEvent, error) {
	if !eventType.Valid() {
		return models.AttendanceEvent{}, invalid("event_type", string(eventType), ErrInvalidEventType)
	}
	event := models.AttendanceEvent{
		EmployeeID: employeeID,
		Timestamp:  now.UTC(),
		Type:       eventType,
	}
	if err := s.insertEvent(ctx, s.db.DB, &event); err != nil {
		return models.AttendanceEvent{}, err
	}
	return event, nil
}

// TodaysEventTypes returns the distinct punch types recorded between local midnight and now,
// in the usual order of a working day.
func (s *AttendanceService) TodaysEventTypes(ctx context.Context, employeeID int64, now time.Time) ([]models.EventType, error) {
	local := now.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)

	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT DISTINCT event_type FROM attendance_events WHERE employee_id = ? AND timestamp >= ? AND timestamp <= ?"),
		employeeID, midnight.UTC(), now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[models.EventType]bool, len(models.EventTypes))
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		seen[models.EventType(t)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	types := []models.EventType{}
	for _, t := range models.EventTypes {
		if seen[t] {
			types = append(types, t)
		}
	}
	return types, nil
}

// ManualInsert creates one event per non-empty "HH:MM" entry on the given local date.
// Every entry is validated before anything is written, and all events are inserted in one transaction.
func (s *AttendanceService) ManualInsert(ctx context.Context, employeeID int64, date string, times map[models.EventType]string) ([]models.AttendanceEvent, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), s.loc)
	if err != nil {
		return nil, invalid("date", date, ErrInvalidTimestamp)
	}

	for eventType := range times {
		if !eventType.Valid() {
			return nil, invalid("event_type", string(eventType), ErrInvalidEventType)
		}
	}

	justification := models.ManualEntryJustification
	var events []models.AttendanceEvent
	for _, eventType := range models.EventTypes {
		raw := strings.TrimSpace(times[eventType])
		if raw == "" {
			continue
		}
		clock, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, invalid(string(eventType), raw, ErrInvalidTimestamp)
		}
		ts := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc)
		events = append(events, models.AttendanceEvent{
			EmployeeID:    employeeID,
			Timestamp:     ts.UTC(),
			Type:          eventType,
			Justification: &justification,
		})
	}
	if err := s.employeeExists(ctx, employeeID); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []models.AttendanceEvent{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i := range events {
		if err := s.insertEvent(ctx, tx, &events[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}

// EditEvent applies the fields present in patch. The patch is fully validated before the row is touched.
func (s *AttendanceService) EditEvent(ctx context.Context, id int64, patch EventPatch) (models.AttendanceEvent, error) {
	var (
		newTS   time.Time
		hasTS   bool
		newType models.EventType
	)
	if patch.Timestamp != nil {
		ts, err := s.parseTimestamp(*patch.Timestamp)
		if err != nil {
			return models.AttendanceEvent{}, err
		}
		newTS, hasTS = ts, true
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return models.AttendanceEvent{}, invalid("event_type", string(*patch.Type), ErrInvalidEventType)
		}
		newType = *patch.Type
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return models.AttendanceEvent{}, err
	}
	if hasTS {
		event.Timestamp = newTS
	}
	if newType != "" {
		event.Type = newType
	}
	if patch.Justification != nil {
		j := *patch.Justification
		event.Justification = &j
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE attendance_events SET timestamp = ?, event_type = ?, justification = ? WHERE id = ?"),
		event.Timestamp.UTC(), string(event.Type), nullableString(event.Justification), id,
	)
	if err != nil {
		return models.AttendanceEvent{}, err
	}
	return event, nil
}

// DeleteEvent removes a single event.
func (s *AttendanceService) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM attendance_events WHERE id = ?"), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("attendance event %d: %w", id, ErrNotFound)
	}
	return nil
}

// MonthlyReport lists the events of a local calendar month ordered by employee name and timestamp.
// An empty slice is a valid result. Timestamps are returned in the service location.
func (s *AttendanceService) MonthlyReport(ctx context.Context, year, month int, employeeID *int64) ([]models.ReportRow, error) {
	if month < 1 || month > 12 {
		return nil, invalid("month", fmt.Sprint(month), ErrInvalidInput)
	}
	if year < 1 {
		return nil, invalid("year", fmt.Sprint(year), ErrInvalidInput)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	query := `SELECT e.id, u.full_name, u.username, e.timestamp, e.event_type, e.justification
		FROM attendance_events e
		JOIN employees u ON u.id = e.employee_id
		WHERE e.timestamp >= ? AND e.timestamp < ?`
	args := []any{start.UTC(), end.UTC()}
	if employeeID != nil {
		query += " AND e.employee_id = ?"
		args = append(args, *employeeID)
	}
	query += " ORDER BY u.full_name ASC, e.timestamp ASC, e.id ASC"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []models.ReportRow{}
	for rows.Next() {
		var (
			row           models.ReportRow
			eventType     string
			justification sql.NullString
		)
		if err := rows.Scan(&row.EventID, &row.EmployeeName, &row.Username, &row.Timestamp, &eventType, &justification); err != nil {
			return nil, err
		}
		row.Timestamp = row.Timestamp.In(s.loc)
		row.Type = models.EventType(eventType)
		row.Justification = justification.String
		report = append(report, row)
	}
	return report, rows.Err()
}

// parseTimestamp accepts RFC 3339 instants or local wall-clock times without an offset.
func (s *AttendanceService) parseTimestamp(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, invalid("timestamp", raw, ErrInvalidTimestamp)
}

func (s *AttendanceService) getEvent(ctx context.Context, id int64) (models.AttendanceEvent, error) {
	var (
		event         models.AttendanceEvent
		eventType     string
		justification sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT id, employee_id, timestamp, event_type, justification FROM attendance_events WHERE id = ?"), id,
	).Scan(&event.ID, &event.EmployeeID, &event.Timestamp, &eventType, &justification)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AttendanceEvent{}, fmt.Errorf("attendance event %d: %w", id, ErrNotFound)
		}
		return models.AttendanceEvent{}, err
	}
	event.Timestamp = event.Timestamp.UTC()
	event.Type = models.EventType(eventType)
	if justification.Valid {
		event.Justification = &justification.String
	}
	return event, nil
}

func (s *AttendanceService) employeeExists(ctx context.Context, id int64) error {
	var found int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT id FROM employees WHERE id = ?"), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("employee with id %d: %w", id, ErrNotFound)
	}
	return err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *AttendanceService) insertEvent(ctx context.Context, q rowQuerier, event *models.AttendanceEvent) error {
	return q.QueryRowContext(ctx,
		s.db.Rebind("INSERT INTO attendance_events (employee_id, timestamp, event_type, justification) VALUES (?, ?, ?, ?) RETURNING id"),
		event.EmployeeID, event.Timestamp.UTC(), string(event.Type), nullableString(event.Justification),
	).Scan(&event.ID)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
