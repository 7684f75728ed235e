package models

import "time"

// EventType identifies which punch an attendance event records.
type EventType string

const (
	EventClockIn  EventType = "clock_in"
	EventLunchOut EventType = "lunch_out"
	EventLunchIn  EventType = "lunch_in"
	EventClockOut EventType = "clock_out"
)

// EventTypes lists the valid punches in the order they normally happen during a day.
var EventTypes = []EventType{EventClockIn, EventLunchOut, EventLunchIn, EventClockOut}

// Valid reports whether t belongs to the fixed set of punches.
func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ManualEntryJustification tags events created by an administrator on behalf of an employee.
const ManualEntryJustification = "manual entry"

// AttendanceEvent is one clock punch.
type AttendanceEvent struct {
	ID            int64     `json:"id"`
	EmployeeID    int64     `json:"employee_id"`
	Timestamp     time.Time `json:"timestamp"`
	Type          EventType `json:"event_type"`
	Justification *string   `json:"justification,omitempty"` // Nullable for regular punches
}

// ReportRow is one line of the monthly attendance report.
type ReportRow struct {
	EventID       int64     `json:"id"`
	EmployeeName  string    `json:"employee_name"`
	Username      string    `json:"username"`
	Timestamp     time.Time `json:"timestamp"`
	Type          EventType `json:"event_type"`
	Justification string    `json:"justification"`
}
