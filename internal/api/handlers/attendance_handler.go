package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AttendanceHandler serves the employee-facing punch endpoints.
type AttendanceHandler struct {
	attendance services.AttendanceServiceProvider
	employees  services.EmployeeServiceProvider
	now        func() time.Time
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendance services.AttendanceServiceProvider, employees services.EmployeeServiceProvider) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, employees: employees, now: time.Now}
}

// Punch records a punch for the caller, stamped with the current instant.
func (h *AttendanceHandler) Punch(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleEmployee)
	if !ok {
		return
	}
	var payload struct {
		Type models.EventType `json:"event_type"`
	}
	if err := decode(r, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	event, err := h.attendance.RecordPunch(r.Context(), claims.EmployeeID, payload.Type, h.now())
	if err != nil {
		if !errors.Is(err, services.ErrInvalidEventType) {
			log.Error().Err(err).Int64("employee_id", claims.EmployeeID).Msg("Failed to record punch")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"msg":   string(event.Type) + " recorded",
		"event": event,
	})
}

// Today returns the caller's name and the punch types already recorded today.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleEmployee)
	if !ok {
		return
	}
	emp, err := h.employees.GetEmployeeByID(r.Context(), claims.EmployeeID)
	if err != nil {
		log.Warn().Err(err).Int64("employee_id", claims.EmployeeID).Msg("Employee from token not found")
		writeServiceError(w, err)
		return
	}
	types, err := h.attendance.TodaysEventTypes(r.Context(), claims.EmployeeID, h.now())
	if err != nil {
		log.Error().Err(err).Int64("employee_id", claims.EmployeeID).Msg("Failed to load today's punches")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"full_name": emp.FullName,
		"role":      emp.Role,
		"today":     types,
	})
}

// MyRecords lists the caller's own events for ?month=&year=.
func (h *AttendanceHandler) MyRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleEmployee)
	if !ok {
		return
	}
	year, month, err := monthParams(r, h.attendance.Location())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rows, err := h.attendance.MonthlyReport(r.Context(), year, month, &claims.EmployeeID)
	if err != nil {
		log.Error().Err(err).Int64("employee_id", claims.EmployeeID).Msg("Failed to load own records")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
