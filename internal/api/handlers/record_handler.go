package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/report"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/rs/zerolog/log"
)

// RecordHandler handles administrator access to attendance records.
type RecordHandler struct {
	service services.AttendanceServiceProvider
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(service services.AttendanceServiceProvider) *RecordHandler {
	return &RecordHandler{service: service}
}

// ManualPayload is the body of POST /admin/records/manual.
type ManualPayload struct {
	EmployeeID int64                       `json:"employee_id"`
	Date       string                      `json:"date"`
	Times      map[models.EventType]string `json:"times"`
}

func (h *RecordHandler) report(w http.ResponseWriter, r *http.Request) (rows []models.ReportRow, year, month int, ok bool) {
	year, month, err := monthParams(r, h.service.Location())
	if err != nil {
		writeServiceError(w, err)
		return nil, 0, 0, false
	}
	var employeeID *int64
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeServiceError(w, &services.ValidationError{Field: "employee_id", Raw: v, Err: services.ErrInvalidInput})
			return nil, 0, 0, false
		}
		employeeID = &id
	}
	rows, err = h.service.MonthlyReport(r.Context(), year, month, employeeID)
	if err != nil {
		log.Error().Err(err).Int("year", year).Int("month", month).Msg("Failed to build monthly report")
		writeServiceError(w, err)
		return nil, 0, 0, false
	}
	return rows, year, month, true
}

// GetAll returns the monthly report as JSON. An empty month is an empty list.
func (h *RecordHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	rows, _, _, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Export streams the monthly report as an xlsx attachment.
func (h *RecordHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	rows, year, month, ok := h.report(w, r)
	if !ok {
		return
	}
	if len(rows) == 0 {
		writeMsg(w, http.StatusNotFound, "no records found for period")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteAttendanceXLSX(&buf, rows, h.service.Location()); err != nil {
		log.Error().Err(err).Msg("Failed to render xlsx export")
		writeMsg(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(year, month)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Manual inserts events on behalf of an employee.
func (h *RecordHandler) Manual(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}
	var payload ManualPayload
	if err := decode(r, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	events, err := h.service.ManualInsert(r.Context(), payload.EmployeeID, payload.Date, payload.Times)
	if err != nil {
		log.Warn().Err(err).Int64("employee_id", payload.EmployeeID).Msg("Manual insert rejected")
		writeServiceError(w, err)
		return
	}
	log.Info().
		Int64("employee_id", payload.EmployeeID).
		Int64("admin_id", claims.EmployeeID).
		Int("count", len(events)).
		Msg("Manual attendance entries created")
	writeJSON(w, http.StatusCreated, events)
}

// Update edits the timestamp, type or justification of an event.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var patch services.EventPatch
	if err := decode(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}

	event, err := h.service.EditEvent(r.Context(), id, patch)
	if err != nil {
		log.Warn().Err(err).Int64("event_id", id).Msg("Failed to edit attendance event")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete removes one event.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.service.DeleteEvent(r.Context(), id); err != nil {
		log.Warn().Err(err).Int64("event_id", id).Msg("Failed to delete attendance event")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
