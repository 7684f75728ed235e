package handlers

import (
	"net/http"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/rs/zerolog/log"
)

// EmployeeHandler handles administrator employee management.
type EmployeeHandler struct {
	service services.EmployeeServiceProvider
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(service services.EmployeeServiceProvider) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// GetAll lists every employee.
func (h *EmployeeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list employees")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// Create registers a new employee.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}
	var payload services.EmployeeInput
	if err := decode(r, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	emp, err := h.service.CreateEmployee(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Int64("admin_id", claims.EmployeeID).Msg("Failed to create employee")
		writeServiceError(w, err)
		return
	}
	log.Info().Int64("employee_id", emp.ID).Int64("admin_id", claims.EmployeeID).Msg("Employee created")
	writeJSON(w, http.StatusCreated, emp)
}

// Update applies a partial update to an employee.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, models.RoleAdmin); !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var payload services.EmployeePatch
	if err := decode(r, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	emp, err := h.service.UpdateEmployee(r.Context(), id, payload)
	if err != nil {
		log.Warn().Err(err).Int64("employee_id", id).Msg("Failed to update employee")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// Delete removes an employee and their attendance history.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, models.RoleAdmin)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if id == claims.EmployeeID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Administrators cannot delete their own account"})
		return
	}
	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("employee_id", id).Msg("Failed to delete employee")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
