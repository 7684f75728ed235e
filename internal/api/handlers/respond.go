package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ponto-be/internal/auth"
	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/rs/zerolog/log"
)

// forbiddenMsg never says whether the target resource exists.
const forbiddenMsg = "Admin access required!"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeServiceError maps service and auth errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": verr.Error(), "field": verr.Field, "raw": verr.Raw})
	case errors.Is(err, services.ErrNotFound):
		writeMsg(w, http.StatusNotFound, "Not found")
	case errors.Is(err, auth.ErrForbidden):
		writeMsg(w, http.StatusForbidden, forbiddenMsg)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMsg(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, services.ErrUsernameTaken):
		writeMsg(w, http.StatusConflict, "Username already exists")
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		writeMsg(w, http.StatusInternalServerError, "Internal server error")
	}
}

// authorize checks the verified claims against role. It writes the response itself when access is denied.
func authorize(w http.ResponseWriter, r *http.Request, role models.Role) (*auth.Claims, bool) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMsg(w, http.StatusUnauthorized, "Missing authorization token")
		return nil, false
	}
	if err := auth.RequireRole(claims, role); err != nil {
		log.Warn().Int64("employee_id", claims.EmployeeID).Str("path", r.URL.Path).Msg("Role check failed")
		writeServiceError(w, err)
		return nil, false
	}
	return claims, true
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Field: "id", Raw: raw, Err: services.ErrInvalidInput}
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &services.ValidationError{Field: "body", Raw: err.Error(), Err: services.ErrInvalidInput}
	}
	return nil
}

// monthParams reads ?month=&year=, defaulting to the current month in loc.
func monthParams(r *http.Request, loc *time.Location) (year, month int, err error) {
	now := time.Now().In(loc)
	year, month = now.Year(), int(now.Month())
	q := r.URL.Query()
	if v := q.Get("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, &services.ValidationError{Field: "month", Raw: v, Err: services.ErrInvalidInput}
		}
	}
	if v := q.Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, &services.ValidationError{Field: "year", Raw: v, Err: services.ErrInvalidInput}
		}
	}
	return year, month, nil
}
