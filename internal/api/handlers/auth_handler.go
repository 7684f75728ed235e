package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/ponto-be/internal/auth"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	service      services.EmployeeServiceProvider
	issuer       *auth.TokenIssuer
	ttl          time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.EmployeeServiceProvider, issuer *auth.TokenIssuer, ttl time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, issuer: issuer, ttl: ttl, secureCookie: secureCookie}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an employee and returns a signed access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decode(r, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	emp, err := h.service.AuthenticateEmployee(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		writeServiceError(w, err)
		return
	}

	token, err := h.issuer.Generate(emp)
	if err != nil {
		log.Error().Err(err).Int64("employee_id", emp.ID).Msg("Failed to generate JWT")
		writeMsg(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.ttl),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"role":         emp.Role,
		"full_name":    emp.FullName,
	})
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}
