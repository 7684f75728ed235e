package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
)

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness for one of the services.
type HealthHandler struct {
	service string
	started time.Time
	db      Pinger
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, started: time.Now(), db: db}
}

// Check handles GET /healthcheck.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"service":        h.service,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if hostUptime, err := host.UptimeWithContext(r.Context()); err == nil {
		resp["host_uptime_seconds"] = hostUptime
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			log.Error().Err(err).Str("service", h.service).Msg("Health check: database unreachable")
			resp["status"] = "degraded"
			resp["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp["database"] = "ok"
		}
	}
	writeJSON(w, status, resp)
}
