package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/ponto-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

const maxIngestBody = 2 << 20

// SampleIngestor stores one CSV payload and returns the number of points written.
type SampleIngestor interface {
	Ingest(ctx context.Context, payload string) (int, error)
}

// IngestHandler accepts CSV samples from monitoring agents.
type IngestHandler struct {
	ingestor SampleIngestor
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestor SampleIngestor) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// Data handles POST /data.
func (h *IngestHandler) Data(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"status": "error", "error": "payload too large"})
		return
	}
	payload := string(body)

	n, err := h.ingestor.Ingest(r.Context(), payload)
	var perr *monitoring.ParseError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "points_received": n})
	case errors.Is(err, monitoring.ErrEmptyBatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "no valid data"})
	case errors.As(err, &perr):
		log.Warn().Err(err).Int("line", perr.Line).Str("payload", perr.Payload).Msg("Rejected sample batch")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":  "error",
			"error":   perr.Error(),
			"line":    perr.Line,
			"raw":     perr.Raw,
			"payload": perr.Payload,
		})
	default:
		log.Error().Err(err).Str("payload", payload).Msg("Failed to store sample batch")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "failed to store samples"})
	}
}
