// Package monitoring ingests network samples, evaluates them against static
// thresholds and fans alerts out to the configured notification sinks.
package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ponto-be/internal/models"
)

const (
	PacketLossThresholdPct = 2.0
	LatencyThresholdMs     = 100.0

	ReasonPacketLoss = "packet_loss"
	ReasonLatency    = "latency"
)

// Evaluate checks a sample against the loss and latency thresholds independently.
// It returns false when nothing fired, in which case no notification must be sent.
func Evaluate(s models.NetworkSample) (models.Alert, bool) {
	var reasons, lines []string
	if s.PacketLossPct > PacketLossThresholdPct {
		reasons = append(reasons, ReasonPacketLoss)
		lines = append(lines, fmt.Sprintf("Packet loss: %.2f%%", s.PacketLossPct))
	}
	if s.LatencyMs > LatencyThresholdMs {
		reasons = append(reasons, ReasonLatency)
		lines = append(lines, fmt.Sprintf("Latency: %.2f ms", s.LatencyMs))
	}
	if len(reasons) == 0 {
		return models.Alert{}, false
	}
	// Jitter has no threshold; it is reported alongside any alert that fired.
	if s.JitterMs != nil {
		lines = append(lines, fmt.Sprintf("Jitter: %.2f ms", *s.JitterMs))
	}

	created := s.Time
	if created.IsZero() {
		created = time.Now().UTC()
	}
	header := fmt.Sprintf("Network alert for employee %s (target %s)", s.EmployeeID, s.TargetHost)
	return models.Alert{
		ID:         uuid.NewString(),
		EmployeeID: s.EmployeeID,
		TargetHost: s.TargetHost,
		Reasons:    reasons,
		Message:    header + "\n" + strings.Join(lines, "\n"),
		CreatedAt:  created,
	}, true
}
