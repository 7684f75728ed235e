package models

import "time"

// NetworkSample is one decoded measurement line sent by a monitoring agent.
type NetworkSample struct {
	EmployeeID    string    `json:"employee_id"`
	TargetHost    string    `json:"target_host"`
	PacketLossPct float64   `json:"packet_loss_pct"`
	LatencyMs     float64   `json:"avg_latency_ms"`
	JitterMs      *float64  `json:"jitter_ms,omitempty"` // Nil when the agent did not measure it
	DownloadMbps  float64   `json:"download_mbps"`
	UploadMbps    float64   `json:"upload_mbps"`
	Time          time.Time `json:"time"`
	Raw           string    `json:"-"`
}

// Alert is the outcome of evaluating a sample against the static thresholds.
type Alert struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	TargetHost string    `json:"target_host"`
	Reasons    []string  `json:"reasons"` // e.g. "packet_loss", "latency"
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
