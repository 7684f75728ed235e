// Package timeseries persists network samples. Each Append call writes a whole batch or nothing.
package timeseries

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
)

// SampleStore is the append-only sink for decoded samples.
type SampleStore interface {
	Name() string
	Append(ctx context.Context, samples []models.NetworkSample) error
	Prune(ctx context.Context, before time.Time) error
	Close() error
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("timeseries: invalid measurement name %q", name)
	}
	return nil
}

func sampleTime(s models.NetworkSample, fallback time.Time) time.Time {
	if s.Time.IsZero() {
		return fallback
	}
	return s.Time.UTC()
}
