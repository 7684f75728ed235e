package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/timeseries"
	"github.com/rs/zerolog/log"
)

// AlertDispatcher accepts alerts for asynchronous delivery.
type AlertDispatcher interface {
	Dispatch(alert models.Alert)
}

// Ingestor turns one CSV payload into stored samples and alerts.
type Ingestor struct {
	store      timeseries.SampleStore
	dispatcher AlertDispatcher
	metrics    *Metrics
	now        func() time.Time
}

// NewIngestor creates an Ingestor. metrics may be nil.
func NewIngestor(store timeseries.SampleStore, dispatcher AlertDispatcher, metrics *Metrics) *Ingestor {
	return &Ingestor{store: store, dispatcher: dispatcher, metrics: metrics, now: time.Now}
}

// Ingest parses the whole payload before touching the store, raises alerts for the
// parsed samples and then appends them in a single call. It returns the number of samples stored.
func (i *Ingestor) Ingest(ctx context.Context, payload string) (int, error) {
	samples, err := ParseBatch(payload, i.now())
	if err == nil && len(samples) == 0 {
		err = ErrEmptyBatch
	}
	if err != nil {
		if i.metrics != nil {
			i.metrics.BatchesRejected.Inc()
		}
		return 0, err
	}

	// Alerts do not depend on the store write succeeding.
	for _, s := range samples {
		alert, ok := Evaluate(s)
		if !ok {
			continue
		}
		if i.metrics != nil {
			for _, reason := range alert.Reasons {
				i.metrics.AlertsRaised.WithLabelValues(reason).Inc()
			}
		}
		log.Info().
			Str("employee_id", alert.EmployeeID).
			Str("target_host", alert.TargetHost).
			Strs("reasons", alert.Reasons).
			Msg("Network threshold exceeded")
		if i.dispatcher != nil {
			i.dispatcher.Dispatch(alert)
		}
	}

	start := time.Now()
	err = i.store.Append(ctx, samples)
	if i.metrics != nil {
		i.metrics.AppendLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if i.metrics != nil {
			i.metrics.StoreFailures.Inc()
		}
		return 0, fmt.Errorf("append %d samples to %s: %w", len(samples), i.store.Name(), err)
	}
	if i.metrics != nil {
		i.metrics.SamplesIngested.Add(float64(len(samples)))
	}
	return len(samples), nil
}
