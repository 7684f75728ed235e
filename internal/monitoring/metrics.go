package monitoring

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes ingestion and alerting counters.
type Metrics struct {
	SamplesIngested prometheus.Counter
	BatchesRejected prometheus.Counter
	StoreFailures   prometheus.Counter
	AlertsRaised    *prometheus.CounterVec
	NotifyFailures  *prometheus.CounterVec
	AppendLatency   prometheus.Histogram
	RetentionRuns   prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "network_samples_ingested_total",
			Help: "Samples successfully appended to the time-series store.",
		}),
		BatchesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "network_batches_rejected_total",
			Help: "Ingestion batches rejected because a line failed to parse or no line carried data.",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "network_store_failures_total",
			Help: "Batches that parsed but could not be written to the time-series store.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "network_alerts_total",
			Help: "Threshold breaches by reason.",
		}, []string{"reason"}),
		NotifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "network_alert_notify_failures_total",
			Help: "Alert deliveries that failed, by sink.",
		}, []string{"sink"}),
		AppendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "network_store_append_seconds",
			Help:    "Time spent writing one batch to the time-series store.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		RetentionRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "network_retention_runs_total",
			Help: "Completed retention prune runs.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SamplesIngested, m.BatchesRejected, m.StoreFailures, m.AlertsRaised, m.NotifyFailures, m.AppendLatency, m.RetentionRuns)
	}
	return m
}
