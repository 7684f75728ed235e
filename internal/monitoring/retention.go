package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/ponto-be/internal/timeseries"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RetentionScheduler periodically prunes samples older than the retention window.
type RetentionScheduler struct {
	store     timeseries.SampleStore
	retention time.Duration
	metrics   *Metrics
	cron      *cron.Cron
	now       func() time.Time
}

// NewRetentionScheduler validates spec (standard five-field cron) and prepares the job.
func NewRetentionScheduler(store timeseries.SampleStore, spec string, retention time.Duration, metrics *Metrics) (*RetentionScheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	s := &RetentionScheduler{
		store:     store,
		retention: retention,
		metrics:   metrics,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *RetentionScheduler) Start() {
	log.Info().Dur("retention", s.retention).Msg("Starting sample retention scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped sample retention scheduler.")
}

// RunOnce prunes everything older than now minus the retention window.
func (s *RetentionScheduler) RunOnce(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := s.store.Prune(ctx, cutoff); err != nil {
		log.Error().Err(err).Str("store", s.store.Name()).Time("cutoff", cutoff).Msg("Retention: failed to prune samples")
		return err
	}
	if s.metrics != nil {
		s.metrics.RetentionRuns.Inc()
	}
	log.Info().Str("store", s.store.Name()).Time("cutoff", cutoff).Msg("Retention: pruned old samples")
	return nil
}
