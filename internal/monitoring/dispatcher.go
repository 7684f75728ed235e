package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Dispatcher fans alerts out to every notifier in the background.
// Delivery is best effort: failures are logged and counted, never returned.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	metrics   *Metrics
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Each delivery is bounded by timeout.
func NewDispatcher(timeout time.Duration, metrics *Metrics, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout, metrics: metrics}
}

// Dispatch returns immediately; deliveries run on their own goroutines.
func (d *Dispatcher) Dispatch(alert models.Alert) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()
			d.deliver(n, alert)
		}(n)
	}
}

func (d *Dispatcher) deliver(n Notifier, alert models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("sink", n.Name()).Msg("Alert notifier panicked")
			d.countFailure(n.Name())
		}
	}()

	if err := n.Notify(ctx, alert); err != nil {
		log.Warn().Err(err).
			Str("sink", n.Name()).
			Str("alert_id", alert.ID).
			Str("employee_id", alert.EmployeeID).
			Msg("Failed to deliver network alert")
		d.countFailure(n.Name())
		return
	}
	log.Debug().Str("sink", n.Name()).Str("alert_id", alert.ID).Msg("Network alert delivered")
}

func (d *Dispatcher) countFailure(sink string) {
	if d.metrics != nil {
		d.metrics.NotifyFailures.WithLabelValues(sink).Inc()
	}
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
