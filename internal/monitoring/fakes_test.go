package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	appends [][]models.NetworkSample
	pruned  []time.Time
	err     error
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Append(_ context.Context, samples []models.NetworkSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.appends = append(f.appends, samples)
	return nil
}

func (f *fakeStore) Prune(_ context.Context, before time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pruned = append(f.pruned, before)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (r *recordingDispatcher) Dispatch(alert models.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

type stubNotifier struct {
	name  string
	err   error
	mu    sync.Mutex
	calls int
	block bool
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(ctx context.Context, _ models.Alert) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func floatPtr(v float64) *float64 { return &v }
