package timeseries

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/isdelr/ponto-be/internal/models"
)

// InfluxStore writes samples as points tagged by employee and target host.
type InfluxStore struct {
	client      influxdb2.Client
	writer      api.WriteAPIBlocking
	org         string
	bucket      string
	measurement string
}

// NewInfluxStore creates a store for the given bucket.
func NewInfluxStore(url, token, org, bucket, measurement string) (*InfluxStore, error) {
	if err := checkIdent(measurement); err != nil {
		return nil, err
	}
	client := influxdb2.NewClient(url, token)
	return &InfluxStore{
		client:      client,
		writer:      client.WriteAPIBlocking(org, bucket),
		org:         org,
		bucket:      bucket,
		measurement: measurement,
	}, nil
}

func (s *InfluxStore) Name() string { return "influxdb" }

// Append sends every sample in a single write request.
func (s *InfluxStore) Append(ctx context.Context, samples []models.NetworkSample) error {
	if len(samples) == 0 {
		return nil
	}
	now := time.Now().UTC()
	points := make([]*write.Point, 0, len(samples))
	for _, sm := range samples {
		points = append(points, s.point(sm, now))
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write %d points: %w", len(points), err)
	}
	return nil
}

func (s *InfluxStore) point(sm models.NetworkSample, now time.Time) *write.Point {
	fields := map[string]interface{}{
		"packet_loss_pct": sm.PacketLossPct,
		"avg_latency_ms":  sm.LatencyMs,
		"download_mbps":   sm.DownloadMbps,
		"upload_mbps":     sm.UploadMbps,
	}
	if sm.JitterMs != nil {
		fields["jitter_ms"] = *sm.JitterMs
	}
	tags := map[string]string{
		"employee_id": sm.EmployeeID,
		"target_host": sm.TargetHost,
	}
	return influxdb2.NewPoint(s.measurement, tags, fields, sampleTime(sm, now))
}

// Prune deletes every point of the measurement older than before.
func (s *InfluxStore) Prune(ctx context.Context, before time.Time) error {
	predicate := fmt.Sprintf(`_measurement="%s"`, s.measurement)
	return s.client.DeleteAPI().DeleteWithName(ctx, s.org, s.bucket, time.Unix(0, 0).UTC(), before.UTC(), predicate)
}

func (s *InfluxStore) Close() error {
	s.client.Close()
	return nil
}

var _ SampleStore = (*InfluxStore)(nil)
