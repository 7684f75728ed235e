package timeseries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/ponto-be/internal/database"
	"github.com/isdelr/ponto-be/internal/models"
)

// SQLStore appends samples to a relational table (TimescaleDB hypertable or plain table).
type SQLStore struct {
	db    *database.DB
	table string
}

// NewSQLStore uses the measurement name as the table name.
func NewSQLStore(db *database.DB, table string) (*SQLStore, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, table: table}, nil
}

func (s *SQLStore) Name() string { return "sql" }

// Init creates the samples table if missing.
func (s *SQLStore) Init(ctx context.Context) error {
	tsType := "TIMESTAMPTZ"
	if s.db.Driver != "postgres" {
		tsType = "DATETIME"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			time %s NOT NULL,
			employee_id TEXT NOT NULL,
			target_host TEXT NOT NULL,
			packet_loss_pct DOUBLE PRECISION NOT NULL,
			avg_latency_ms DOUBLE PRECISION NOT NULL,
			jitter_ms DOUBLE PRECISION,
			download_mbps DOUBLE PRECISION NOT NULL DEFAULT 0,
			upload_mbps DOUBLE PRECISION NOT NULL DEFAULT 0
		)`, s.table, tsType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_employee_time ON %s (employee_id, time)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

// maxRowsPerInsert keeps each INSERT under SQLite's 32766 bind variable limit.
const maxRowsPerInsert = 500

// Append writes the whole batch in one transaction, using multi-row INSERTs of at most
// maxRowsPerInsert rows each.
func (s *SQLStore) Append(ctx context.Context, samples []models.NetworkSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for start := 0; start < len(samples); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(samples))
		query, args := s.insertRows(samples[start:end], now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert samples %d-%d: %w", start, end-1, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) insertRows(samples []models.NetworkSample, now time.Time) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (time, employee_id, target_host, packet_loss_pct, avg_latency_ms, jitter_ms, download_mbps, upload_mbps) VALUES ")

	args := make([]any, 0, len(samples)*8)
	for i, sm := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?,?,?,?,?,?,?,?)")
		args = append(args,
			sampleTime(sm, now),
			sm.EmployeeID,
			sm.TargetHost,
			sm.PacketLossPct,
			sm.LatencyMs,
			nullableFloat(sm.JitterMs),
			sm.DownloadMbps,
			sm.UploadMbps,
		)
	}
	return s.db.Rebind(b.String()), args
}

// Prune deletes samples older than before.
func (s *SQLStore) Prune(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM "+s.table+" WHERE time < ?"), before.UTC())
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ SampleStore = (*SQLStore)(nil)

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
