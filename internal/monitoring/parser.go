package monitoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/ponto-be/internal/models"
)

// Column layout of one ingestion line:
//
//	employee_id,target_host,packet_loss_pct,avg_latency_ms,jitter_ms[,download_mbps,upload_mbps]
const (
	colEmployeeID = iota
	colTargetHost
	colPacketLoss
	colLatency
	colJitter
	colDownload
	colUpload
)

const notAvailable = "N/A"

var (
	ErrEmptyBatch    = errors.New("no valid data")
	ErrFieldCount    = errors.New("expected 5 or 7 fields")
	ErrNotNumeric    = errors.New("field is not a finite number")
	ErrMissingField  = errors.New("required field is empty")
	ErrMalformedLine = errors.New("malformed csv")
)

// ParseError rejects a whole batch and carries the offending line and the raw payload.
type ParseError struct {
	Line    int
	Field   string
	Raw     string
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: %s: %v (%q)", e.Line, e.Field, e.Err, e.Raw)
	}
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseBatch decodes every line of payload. Blank lines are skipped. Any malformed
// line fails the whole batch so that nothing is written.
func ParseBatch(payload string, now time.Time) ([]models.NetworkSample, error) {
	r := csv.NewReader(strings.NewReader(payload))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	now = now.UTC()
	var samples []models.NetworkSample
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, &ParseError{Line: line, Raw: lineAt(payload, line), Payload: payload, Err: fmt.Errorf("%w: %v", ErrMalformedLine, err)}
		}
		line, _ := r.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		sample, field, err := parseRecord(record)
		if err != nil {
			return nil, &ParseError{Line: line, Field: field, Raw: strings.Join(record, ","), Payload: payload, Err: err}
		}
		sample.Time = now
		sample.Raw = strings.Join(record, ",")
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseRecord(rec []string) (models.NetworkSample, string, error) {
	if len(rec) != 5 && len(rec) != 7 {
		return models.NetworkSample{}, "", fmt.Errorf("%w, got %d", ErrFieldCount, len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	s := models.NetworkSample{
		EmployeeID: rec[colEmployeeID],
		TargetHost: rec[colTargetHost],
	}
	if s.EmployeeID == "" {
		return s, "employee_id", ErrMissingField
	}
	if s.TargetHost == "" {
		return s, "target_host", ErrMissingField
	}

	var err error
	if s.PacketLossPct, err = parseNumber(rec[colPacketLoss]); err != nil {
		return s, "packet_loss_pct", err
	}
	if s.LatencyMs, err = parseNumber(rec[colLatency]); err != nil {
		return s, "avg_latency_ms", err
	}
	if v := rec[colJitter]; v != "" && !strings.EqualFold(v, notAvailable) {
		jitter, err := parseNumber(v)
		if err != nil {
			return s, "jitter_ms", err
		}
		s.JitterMs = &jitter
	}
	if len(rec) == 7 {
		if s.DownloadMbps, err = parseThroughput(rec[colDownload]); err != nil {
			return s, "download_mbps", err
		}
		if s.UploadMbps, err = parseThroughput(rec[colUpload]); err != nil {
			return s, "upload_mbps", err
		}
	}
	return s, "", nil
}

func parseNumber(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// parseThroughput treats "N/A" and empty as zero.
func parseThroughput(v string) (float64, error) {
	if v == "" || strings.EqualFold(v, notAvailable) {
		return 0, nil
	}
	return parseNumber(v)
}

func lineAt(payload string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(payload, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
