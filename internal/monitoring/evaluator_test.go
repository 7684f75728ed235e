package monitoring

import (
	"reflect"
	"strings"
	"testing"

	"github.com/isdelr/ponto-be/internal/models"
)

func TestEvaluatePacketLossOnly(t *testing.T) {
	alert, ok := Evaluate(models.NetworkSample{EmployeeID: "emp1", TargetHost: "8.8.8.8", PacketLossPct: 2.5, LatencyMs: 50})
	if !ok {
		t.Fatalf("expected alert")
	}
	if !reflect.DeepEqual(alert.Reasons, []string{ReasonPacketLoss}) {
		t.Fatalf("unexpected reasons %v", alert.Reasons)
	}
	lines := strings.Split(alert.Message, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one line, got %q", alert.Message)
	}
	if !strings.Contains(lines[0], "emp1") || !strings.Contains(lines[0], "8.8.8.8") {
		t.Fatalf("header must name employee and host: %q", lines[0])
	}
	if lines[1] != "Packet loss: 2.50%" {
		t.Fatalf("unexpected loss line %q", lines[1])
	}
	if alert.ID == "" {
		t.Fatalf("alert id must be set")
	}
}

func TestEvaluateLatencyWithJitter(t *testing.T) {
	alert, ok := Evaluate(models.NetworkSample{EmployeeID: "emp2", TargetHost: "1.1.1.1", PacketLossPct: 1.0, LatencyMs: 150, JitterMs: floatPtr(5.0)})
	if !ok {
		t.Fatalf("expected alert")
	}
	lines := strings.Split(alert.Message, "\n")
	want := []string{"Latency: 150.00 ms", "Jitter: 5.00 ms"}
	if !reflect.DeepEqual(lines[1:], want) {
		t.Fatalf("lines = %q, want %q", lines[1:], want)
	}
	if !reflect.DeepEqual(alert.Reasons, []string{ReasonLatency}) {
		t.Fatalf("unexpected reasons %v", alert.Reasons)
	}
}

func TestEvaluateBothThresholds(t *testing.T) {
	alert, ok := Evaluate(models.NetworkSample{EmployeeID: "e", TargetHost: "h", PacketLossPct: 10, LatencyMs: 100.01})
	if !ok || len(alert.Reasons) != 2 {
		t.Fatalf("expected both thresholds, got %+v", alert)
	}
	if n := len(strings.Split(alert.Message, "\n")); n != 3 {
		t.Fatalf("expected 3 message lines, got %d", n)
	}
}

func TestEvaluateNoAlert(t *testing.T) {
	cases := []models.NetworkSample{
		{PacketLossPct: 1.0, LatencyMs: 50},
		{PacketLossPct: 2.0, LatencyMs: 100.0},
		{PacketLossPct: 0, LatencyMs: 0, JitterMs: floatPtr(80)},
	}
	for _, s := range cases {
		if alert, ok := Evaluate(s); ok {
			t.Fatalf("unexpected alert for %+v: %+v", s, alert)
		}
	}
}
