package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/isdelr/ponto-be/internal/auth"
	"github.com/isdelr/ponto-be/internal/models"
	"github.com/isdelr/ponto-be/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

func newAlertFeedServer(t *testing.T) (*httptest.Server, *websocket.Hub, *auth.TokenIssuer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	srv := httptest.NewServer(NewMonitorRouter(MonitorDeps{
		Ingestor: &fakeIngestor{},
		Hub:      hub,
		Issuer:   issuer,
		Gatherer: prometheus.NewRegistry(),
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub, issuer
}

func dialAlerts(t *testing.T, srv *httptest.Server, query string) (*gorilla.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts" + query
	return gorilla.DefaultDialer.Dial(url, nil)
}

func mustToken(t *testing.T, issuer *auth.TokenIssuer, emp models.Employee) string {
	t.Helper()
	token, err := issuer.Generate(emp)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func readAction(t *testing.T, conn *gorilla.Conn) websocket.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestAlertFeedRequiresToken(t *testing.T) {
	srv, _, issuer := newAlertFeedServer(t)

	_, resp, err := dialAlerts(t, srv, "")
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got resp=%v err=%v", resp, err)
	}

	_, resp, err = dialAlerts(t, srv, "?token=garbage")
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got resp=%v err=%v", resp, err)
	}

	token := mustToken(t, issuer, models.Employee{ID: 2, Username: "ana", Role: models.RoleEmployee})
	_, resp, err = dialAlerts(t, srv, "?employee_id=bob&token="+token)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another employee's topic, got resp=%v err=%v", resp, err)
	}
}

func TestAlertFeedEmployeeSeesOnlyOwnTopic(t *testing.T) {
	srv, hub, issuer := newAlertFeedServer(t)
	token := mustToken(t, issuer, models.Employee{ID: 2, Username: "ana", Role: models.RoleEmployee})

	conn, _, err := dialAlerts(t, srv, "?token="+token)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The pong round-trip guarantees the subscription is registered.
	if err := conn.WriteJSON(websocket.Message{Action: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readAction(t, conn); msg.Action != websocket.ActionPong {
		t.Fatalf("expected pong, got %+v", msg)
	}

	ctx := context.Background()
	bobAlert, _ := websocket.Encode(websocket.ActionAlert, map[string]string{"employee_id": "bob"})
	anaAlert, _ := websocket.Encode(websocket.ActionAlert, map[string]string{"employee_id": "ana"})
	if err := hub.Publish(ctx, "bob", bobAlert); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := hub.Publish(ctx, "ana", anaAlert); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := readAction(t, conn)
	payload, _ := json.Marshal(msg.Payload)
	if msg.Action != websocket.ActionAlert || !strings.Contains(string(payload), `"ana"`) {
		t.Fatalf("expected only ana's alert, got %s %s", msg.Action, payload)
	}
}

func TestAlertFeedAdminMayWatchAnyEmployee(t *testing.T) {
	srv, _, issuer := newAlertFeedServer(t)
	token := mustToken(t, issuer, models.Employee{ID: 1, Username: "root", Role: models.RoleAdmin})

	conn, _, err := dialAlerts(t, srv, "?employee_id=bob&token="+token)
	if err != nil {
		t.Fatalf("admin dial: %v", err)
	}
	conn.Close()
}
