package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/ponto-be/internal/auth"
	ws "github.com/isdelr/ponto-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades connections to the live alert feed.
type WebSocketHandler struct {
	hub      *ws.Hub
	issuer   *auth.TokenIssuer
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. An empty origin list allows every origin.
func NewWebSocketHandler(hub *ws.Hub, issuer *auth.TokenIssuer, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:    hub,
		issuer: issuer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// Serve handles GET /ws/alerts?employee_id=. The caller authenticates with the usual
// bearer token or cookie, or with ?token= since browsers cannot set headers on upgrade.
// Admins may watch any employee, or every alert when employee_id is empty; other
// callers only receive alerts raised for their own username.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := auth.TokenFromRequest(r)
	if tokenStr == "" {
		tokenStr = r.URL.Query().Get("token")
	}
	if tokenStr == "" {
		writeMsg(w, http.StatusUnauthorized, "Missing authorization token")
		return
	}
	claims, err := h.issuer.Validate(tokenStr)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected websocket token")
		writeMsg(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	topic := r.URL.Query().Get("employee_id")
	if !claims.IsAdmin() {
		if topic != "" && topic != claims.Username {
			writeMsg(w, http.StatusForbidden, forbiddenMsg)
			return
		}
		topic = claims.Username
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, topic)
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		h.hub.Unsubscribe(client)
	}()
}

// handleIncomingWSMessage answers keep-alive pings from clients.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var reply []byte
	switch msg.Action {
	case "ping":
		reply, _ = ws.Encode(ws.ActionPong, nil)
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		reply = ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
	if err := h.hub.Reply(ctx, client, reply); err != nil {
		log.Debug().Err(err).Msg("Dropped websocket reply")
	}
}
