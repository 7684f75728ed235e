package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

const (
	ActionAlert = "network_alert"
	ActionError = "error"
	ActionPong  = "pong"
)

// Encode marshals a message with the given action and payload.
func Encode(action string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload})
}

// NewErrorMessage builds an error frame for a single client.
func NewErrorMessage(msg string) []byte {
	b, _ := Encode(ActionError, map[string]string{"msg": msg})
	return b
}
