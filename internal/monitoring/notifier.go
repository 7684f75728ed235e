package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/isdelr/ponto-be/internal/models"
	ws "github.com/isdelr/ponto-be/internal/websocket"
	"github.com/segmentio/kafka-go"
)

// ErrMissingCredentials is returned by sinks that were not configured.
var ErrMissingCredentials = errors.New("notification sink credentials missing")

// Notifier delivers one alert to an external sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert models.Alert) error
}

// TelegramNotifier posts the alert text to a chat through the Bot API.
type TelegramNotifier struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegramNotifier creates a notifier. Empty credentials make every Notify fail with ErrMissingCredentials.
func NewTelegramNotifier(client *http.Client, baseURL, token, chatID string) *TelegramNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramNotifier{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
	}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Notify(ctx context.Context, alert models.Alert) error {
	if n.token == "" || n.chatID == "" {
		return ErrMissingCredentials
	}
	body, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    alert.Message,
	})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("telegram request failed: %w", uerr.Err)
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}
	return nil
}

// HubNotifier pushes alerts to live websocket subscribers, keyed by employee.
type HubNotifier struct {
	hub *ws.Hub
}

func NewHubNotifier(hub *ws.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Name() string { return "websocket" }

func (n *HubNotifier) Notify(ctx context.Context, alert models.Alert) error {
	msg, err := ws.Encode(ws.ActionAlert, alert)
	if err != nil {
		return err
	}
	return n.hub.Publish(ctx, alert.EmployeeID, msg)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes alerts as JSON, keyed by employee id so one employee's alerts stay ordered.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier creates a producer for topic on brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, alert models.Alert) error {
	msg, err := alertMessage(alert)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func alertMessage(alert models.Alert) (kafka.Message, error) {
	value, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(alert.EmployeeID),
		Value: value,
		Time:  alert.CreatedAt,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(alert.ID)},
		},
	}, nil
}
