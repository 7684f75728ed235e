package websocket

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// AllTopics is the topic of clients that receive every alert.
const AllTopics = ""

// ErrHubClosed is returned when publishing after Run has returned.
var ErrHubClosed = errors.New("websocket hub closed")

type publication struct {
	topic   string
	client  *Client // set for replies to a single client
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	publish chan publication
	done    chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		publish:    make(chan publication, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Str("topic", client.Topic).Msg("Alert feed client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Alert feed client disconnected")
			}
		case p := <-h.publish:
			if p.client != nil {
				if h.clients[p.client] {
					h.deliver(p.client, p.message)
				}
				continue
			}
			for client := range h.clients {
				if client.Topic != AllTopics && client.Topic != p.topic {
					continue
				}
				h.deliver(client, p.message)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		// Slow consumer: drop it rather than stall the feed.
		close(client.Send)
		delete(h.clients, client)
	}
}

// Subscribe registers a client. It returns false once the hub has stopped.
func (h *Hub) Subscribe(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes a client and closes its Send channel.
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish queues message for clients subscribed to topic and for clients subscribed to everything.
func (h *Hub) Publish(ctx context.Context, topic string, message []byte) error {
	return h.enqueue(ctx, publication{topic: topic, message: message})
}

// Reply queues message for a single client. It is dropped if the client has already gone.
func (h *Hub) Reply(ctx context.Context, client *Client, message []byte) error {
	return h.enqueue(ctx, publication{client: client, message: message})
}

func (h *Hub) enqueue(ctx context.Context, p publication) error {
	select {
	case h.publish <- p:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
