package websocket

import (
	"context"
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func TestHubPublishRespectsTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	all := NewClient(hub, nil, AllTopics)
	emp1 := NewClient(hub, nil, "emp1")
	emp2 := NewClient(hub, nil, "emp2")
	for _, c := range []*Client{all, emp1, emp2} {
		if !hub.Subscribe(c) {
			t.Fatalf("subscribe failed")
		}
	}

	if err := hub.Publish(ctx, "emp1", []byte("alert-1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := string(receive(t, all)); got != "alert-1" {
		t.Fatalf("all-topics client got %q", got)
	}
	if got := string(receive(t, emp1)); got != "alert-1" {
		t.Fatalf("emp1 client got %q", got)
	}

	if err := hub.Reply(ctx, emp2, []byte("pong")); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got := string(receive(t, emp2)); got != "pong" {
		t.Fatalf("emp2 should only see its reply, got %q", got)
	}
	select {
	case msg := <-emp1.Send:
		t.Fatalf("reply leaked to another client: %q", msg)
	default:
	}
}

func TestHubUnsubscribeClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	c := NewClient(hub, nil, AllTopics)
	hub.Subscribe(c)
	hub.Unsubscribe(c)
	if _, ok := <-c.Send; ok {
		t.Fatalf("expected Send to be closed")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		err := hub.Publish(context.Background(), "x", []byte("late"))
		if errors.Is(err, ErrHubClosed) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected ErrHubClosed after shutdown, got %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if hub.Subscribe(NewClient(hub, nil, AllTopics)) {
		t.Fatalf("subscribe should fail after shutdown")
	}
}
