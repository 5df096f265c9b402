package email

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type captureSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return c.err
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(zap.NewNop(), sender, 8)

	for i := 0; i < 5; i++ {
		d.Dispatch(Message{To: "user@example.com", Subject: "s", Body: "b"})
	}
	d.Close()

	if sender.count() != 5 {
		t.Fatalf("expected 5 messages delivered, got %d", sender.count())
	}
}

func TestDispatcherSendFailureDoesNotBlock(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	d := NewDispatcher(zap.NewNop(), sender, 8)

	d.Dispatch(Message{To: "user@example.com", Subject: "s", Body: "b"})
	d.Close()

	if sender.count() != 1 {
		t.Fatalf("expected send attempted, got %d", sender.count())
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(zap.NewNop(), &captureSender{}, 1)
	d.Close()
	d.Close()
}
