package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func receive(t *testing.T, ch <-chan []byte) (WebSocketMessage, bool) {
	t.Helper()
	select {
	case payload, ok := <-ch:
		if !ok {
			return WebSocketMessage{}, false
		}
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg, true
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub")
		return WebSocketMessage{}, false
	}
}

func TestHubRoutesEventsByUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	laptop := &Client{hub: hub, send: make(chan []byte, 4), UserID: 1}
	phone := &Client{hub: hub, send: make(chan []byte, 4), UserID: 1}
	other := &Client{hub: hub, send: make(chan []byte, 4), UserID: 2}
	for _, c := range []*Client{laptop, phone, other} {
		require.True(t, hub.Register(c))
	}

	hub.Publish(1, WebSocketMessage{Type: EventBoardCreated, Data: deletedRef{ID: 5}})
	for _, c := range []*Client{laptop, phone} {
		msg, ok := receive(t, c.send)
		require.True(t, ok)
		assert.Equal(t, EventBoardCreated, msg.Type)
	}
	assert.Empty(t, other.send)

	hub.reply(other, WebSocketMessage{Type: "pong"})
	msg, ok := receive(t, other.send)
	require.True(t, ok)
	assert.Equal(t, "pong", msg.Type)

	hub.Unregister(phone)
	hub.Publish(1, WebSocketMessage{Type: EventBoardDeleted})
	_, ok = receive(t, phone.send)
	assert.False(t, ok, "unregistered client channel is closed")
	msg, ok = receive(t, laptop.send)
	require.True(t, ok)
	assert.Equal(t, EventBoardDeleted, msg.Type)

	cancel()
	require.NoError(t, <-done)

	_, ok = receive(t, laptop.send)
	assert.False(t, ok, "stopping the hub closes remaining clients")
	assert.False(t, hub.Register(&Client{hub: hub, send: make(chan []byte, 1), UserID: 3}))
	assert.Zero(t, hub.connections(1))

	// Publishing after shutdown is a no-op.
	hub.Publish(1, WebSocketMessage{Type: EventBoardUpdated})
}

func TestHubDropsSlowClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	slow := &Client{hub: hub, send: make(chan []byte, 1), UserID: 1}
	marker := &Client{hub: hub, send: make(chan []byte, 1), UserID: 2}
	require.True(t, hub.Register(slow))
	require.True(t, hub.Register(marker))

	hub.Publish(1, WebSocketMessage{Type: EventTaskCreated})
	hub.Publish(1, WebSocketMessage{Type: EventTaskUpdated})
	// Events are handled in order, so the marker arrives after both.
	hub.Publish(2, WebSocketMessage{Type: "marker"})
	_, ok := receive(t, marker.send)
	require.True(t, ok)

	msg, ok := receive(t, slow.send)
	require.True(t, ok)
	assert.Equal(t, EventTaskCreated, msg.Type)
	_, ok = receive(t, slow.send)
	assert.False(t, ok)

	cancel()
	require.NoError(t, <-done)
}
