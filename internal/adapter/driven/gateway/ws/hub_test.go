package ws

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/classmeet/signaling/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	id      string
	mu      sync.Mutex
	events  []domain.Envelope
	closed  bool
	sendErr error
}

func (m *mockClient) ID() domain.ConnectionID { return m.id }

func (m *mockClient) Send(evt domain.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) received() []domain.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestHub_UnicastDeliversExactlyOnce(t *testing.T) {
	h := NewHub()
	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	h.Register(a)
	h.Register(b)

	evt := domain.Envelope{Type: domain.TypeSignal}
	ok := h.Unicast(context.Background(), "b", evt)

	require.True(t, ok)
	assert.Len(t, b.received(), 1)
	assert.Empty(t, a.received())
}

func TestHub_UnicastUnknownTargetIsSilentDrop(t *testing.T) {
	h := NewHub()
	a := &mockClient{id: "a"}
	h.Register(a)

	ok := h.Unicast(context.Background(), "gone", domain.Envelope{Type: domain.TypeSignal})

	assert.False(t, ok)
	assert.Empty(t, a.received())
}

func TestHub_FanoutExcludesSenderAndSkipsMissing(t *testing.T) {
	h := NewHub()
	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	c := &mockClient{id: "c"}
	h.Register(a)
	h.Register(b)
	h.Register(c)

	evt := domain.Envelope{Type: domain.TypeChatMessage}
	h.Fanout(context.Background(), []domain.ConnectionID{"a", "b", "c", "gone"}, "a", evt)

	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)
	assert.Len(t, c.received(), 1)
}

func TestHub_SendFailureDisconnectsClient(t *testing.T) {
	h := NewHub()
	bad := &mockClient{id: "bad", sendErr: errors.New("buffer full")}
	good := &mockClient{id: "good"}
	h.Register(bad)
	h.Register(good)

	h.Fanout(context.Background(), []domain.ConnectionID{"bad", "good"}, "", domain.Envelope{Type: domain.TypeReaction})

	assert.True(t, bad.closed)
	assert.Equal(t, 1, h.Connections())
	assert.Len(t, good.received(), 1)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	a := &mockClient{id: "a"}
	h.Register(a)

	h.Unregister(a)
	h.Unregister(a)

	assert.Zero(t, h.Connections())
	assert.False(t, h.Unicast(context.Background(), "a", domain.Envelope{Type: domain.TypeSignal}))
}

func TestHub_StopClosesAllClients(t *testing.T) {
	h := NewHub()
	a := &mockClient{id: "a"}
	b := &mockClient{id: "b"}
	h.Register(a)
	h.Register(b)

	h.Stop()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Zero(t, h.Connections())
}
