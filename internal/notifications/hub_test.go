package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserLimit)

	// anonymous viewers share user 0 without a per-user cap
	for i := 0; i < maxConnsPerUser+1; i++ {
		_, err := hub.Register(0, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2*maxConnsPerUser+1, hub.ClientCount())
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.UnregisterClient(client)
	hub.UnregisterClient(client)
	hub.UnregisterClient(nil)
	assert.Zero(t, hub.ClientCount())

	_, err = hub.Register(3, nil)
	assert.NoError(t, err)
}

func TestHub_DeliverBroadcastsValidEvents(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(0, nil)
	require.NoError(t, err)

	event, err := NewEvent(EventPostCreated, 1, map[string]uint{"postId": 9})
	require.NoError(t, err)
	raw, err := event.Encode()
	require.NoError(t, err)

	hub.Deliver(raw)
	hub.Deliver([]byte(`not json`))
	hub.Deliver([]byte(`{"payload":{}}`))

	for _, c := range []*Client{a, b} {
		require.Len(t, c.Send, 1)
		got, err := DecodeEvent(<-c.Send)
		require.NoError(t, err)
		assert.Equal(t, EventPostCreated, got.Type)
		assert.JSONEq(t, `{"postId":9}`, string(got.Payload))
	}
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		client.TrySend([]byte(`{}`))
	}
	assert.Len(t, client.Send, sendBuffer)

	client.Close()
	client.Close()
	assert.NotPanics(t, func() { client.TrySend([]byte(`{}`)) })
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-client.Send
	assert.False(t, ok, "send channel closed on shutdown")
	assert.Zero(t, hub.ClientCount())

	_, err = hub.Register(2, nil)
	assert.ErrorIs(t, err, ErrHubShutdown)
}
