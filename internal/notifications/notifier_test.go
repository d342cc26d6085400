package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Publish(context.Background(), []byte(`{}`)))
	assert.NoError(t, n.StartFeedSubscriber(context.Background(), func(string) {
		t.Fatal("no messages expected")
	}))
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()
	_, err := DecodeEvent([]byte(`{"type":""}`))
	assert.Error(t, err)

	e, err := DecodeEvent([]byte(`{"type":"comment_deleted","actorId":4,"payload":{"commentId":2}}`))
	require.NoError(t, err)
	assert.Equal(t, EventCommentDeleted, e.Type)
	assert.Equal(t, uint(4), e.ActorID)
}

func TestHub_StartWiringFansOutFeed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	event, err := NewEvent(EventPostLikeToggled, 2, map[string]any{"postId": 1, "totalLikes": 3})
	require.NoError(t, err)
	raw, err := event.Encode()
	require.NoError(t, err)
	require.NoError(t, n.Publish(context.Background(), raw))

	select {
	case msg := <-client.Send:
		got, err := DecodeEvent(msg)
		require.NoError(t, err)
		assert.Equal(t, EventPostLikeToggled, got.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, n.Publish(context.Background(), raw))
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}
