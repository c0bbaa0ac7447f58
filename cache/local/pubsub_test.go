package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSubBasic(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "items:p1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "items:p1", "hello"))

	select {
	case msg := <-ch:
		assert.Equal(t, "items:p1", msg.Channel)
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestPubSubUnsubscribe(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "ch")
	require.NoError(t, err)
	cancel()
	assert.NotPanics(t, cancel)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")
	assert.Zero(t, ps.Subscribers("ch"))
	assert.NoError(t, ps.Publish(ctx, "ch", "msg"))
}

func TestPubSubMultipleChannels(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "a", "b")
	require.NoError(t, err)
	defer cancel()
	require.NoError(t, ps.Publish(ctx, "a", "1"))
	require.NoError(t, ps.Publish(ctx, "b", "2"))

	assert.Equal(t, "1", (<-ch).Payload)
	assert.Equal(t, "2", (<-ch).Payload)
}

func TestPubSubDropsWhenFull(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "x")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "x", "first"))
	require.NoError(t, ps.Publish(ctx, "x", "second"))
	assert.Equal(t, "first", (<-ch).Payload)
	assert.Len(t, ch, 0)
}
