package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisPublisher(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	p := NewRedisPublisher(rdb, "1169265821965627492", "")
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	sub := rdb.Subscribe(ctx, p.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	msgs := sub.Channel()

	a := Build(Input{Version: "FEAR", InMenu: true, LargeImage: "fear_menu"})
	require.NoError(t, p.Publish(ctx, a))

	select {
	case msg := <-msgs:
		var m Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
		assert.Equal(t, MessageUpdate, m.Type)
		assert.Equal(t, "1169265821965627492", m.ApplicationID)
		require.NotNil(t, m.Activity)
		assert.Equal(t, a.Details, m.Activity.Details)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on channel")
	}

	latest, err := p.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, a, *latest)

	require.NoError(t, p.Clear(ctx))
	assert.False(t, mr.Exists(p.LatestKey()))

	select {
	case msg := <-msgs:
		var m Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
		assert.Equal(t, MessageClear, m.Type)
		assert.Nil(t, m.Activity)
	case <-time.After(2 * time.Second):
		t.Fatal("no clear message on channel")
	}

	latest, err = p.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestDialRedis(t *testing.T) {
	mr, _ := newRedis(t)

	rdb, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	_, err = DialRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

type recordingPublisher struct {
	published []Activity
	clears    int
}

func (r *recordingPublisher) Publish(_ context.Context, a Activity) error {
	r.published = append(r.published, a)
	return nil
}

func (r *recordingPublisher) Clear(context.Context) error {
	r.clears++
	return nil
}

func TestPublishersFanOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	ps := Publishers{a, NewLogPublisher(), b}

	act := Activity{Details: "d", State: "s"}
	require.NoError(t, ps.Publish(context.Background(), act))
	require.NoError(t, ps.Publish(context.Background(), act))
	require.NoError(t, ps.Clear(context.Background()))

	assert.Len(t, a.published, 2)
	assert.Len(t, b.published, 2)
	assert.Equal(t, 1, a.clears)
	assert.Equal(t, 1, b.clears)
}
