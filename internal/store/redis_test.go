package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, "test:"), mr
}

func TestRedisKeyLayout(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "forum_replies/q1/r1", map[string]any{"reply": "hi"}))
	require.NoError(t, s.Write(ctx, "forum_replies/q1/r2", map[string]any{"reply": "yo"}))

	raw, err := mr.Get("test:doc:forum_replies/q1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"r1":{"reply":"hi"},"r2":{"reply":"yo"}}`, raw)

	members, err := mr.Members("test:idx:forum_replies")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, members)

	require.NoError(t, s.Write(ctx, "forum_replies/q1", nil))
	assert.False(t, mr.Exists("test:doc:forum_replies/q1"))
}

func TestRedisCollectionWriteReplacesDocuments(t *testing.T) {
	s, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "items/a", map[string]any{"n": 1}))
	require.NoError(t, s.Write(ctx, "items", map[string]any{
		"b": map[string]any{"n": 2},
	}))

	snap, err := s.Read(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, snap.Order())

	err = s.Write(ctx, "items", 5)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRedisUpdateAcrossDocuments(t *testing.T) {
	s, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "items", Fields{
		"a/n": 1,
		"b/n": 2,
	}))

	snap, err := s.Read(ctx, "items")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"n":1},"b":{"n":2}}`, string(snap.Raw()))
}
