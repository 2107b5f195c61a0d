// Package storetest holds the conformance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/store"
)

// WaitFor reads snapshots until one satisfies ok
func WaitFor(t *testing.T, sub *store.Subscription, ok func(store.Snapshot) bool) store.Snapshot {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case snap, open := <-sub.Snapshots():
			require.True(t, open, "subscription closed early: %v", sub.Err())
			if ok(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return store.Snapshot{}
		}
	}
}

type doc struct {
	Title     string          `json:"title"`
	Timestamp int64           `json:"timestamp"`
	Count     int             `json:"count"`
	LikedBy   map[string]bool `json:"likedBy"`
}

// Run exercises the behaviour every store.Store implementation shares.
// newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("WriteAndRead", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "first", Timestamp: 10}))

		snap, err := s.Read(ctx, "items/a")
		require.NoError(t, err)
		assert.True(t, snap.Exists())
		assert.Equal(t, "a", snap.Key())

		var d doc
		require.NoError(t, snap.Decode(&d))
		assert.Equal(t, "first", d.Title)
		assert.Equal(t, int64(10), d.Timestamp)

		title, err := s.Read(ctx, "items/a/title")
		require.NoError(t, err)
		assert.JSONEq(t, `"first"`, string(title.Raw()))
	})

	t.Run("ReadMissing", func(t *testing.T) {
		s := newStore(t)
		snap, err := s.Read(context.Background(), "items/nope")
		require.NoError(t, err)
		assert.False(t, snap.Exists())
		assert.Nil(t, snap.Children())
	})

	t.Run("WriteNilDeletes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "x"}))
		require.NoError(t, s.Write(ctx, "items/a", nil))

		snap, err := s.Read(ctx, "items/a")
		require.NoError(t, err)
		assert.False(t, snap.Exists())

		col, err := s.Read(ctx, "items")
		require.NoError(t, err)
		assert.False(t, col.Exists())
	})

	t.Run("UpdateIsMultiPath", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "x", Count: 0}))

		require.NoError(t, s.Update(ctx, "items/a", store.Fields{
			"likedBy/u1": true,
			"count":      1,
		}))

		var d doc
		snap, err := s.Read(ctx, "items/a")
		require.NoError(t, err)
		require.NoError(t, snap.Decode(&d))
		assert.Equal(t, 1, d.Count)
		assert.Equal(t, map[string]bool{"u1": true}, d.LikedBy)
		assert.Equal(t, "x", d.Title)

		require.NoError(t, s.Update(ctx, "items/a", store.Fields{
			"likedBy/u1": nil,
			"count":      0,
		}))
		snap, err = s.Read(ctx, "items/a")
		require.NoError(t, err)
		assert.False(t, snap.Child("likedBy").Exists())
		assert.JSONEq(t, `0`, string(snap.Child("count").Raw()))
	})

	t.Run("UpdateRejectsOverlappingFields", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "items/a", store.Fields{
			"likedBy":    map[string]bool{"u": true},
			"likedBy/u2": true,
		})
		assert.ErrorIs(t, err, store.ErrInvalidPath)
	})

	t.Run("InvalidPaths", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, p := range []string{"", "/", "a//b", "a/b.c", "a/$x", "a/[0]", "a#"} {
			_, err := s.Read(ctx, p)
			assert.ErrorIs(t, err, store.ErrInvalidPath, "path %q", p)
			assert.ErrorIs(t, s.Write(ctx, p, 1), store.ErrInvalidPath, "path %q", p)
		}
	})

	t.Run("CollectionOrderedByChild", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "items/b", doc{Title: "b", Timestamp: 300}))
		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "a", Timestamp: 200}))
		require.NoError(t, s.Write(ctx, "items/c", doc{Title: "c", Timestamp: 100}))

		snap, err := s.Read(ctx, "items", store.OrderByChild("timestamp"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, snap.Order())

		plain, err := s.Read(ctx, "items")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, plain.Order())
	})

	t.Run("SubscribeDeliversInitialAndChanges", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "a", Timestamp: 1}))

		sub, err := s.Subscribe(ctx, "items", store.OrderByChild("timestamp"))
		require.NoError(t, err)
		defer sub.Close()

		WaitFor(t, sub, func(snap store.Snapshot) bool { return len(snap.Children()) == 1 })

		require.NoError(t, s.Write(ctx, "items/b", doc{Title: "b", Timestamp: 2}))
		snap := WaitFor(t, sub, func(snap store.Snapshot) bool { return len(snap.Children()) == 2 })
		assert.Equal(t, []string{"a", "b"}, snap.Order())

		require.NoError(t, s.Update(ctx, "items/a", store.Fields{"timestamp": 3}))
		snap = WaitFor(t, sub, func(snap store.Snapshot) bool {
			return len(snap.Order()) == 2 && snap.Order()[0] == "b"
		})
		assert.Equal(t, []string{"b", "a"}, snap.Order())
	})

	t.Run("SubscribeIgnoresUnrelatedPaths", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		sub, err := s.Subscribe(ctx, "items/a")
		require.NoError(t, err)
		defer sub.Close()
		first := WaitFor(t, sub, func(store.Snapshot) bool { return true })
		assert.False(t, first.Exists())

		require.NoError(t, s.Write(ctx, "other/a", 1))
		require.NoError(t, s.Write(ctx, "items/a", doc{Title: "mine"}))

		snap := WaitFor(t, sub, func(store.Snapshot) bool { return true })
		assert.True(t, snap.Exists())
	})

	t.Run("CloseEndsStream", func(t *testing.T) {
		s := newStore(t)
		sub, err := s.Subscribe(context.Background(), "items")
		require.NoError(t, err)

		sub.Close()
		sub.Close()

		select {
		case _, open := <-sub.Snapshots():
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
		assert.NoError(t, sub.Err())
	})

	t.Run("ContextCancelClosesSubscription", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := s.Subscribe(ctx, "items")
		require.NoError(t, err)

		cancel()
		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription not closed by context")
		}
	})

	t.Run("PushKeysAreOrdered", func(t *testing.T) {
		s := newStore(t)
		prev := ""
		for i := 0; i < 100; i++ {
			k := s.PushKey("items")
			assert.Len(t, k, 20)
			assert.Greater(t, k, prev)
			prev = k
		}
	})
}
