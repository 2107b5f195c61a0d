package utils

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushIDGenerator_OrderedWithinSameMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	gen := NewPushIDGenerator(func() time.Time { return frozen })

	ids := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		ids = append(ids, gen.Next())
	}

	for _, id := range ids {
		require.Len(t, id, 20)
	}
	assert.True(t, sort.StringsAreSorted(ids), "keys from one millisecond must stay ordered")

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate key %s", id)
		seen[id] = true
	}
}

func TestPushIDGenerator_OrderedAcrossTime(t *testing.T) {
	current := time.UnixMilli(1_700_000_000_000)
	gen := NewPushIDGenerator(func() time.Time { return current })

	first := gen.Next()
	current = current.Add(time.Millisecond)
	second := gen.Next()
	current = current.Add(time.Hour)
	third := gen.Next()

	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Equal(t, first[:7], second[:7])
}

func TestPushIDGenerator_ClockGoingBackwards(t *testing.T) {
	current := time.UnixMilli(1_700_000_000_000)
	gen := NewPushIDGenerator(func() time.Time { return current })

	first := gen.Next()
	current = current.Add(-time.Second)
	second := gen.Next()

	assert.Less(t, first, second)
}
