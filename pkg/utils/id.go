package utils

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// pushChars is ordered by ASCII value so generated keys sort by creation time
const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// PushIDGenerator creates 20-character, lexicographically time-ordered keys:
// 8 characters of millisecond timestamp followed by 12 random characters.
// Keys generated within the same millisecond increment the random part.
type PushIDGenerator struct {
	mu        sync.Mutex
	now       func() time.Time
	lastMilli int64
	lastRand  [12]int
}

// NewPushIDGenerator creates a generator using the given clock (time.Now when nil)
func NewPushIDGenerator(now func() time.Time) *PushIDGenerator {
	if now == nil {
		now = time.Now
	}
	return &PushIDGenerator{now: now}
}

var defaultPushIDs = NewPushIDGenerator(nil)

// GeneratePushID creates a push key from the process-wide generator
func GeneratePushID() string {
	return defaultPushIDs.Next()
}

// Next returns the next key
func (g *PushIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	milli := g.now().UnixMilli()
	sameMilli := milli <= g.lastMilli
	if sameMilli {
		// Clock did not advance: keep the old timestamp and bump the random tail
		milli = g.lastMilli
		for i := len(g.lastRand) - 1; i >= 0; i-- {
			if g.lastRand[i] != len(pushChars)-1 {
				g.lastRand[i]++
				break
			}
			g.lastRand[i] = 0
		}
	} else {
		for i := range g.lastRand {
			g.lastRand[i] = randomIndex()
		}
	}
	g.lastMilli = milli

	var id [20]byte
	ts := milli
	for i := 7; i >= 0; i-- {
		id[i] = pushChars[ts%int64(len(pushChars))]
		ts /= int64(len(pushChars))
	}
	for i, r := range g.lastRand {
		id[8+i] = pushChars[r]
	}
	return string(id[:])
}

func randomIndex() int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pushChars))))
	if err != nil {
		return int(time.Now().UnixNano() % int64(len(pushChars)))
	}
	return int(n.Int64())
}
