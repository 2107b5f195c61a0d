package store

import (
	"context"
	"fmt"
	"sync"

	"forumhub/pkg/utils"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. All mutations commit under one lock and
// listeners are notified after the commit.
type Memory struct {
	mu        sync.Mutex
	root      any
	listeners map[uint64]*memoryListener
	nextID    uint64
	denied    [][]string
	pushIDs   *utils.PushIDGenerator
}

type memoryListener struct {
	segs   []string
	query  Query
	notify chan struct{}
	sub    *Subscription
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{
		listeners: make(map[uint64]*memoryListener),
		pushIDs:   utils.NewPushIDGenerator(nil),
	}
}

func (m *Memory) PushKey(path string) string {
	return m.pushIDs.Next()
}

func (m *Memory) Read(ctx context.Context, path string, opts ...QueryOption) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAccessLocked(segs); err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return m.snapshotLocked(segs, BuildQuery(opts...))
}

func (m *Memory) Subscribe(ctx context.Context, path string, opts ...QueryOption) (*Subscription, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if err := m.checkAccessLocked(segs); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	id := m.nextID
	m.nextID++
	l := &memoryListener{
		segs:   segs,
		query:  BuildQuery(opts...),
		notify: make(chan struct{}, 1),
	}
	l.sub = NewSubscription(ctx, func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	})
	m.listeners[id] = l
	l.notify <- struct{}{}
	m.mu.Unlock()

	go m.deliver(l)
	return l.sub, nil
}

func (m *Memory) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	m.mu.Lock()
	if err := m.checkAccessLocked(segs); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("write %s: %w", path, err)
	}
	m.root = setIn(m.root, segs, v)
	affected := m.affectedLocked([][]string{segs})
	m.mu.Unlock()

	notifyAll(affected)
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base, err := SplitPath(path)
	if err != nil {
		return err
	}
	paths, values, err := AbsoluteFields(base, fields)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	for i, v := range values {
		if values[i], err = normalize(v); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
	}

	m.mu.Lock()
	for _, p := range paths {
		if err := m.checkAccessLocked(p); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("update %s: %w", path, err)
		}
	}
	for i, p := range paths {
		m.root = setIn(m.root, p, values[i])
	}
	affected := m.affectedLocked(paths)
	m.mu.Unlock()

	notifyAll(affected)
	return nil
}

// Deny makes every operation under prefix fail with ErrPermissionDenied and
// cancels the listeners inside it, as a store does when access is revoked.
func (m *Memory) Deny(prefix string) error {
	segs, err := SplitPath(prefix)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.denied = append(m.denied, segs)
	var cancelled []*Subscription
	for _, l := range m.listeners {
		if hasPrefix(l.segs, segs) {
			cancelled = append(cancelled, l.sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range cancelled {
		sub.Cancel(fmt.Errorf("%w: %v", ErrListenerCancelled, ErrPermissionDenied))
	}
	return nil
}

// ListenerCount returns the number of open listeners
func (m *Memory) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func (m *Memory) deliver(l *memoryListener) {
	for {
		select {
		case <-l.sub.Done():
			return
		case <-l.notify:
			m.mu.Lock()
			snap, err := m.snapshotLocked(l.segs, l.query)
			m.mu.Unlock()
			if err != nil {
				l.sub.Cancel(fmt.Errorf("%w: %v", ErrListenerCancelled, err))
				return
			}
			if !l.sub.Deliver(snap) {
				return
			}
		}
	}
}

func (m *Memory) snapshotLocked(segs []string, q Query) (Snapshot, error) {
	raw, err := encodeTree(getIn(m.root, segs))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{path: JoinPath(segs...), raw: raw, query: q}, nil
}

func (m *Memory) checkAccessLocked(segs []string) error {
	for _, d := range m.denied {
		if hasPrefix(segs, d) {
			return ErrPermissionDenied
		}
	}
	return nil
}

func (m *Memory) affectedLocked(changed [][]string) []chan struct{} {
	var out []chan struct{}
	for _, l := range m.listeners {
		for _, c := range changed {
			if Overlaps(l.segs, c) {
				out = append(out, l.notify)
				break
			}
		}
	}
	return out
}

func notifyAll(chans []chan struct{}) {
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func hasPrefix(segs, prefix []string) bool {
	return len(segs) >= len(prefix) && Overlaps(segs, prefix)
}
