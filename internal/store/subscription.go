package store

import (
	"context"
	"sync"
)

// Subscription is a continuous listener. Snapshots delivers full
// replacement snapshots; a slow reader only ever sees the newest pending one.
type Subscription struct {
	mu      sync.Mutex
	ch      chan Snapshot
	done    chan struct{}
	closed  bool
	err     error
	release func()
}

// NewSubscription is used by Store implementations. release runs once when
// the subscription ends for any reason. The subscription closes itself when
// ctx is done.
func NewSubscription(ctx context.Context, release func()) *Subscription {
	s := &Subscription{
		ch:      make(chan Snapshot, 1),
		done:    make(chan struct{}),
		release: release,
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

// Snapshots returns the delivery channel; it is closed when the subscription ends
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.ch
}

// Done is closed when the subscription ends
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the channel closed: ErrListenerCancelled (possibly
// wrapped) when the store cancelled the listener, nil after Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Deliver queues snap, replacing any snapshot the reader has not taken yet.
// It returns false once the subscription has ended.
func (s *Subscription) Deliver(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
	return true
}

// Cancel ends the subscription from the store side. A snapshot already
// queued stays readable before the channel reports closed.
func (s *Subscription) Cancel(err error) {
	s.finish(err, false)
}

// Close releases the listener. It is safe to call more than once.
func (s *Subscription) Close() {
	s.finish(nil, true)
}

func (s *Subscription) finish(err error, drain bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	if drain {
		select {
		case <-s.ch:
		default:
		}
	}
	close(s.ch)
	close(s.done)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		release()
	}
}
