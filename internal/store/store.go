// Package store defines the realtime key/value store the forum runs on:
// hierarchical paths, one-shot reads, continuous listeners, full writes and
// atomic multi-path updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPath       = errors.New("invalid store path")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrListenerCancelled = errors.New("listener cancelled by store")
)

// Fields is a multi-path update: relative child paths mapped to new values.
// A nil value removes the child.
type Fields map[string]any

// Store is the capability contract consumed by the forum controllers
type Store interface {
	// PushKey returns a unique, time-ordered child key for path
	PushKey(path string) string
	// Read returns the value at path; a missing value yields a snapshot
	// whose Exists reports false, not an error
	Read(ctx context.Context, path string, opts ...QueryOption) (Snapshot, error)
	// Subscribe delivers a snapshot immediately and after every change
	// touching path until the subscription is closed
	Subscribe(ctx context.Context, path string, opts ...QueryOption) (*Subscription, error)
	// Write overwrites the subtree at path; nil deletes it
	Write(ctx context.Context, path string, value any) error
	// Update applies every field under path in one atomic commit
	Update(ctx context.Context, path string, fields Fields) error
}

// Query controls child ordering of a read or subscription
type Query struct {
	OrderBy string
}

// QueryOption configures a Query
type QueryOption func(*Query)

// OrderByChild orders children ascending by the value of the named child field
func OrderByChild(field string) QueryOption {
	return func(q *Query) {
		q.OrderBy = field
	}
}

// BuildQuery applies opts to an empty Query
func BuildQuery(opts ...QueryOption) Query {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Options converts the query back into options (used by transports)
func (q Query) Options() []QueryOption {
	if q.OrderBy == "" {
		return nil
	}
	return []QueryOption{OrderByChild(q.OrderBy)}
}

// SplitPath validates path and returns its segments. Leading and trailing
// slashes are ignored; the root itself is not addressable.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(trimmed, "/")
	for _, seg := range segs {
		if err := validSegment(seg); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return segs, nil
}

func validSegment(seg string) error {
	if seg == "" {
		return errors.New("empty segment")
	}
	if strings.ContainsAny(seg, ".#$[]") {
		return errors.New("segment contains one of . # $ [ ]")
	}
	return nil
}

// JoinPath builds a path from segments
func JoinPath(segs ...string) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Overlaps reports whether a change at one path can affect a listener at the other
func Overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AbsoluteFields resolves every relative field path against base and validates it
func AbsoluteFields(base []string, fields Fields) ([][]string, []any, error) {
	paths := make([][]string, 0, len(fields))
	values := make([]any, 0, len(fields))
	for rel, v := range fields {
		segs, err := SplitPath(rel)
		if err != nil {
			return nil, nil, err
		}
		abs := make([]string, 0, len(base)+len(segs))
		abs = append(abs, base...)
		abs = append(abs, segs...)
		paths = append(paths, abs)
		values = append(values, v)
	}
	// Reject overlapping fields such as "a" and "a/b" in one update
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if Overlaps(paths[i], paths[j]) {
				return nil, nil, fmt.Errorf("%w: overlapping update fields %q and %q",
					ErrInvalidPath, JoinPath(paths[i]...), JoinPath(paths[j]...))
			}
		}
	}
	return paths, values, nil
}
