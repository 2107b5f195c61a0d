package store

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Snapshot is a point-in-time copy of the value at a path
type Snapshot struct {
	path  string
	raw   json.RawMessage
	query Query
}

// NewSnapshot wraps raw JSON read at path. Empty raw or JSON null means
// the path holds no value.
func NewSnapshot(path string, raw json.RawMessage, opts ...QueryOption) Snapshot {
	return Snapshot{
		path:  strings.Trim(path, "/"),
		raw:   raw,
		query: BuildQuery(opts...),
	}
}

// Path returns the full path the snapshot was read from
func (s Snapshot) Path() string { return s.path }

// Key returns the last path segment
func (s Snapshot) Key() string {
	if i := strings.LastIndex(s.path, "/"); i >= 0 {
		return s.path[i+1:]
	}
	return s.path
}

// Exists reports whether a value is stored at the path
func (s Snapshot) Exists() bool {
	trimmed := bytes.TrimSpace(s.raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Raw returns the JSON value, or nil when nothing is stored
func (s Snapshot) Raw() json.RawMessage {
	if !s.Exists() {
		return nil
	}
	return s.raw
}

// Query returns the ordering the snapshot was taken with
func (s Snapshot) Query() Query { return s.query }

// Decode unmarshals the value into v; decoding a missing value leaves v untouched
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.raw, v)
}

// Child returns the snapshot of a descendant path relative to this one
func (s Snapshot) Child(rel string) Snapshot {
	raw := s.raw
	for _, seg := range strings.Split(strings.Trim(rel, "/"), "/") {
		if seg == "" {
			continue
		}
		obj := s.object(raw)
		raw = obj[seg]
	}
	return Snapshot{path: JoinPath(s.path, rel), raw: raw}
}

// Children returns the direct children in query order: by key, or by the
// OrderBy field (missing < false < true < numbers < strings < objects) with
// ties broken by key.
func (s Snapshot) Children() []Snapshot {
	obj := s.object(s.raw)
	if len(obj) == 0 {
		return nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	if s.query.OrderBy == "" {
		sort.Strings(keys)
	} else {
		sortKeys := make(map[string]orderValue, len(obj))
		for _, k := range keys {
			sortKeys[k] = newOrderValue(s.object(obj[k])[s.query.OrderBy])
		}
		sort.Slice(keys, func(i, j int) bool {
			c := sortKeys[keys[i]].compare(sortKeys[keys[j]])
			if c != 0 {
				return c < 0
			}
			return keys[i] < keys[j]
		})
	}

	children := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		children = append(children, Snapshot{path: JoinPath(s.path, k), raw: obj[k]})
	}
	return children
}

// Order returns the child keys in query order
func (s Snapshot) Order() []string {
	children := s.Children()
	if children == nil {
		return nil
	}
	keys := make([]string, len(children))
	for i, c := range children {
		keys[i] = c.Key()
	}
	return keys
}

func (s Snapshot) object(raw json.RawMessage) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil
	}
	return obj
}

const (
	rankNull = iota
	rankFalse
	rankTrue
	rankNumber
	rankString
	rankObject
)

type orderValue struct {
	rank int
	num  float64
	str  string
}

func newOrderValue(raw json.RawMessage) orderValue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return orderValue{rank: rankNull}
	}
	switch trimmed[0] {
	case 'n':
		return orderValue{rank: rankNull}
	case 'f':
		return orderValue{rank: rankFalse}
	case 't':
		return orderValue{rank: rankTrue}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return orderValue{rank: rankObject}
		}
		return orderValue{rank: rankString, str: s}
	case '{', '[':
		return orderValue{rank: rankObject}
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return orderValue{rank: rankObject}
		}
		return orderValue{rank: rankNumber, num: f}
	}
}

func (a orderValue) compare(b orderValue) int {
	if a.rank != b.rank {
		if a.rank < b.rank {
			return -1
		}
		return 1
	}
	switch a.rank {
	case rankNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case rankString:
		return strings.Compare(a.str, b.str)
	}
	return 0
}
