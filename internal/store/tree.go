package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Values are held as decoded JSON trees: map[string]any for objects,
// json.Number, string and bool for leaves. Empty objects and nulls do not
// exist in the tree; arrays are stored as objects keyed by index.

func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
	}
	return decodeTree(data)
}

func decodeTree(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(v), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if pc := prune(child); pc == nil {
				delete(t, k)
			} else {
				t[k] = pc
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		m := make(map[string]any, len(t))
		for i, child := range t {
			m[strconv.Itoa(i)] = child
		}
		return prune(m)
	default:
		return v
	}
}

func getIn(node any, segs []string) any {
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return node
}

// setIn replaces the value at segs (nil removes it) and returns the new
// node, pruning objects left empty. Maps are modified in place.
func setIn(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := node.(map[string]any)
	if !ok {
		if value == nil {
			return node
		}
		m = make(map[string]any)
	}
	if child := setIn(m[segs[0]], segs[1:], value); child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func encodeTree(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}
