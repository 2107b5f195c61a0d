package models

import (
	"encoding/json"
	"time"
)

// ✅ GENERIC API RESPONSE
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ✅ DATA READ RESPONSE (GET /data/*path)
type DataResponse struct {
	Path   string          `json:"path"`
	Exists bool            `json:"exists"`
	Value  json.RawMessage `json:"value,omitempty"`
	// Order lists child keys in query order when orderBy was requested
	Order []string `json:"order,omitempty"`
}

// ✅ PUSH KEY RESPONSE (POST /data/*path/push)
type PushKeyResponse struct {
	Key string `json:"key"`
}

// ✅ LISTENER FRAME (websocket /ws/listen)
type ListenFrame struct {
	Type   string          `json:"type"` // "snapshot", "cancelled", "error"
	Path   string          `json:"path"`
	Exists bool            `json:"exists"`
	Value  json.RawMessage `json:"value,omitempty"`
	Order  []string        `json:"order,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Listen frame types
const (
	FrameSnapshot  = "snapshot"
	FrameCancelled = "cancelled"
	FrameError     = "error"
)

// ✅ CHANGE EVENT (published on every committed mutation)
type ChangeEvent struct {
	Path      string    `json:"path"`
	Op        string    `json:"op"` // "write" or "update"
	Fields    []string  `json:"fields,omitempty"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
