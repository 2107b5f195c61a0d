package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Common error codes - HTTP focused but protocol-aware
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Protocol-specific error codes
	ErrCodeWebSocketClose    = "WEBSOCKET_CLOSE"
	ErrCodeListenerCancelled = "LISTENER_CANCELLED"
)

// Common errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("too many writes, slow down")

	// WebSocket protocol errors
	ErrWebSocketAuthFailed = errors.New("websocket authentication failed")
)

// AppError - Enhanced for multi-protocol support
type AppError struct {
	Code          string                 `json:"code"`
	Message       string                 `json:"message"`
	StatusCode    int                    `json:"status_code,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Protocol      string                 `json:"protocol,omitempty"` // http, websocket
	WebSocketCode int                    `json:"websocket_code,omitempty"`
	Err           error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Protocol != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Protocol, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original error to errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// ToHTTPError converts to HTTP-compatible error response
func (e *AppError) ToHTTPError() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Message,
		Message:   e.Message,
		Timestamp: time.Now(),
	}
}

// ToWebSocketError returns WebSocket close code and message
func (e *AppError) ToWebSocketError() (int, string) {
	if e.WebSocketCode != 0 {
		return e.WebSocketCode, e.Message
	}

	// Default mapping
	switch e.Code {
	case ErrCodeUnauthorized:
		return websocket.ClosePolicyViolation, "authentication required"
	case ErrCodeForbidden:
		return websocket.ClosePolicyViolation, "forbidden access"
	case ErrCodeNotFound:
		return websocket.CloseNormalClosure, "resource not found"
	default:
		return websocket.CloseInternalServerErr, e.Message
	}
}

// NewHTTPError builds an HTTP-flavoured AppError
func NewHTTPError(code, message string, statusCode int, err error) *AppError {
	appErr := &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Protocol:   "http",
		Err:        err,
	}
	if err != nil {
		appErr.Details = map[string]interface{}{"original_error": err.Error()}
	}
	return appErr
}

// NewWebSocketError builds a websocket-flavoured AppError
func NewWebSocketError(wsCode int, code, message string, err error) *AppError {
	appErr := &AppError{
		Code:          code,
		Message:       message,
		WebSocketCode: wsCode,
		Protocol:      "websocket",
		Err:           err,
	}
	if err != nil {
		appErr.Details = map[string]interface{}{"original_error": err.Error()}
	}
	return appErr
}

// HTTPStatus maps an error to the status code the API answers with
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
