package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"forumhub/internal/core"
	"forumhub/internal/store"
	"forumhub/pkg/logger"
)

// Handler upgrades /ws/listen requests and hands them to the hub
type Handler struct {
	hub            *Hub
	authSvc        core.AuthService
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler creates a listen handler. An empty allowedOrigins list accepts
// every origin.
func NewHandler(hub *Hub, authSvc core.AuthService, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		authSvc:        authSvc,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// HandleListen serves GET /ws/listen?path=&orderBy=&token=
func (h *Handler) HandleListen(c *gin.Context) {
	path := c.Query("path")
	if _, err := store.SplitPath(path); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	token, err := extractToken(c)
	if err != nil {
		h.sendError(c, http.StatusUnauthorized, "authentication_required", err.Error())
		return
	}

	user, err := h.authSvc.ValidateToken(c.Request.Context(), token)
	if err != nil {
		h.sendError(c, http.StatusUnauthorized, "invalid_token", err.Error())
		return
	}

	var opts []store.QueryOption
	if orderBy := c.Query("orderBy"); orderBy != "" {
		opts = append(opts, store.OrderByChild(orderBy))
	}

	sub, err := h.hub.Subscribe(path, opts...)
	if err != nil {
		status, code := subscribeStatus(err)
		h.sendError(c, status, code, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		sub.Close()
		return
	}

	h.hub.ServeClient(conn, sub, user.ID, path)
	logger.WebSocket(path, "listen", user.ID)
}

func subscribeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, store.ErrInvalidPath):
		return http.StatusBadRequest, "invalid_path"
	case errors.Is(err, ErrHubFull), errors.Is(err, ErrHubStopped):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "listen_failed"
	}
}

// extractToken reads the bearer token from the query or the Authorization header
func extractToken(c *gin.Context) (string, error) {
	if token := c.Query("token"); token != "" {
		return token, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], nil
		}
	}

	return "", fmt.Errorf("no authentication token provided")
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Non-browser clients (TUI, CLI) omit Origin
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}

	if u, err := url.Parse(origin); err == nil {
		host := strings.ToLower(u.Hostname())
		if host == "localhost" || host == "127.0.0.1" {
			return true
		}
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

func (h *Handler) sendError(c *gin.Context, status int, code, message string) {
	logrus.Warnf("WebSocket error: status=%d code=%s message=%s", status, code, message)

	c.JSON(status, gin.H{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
