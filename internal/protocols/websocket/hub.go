// Package websocket - WebSocket Listen Protocol Handler
// Streams store snapshots for one path per connection
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"forumhub/internal/store"
	"forumhub/pkg/models"
)

const (
	maxMessageSize = 512
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxClients     = 10000
)

var (
	ErrHubFull    = errors.New("too many listeners")
	ErrHubStopped = errors.New("listen hub stopped")
)

// Hub tracks every live listener connection
type Hub struct {
	store     store.Store
	clientsMu sync.RWMutex
	clients   map[string]*Client
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Client is one websocket connection bound to one store subscription
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	sub       *store.Subscription
	userID    string
	path      string
	closeOnce sync.Once
}

// NewHub creates a listen hub over st
func NewHub(st store.Store) *Hub {
	return &Hub{
		store:   st,
		clients: make(map[string]*Client),
		stop:    make(chan struct{}),
	}
}

// Subscribe opens the store listener a connection will stream from. It runs
// before the upgrade so refusals can still be answered over HTTP.
func (h *Hub) Subscribe(path string, opts ...store.QueryOption) (*store.Subscription, error) {
	select {
	case <-h.stop:
		return nil, ErrHubStopped
	default:
	}

	h.clientsMu.RLock()
	full := len(h.clients) >= maxClients
	h.clientsMu.RUnlock()
	if full {
		return nil, ErrHubFull
	}

	return h.store.Subscribe(context.Background(), path, opts...)
}

// ServeClient streams sub to conn until either side goes away. The hub
// takes ownership of both.
func (h *Hub) ServeClient(conn *websocket.Conn, sub *store.Subscription, userID, path string) {
	client := &Client{
		id:     uuid.New().String(),
		hub:    h,
		conn:   conn,
		sub:    sub,
		userID: userID,
		path:   path,
	}

	h.clientsMu.Lock()
	h.clients[client.id] = client
	h.clientsMu.Unlock()

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	logrus.Debugf("Listener %s opened on %s for %s", client.id, path, userID)
}

// ClientCount returns the number of live listeners
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Stop closes every listener and waits for their goroutines
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		logrus.Info("Stopping WebSocket hub...")
		close(h.stop)

		h.clientsMu.RLock()
		clients := make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			clients = append(clients, c)
		}
		h.clientsMu.RUnlock()

		for _, c := range clients {
			c.sub.Close()
		}
		h.wg.Wait()
		logrus.Info("WebSocket hub stopped")
	})
}

func (h *Hub) remove(c *Client) {
	h.clientsMu.Lock()
	delete(h.clients, c.id)
	h.clientsMu.Unlock()
}

// readPump only services control frames; listeners never send data
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.Warnf("WebSocket read error on %s: %v", c.path, err)
			}
			return
		}
	}
}

// writePump forwards snapshots until the subscription ends
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	snapshots := c.sub.Snapshots()
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				c.finish()
				return
			}
			if err := c.writeFrame(snapshotFrame(snap)); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.stop:
			writeClose(c.conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// finish tells the peer why the stream ended
func (c *Client) finish() {
	err := c.sub.Err()
	if err == nil {
		writeClose(c.conn, websocket.CloseNormalClosure, "")
		return
	}

	logrus.Infof("Listener %s on %s cancelled: %v", c.id, c.path, err)
	c.writeFrame(&models.ListenFrame{
		Type:  models.FrameCancelled,
		Path:  c.path,
		Error: err.Error(),
	})
	code, msg := closeCodeFor(err)
	writeClose(c.conn, code, msg)
}

func (c *Client) writeFrame(frame *models.ListenFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		logrus.Errorf("Failed to marshal frame: %v", err)
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.sub.Close()
		c.hub.remove(c)
		c.conn.Close()
		logrus.Debugf("Listener %s closed on %s", c.id, c.path)
	})
}

func snapshotFrame(snap store.Snapshot) *models.ListenFrame {
	frame := &models.ListenFrame{
		Type:   models.FrameSnapshot,
		Path:   snap.Path(),
		Exists: snap.Exists(),
	}
	if frame.Exists {
		frame.Value = snap.Raw()
		if snap.Query().OrderBy != "" {
			frame.Order = snap.Order()
		}
	}
	return frame
}

func closeCodeFor(err error) (int, string) {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.ToWebSocketError()
	case errors.Is(err, store.ErrPermissionDenied):
		return models.NewWebSocketError(websocket.ClosePolicyViolation, models.ErrCodeForbidden, "permission denied", err).ToWebSocketError()
	case errors.Is(err, store.ErrListenerCancelled):
		return models.NewWebSocketError(websocket.ClosePolicyViolation, models.ErrCodeListenerCancelled, "listener cancelled", err).ToWebSocketError()
	case errors.Is(err, store.ErrInvalidPath):
		return models.NewWebSocketError(websocket.CloseUnsupportedData, models.ErrCodeValidation, "invalid path", err).ToWebSocketError()
	default:
		return websocket.CloseInternalServerErr, "listener failed"
	}
}

func writeClose(conn *websocket.Conn, code int, msg string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, msg), time.Now().Add(writeWait))
}
