package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

var _ store.Store = (*Store)(nil)

// Store is a store.Store backed by a forumhub server
type Store struct {
	client *Client
	ids    *utils.PushIDGenerator
	dialer *websocket.Dialer
}

// NewStore wraps client
func NewStore(client *Client) *Store {
	return &Store{
		client: client,
		ids:    utils.NewPushIDGenerator(time.Now),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// PushKey generates the key locally; push keys need no server round trip
func (s *Store) PushKey(path string) string {
	return s.ids.Next()
}

func (s *Store) Read(ctx context.Context, path string, opts ...store.QueryOption) (store.Snapshot, error) {
	start := time.Now()
	segs, err := store.SplitPath(path)
	if err != nil {
		return store.Snapshot{}, err
	}

	endpoint := dataEndpoint(segs)
	if q := store.BuildQuery(opts...); q.OrderBy != "" {
		endpoint += "?" + url.Values{"orderBy": {q.OrderBy}}.Encode()
	}

	var resp models.DataResponse
	err = s.client.do(ctx, http.MethodGet, endpoint, nil, &resp)
	logger.Store("read", path, time.Since(start), err)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return store.NewSnapshot(store.JoinPath(segs...), resp.Value, opts...), nil
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	start := time.Now()
	segs, err := store.SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("write %s: encode value: %w", path, err)
	}

	err = s.client.do(ctx, http.MethodPut, dataEndpoint(segs), body, nil)
	logger.Store("write", path, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields store.Fields) error {
	start := time.Now()
	segs, err := store.SplitPath(path)
	if err != nil {
		return err
	}
	if _, _, err := store.AbsoluteFields(segs, fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("update %s: encode fields: %w", path, err)
	}

	err = s.client.do(ctx, http.MethodPatch, dataEndpoint(segs), body, nil)
	logger.Store("update", path, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Subscribe opens a websocket listener. Losing the connection cancels the
// subscription with ErrListenerCancelled.
func (s *Store) Subscribe(ctx context.Context, path string, opts ...store.QueryOption) (*store.Subscription, error) {
	segs, err := store.SplitPath(path)
	if err != nil {
		return nil, err
	}
	path = store.JoinPath(segs...)
	q := store.BuildQuery(opts...)

	conn, resp, err := s.dialer.DialContext(ctx, s.client.listenURL(path, q), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe %s: %w", path, &APIError{Status: resp.StatusCode, Message: handshakeMessage(resp)})
		}
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	sub := store.NewSubscription(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	go s.listen(conn, sub, path, opts)
	return sub, nil
}

func (s *Store) listen(conn *websocket.Conn, sub *store.Subscription, path string, opts []store.QueryOption) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-sub.Done():
				// closed locally
			default:
				logger.Warnf("Listener on %s lost: %v", path, err)
				sub.Cancel(fmt.Errorf("%w: %v", store.ErrListenerCancelled, err))
			}
			return
		}

		var frame models.ListenFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warnf("Dropping malformed frame on %s: %v", path, err)
			continue
		}

		switch frame.Type {
		case models.FrameSnapshot:
			if !sub.Deliver(store.NewSnapshot(path, frame.Value, opts...)) {
				return
			}
		case models.FrameCancelled, models.FrameError:
			sub.Cancel(fmt.Errorf("%w: %s", store.ErrListenerCancelled, frame.Error))
			return
		}
	}
}

// dataEndpoint escapes each segment of a validated path
func dataEndpoint(segs []string) string {
	escaped := make([]string, len(segs))
	for i, seg := range segs {
		escaped[i] = url.PathEscape(seg)
	}
	return "/api/v1/data/" + strings.Join(escaped, "/")
}

func handshakeMessage(resp *http.Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return http.StatusText(resp.StatusCode)
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
