package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/core"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/models"
)

type listenEnv struct {
	store  *store.Memory
	hub    *Hub
	server *httptest.Server
	token  string
}

func setupListen(t *testing.T) *listenEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	authSvc := core.NewAuthService(repository.NewMemoryAccountRepository(), st, "ws-secret", "forumhub-test", time.Hour)
	resp, err := authSvc.Register(context.Background(), models.RegisterRequest{
		Email:    "ws@example.com",
		Password: "secret1",
		FullName: "Socket User",
	})
	require.NoError(t, err)

	hub := NewHub(st)
	router := gin.New()
	router.GET("/ws/listen", NewHandler(hub, authSvc, nil).HandleListen)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})
	return &listenEnv{store: st, hub: hub, server: server, token: resp.Token}
}

func (e *listenEnv) url(params url.Values) string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/listen?" + params.Encode()
}

func (e *listenEnv) dial(t *testing.T, path, orderBy string) *websocket.Conn {
	t.Helper()
	params := url.Values{"path": {path}, "token": {e.token}}
	if orderBy != "" {
		params.Set("orderBy", orderBy)
	}
	conn, _, err := websocket.DefaultDialer.Dial(e.url(params), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) models.ListenFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame models.ListenFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestListenStreamsSnapshots(t *testing.T) {
	env := setupListen(t)
	ctx := context.Background()
	require.NoError(t, env.store.Write(ctx, "forum_questions/q1", map[string]any{"title": "First", "timestamp": 2}))

	conn := env.dial(t, "forum_questions", "timestamp")

	frame := readFrame(t, conn)
	assert.Equal(t, models.FrameSnapshot, frame.Type)
	assert.Equal(t, "forum_questions", frame.Path)
	assert.True(t, frame.Exists)
	assert.Equal(t, []string{"q1"}, frame.Order)

	require.NoError(t, env.store.Write(ctx, "forum_questions/q0", map[string]any{"title": "Older", "timestamp": 1}))

	frame = readFrame(t, conn)
	assert.Equal(t, []string{"q0", "q1"}, frame.Order)
	var value map[string]map[string]any
	require.NoError(t, json.Unmarshal(frame.Value, &value))
	assert.Equal(t, "Older", value["q0"]["title"])

	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestListenMissingPath(t *testing.T) {
	env := setupListen(t)
	conn := env.dial(t, "forum_questions/nope", "")

	frame := readFrame(t, conn)
	assert.Equal(t, models.FrameSnapshot, frame.Type)
	assert.False(t, frame.Exists)
	assert.Empty(t, frame.Value)
}

func TestListenCancelled(t *testing.T) {
	env := setupListen(t)
	conn := env.dial(t, "forum_replies/q1", "")
	readFrame(t, conn)

	require.NoError(t, env.store.Deny("forum_replies"))

	frame := readFrame(t, conn)
	assert.Equal(t, models.FrameCancelled, frame.Type)
	assert.Equal(t, "forum_replies/q1", frame.Path)
	assert.NotEmpty(t, frame.Error)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)

	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return env.store.ListenerCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestListenClientDisconnectReleasesListener(t *testing.T) {
	env := setupListen(t)
	conn := env.dial(t, "forum_questions", "")
	readFrame(t, conn)
	require.Equal(t, 1, env.store.ListenerCount())

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return env.store.ListenerCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestListenRejectsBadRequests(t *testing.T) {
	env := setupListen(t)

	cases := []struct {
		name   string
		params url.Values
		status int
	}{
		{"no token", url.Values{"path": {"forum_questions"}}, http.StatusUnauthorized},
		{"bad token", url.Values{"path": {"forum_questions"}, "token": {"nope"}}, http.StatusUnauthorized},
		{"root path", url.Values{"path": {""}, "token": {env.token}}, http.StatusBadRequest},
		{"illegal path", url.Values{"path": {"forum$questions"}, "token": {env.token}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(env.url(tc.params), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestListenDeniedBeforeUpgrade(t *testing.T) {
	env := setupListen(t)
	require.NoError(t, env.store.Deny("forum_replies"))

	params := url.Values{"path": {"forum_replies/q1"}, "token": {env.token}}
	_, resp, err := websocket.DefaultDialer.Dial(env.url(params), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, env.store.ListenerCount())
}

func TestHubStopClosesListeners(t *testing.T) {
	env := setupListen(t)
	conn := env.dial(t, "forum_questions", "")
	readFrame(t, conn)

	env.hub.Stop()
	_, err := env.hub.Subscribe("forum_questions")
	assert.ErrorIs(t, err, ErrHubStopped)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, env.hub.ClientCount())
	assert.Equal(t, 0, env.store.ListenerCount())
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(nil, nil, []string{"https://forum.example"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/listen", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, h.checkOrigin(req("")))
	assert.True(t, h.checkOrigin(req("https://forum.example")))
	assert.True(t, h.checkOrigin(req("http://localhost:3000")))
	assert.False(t, h.checkOrigin(req("https://evil.example")))
}
