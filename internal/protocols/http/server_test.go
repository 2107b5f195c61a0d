package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/core"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/config"
	"forumhub/pkg/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(e models.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() {}

type testEnv struct {
	server *Server
	store  *store.Memory
	events *recordingPublisher
	auth   core.AuthService
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupServer(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.WritesPerSecond = 0
	for _, m := range mutate {
		m(cfg)
	}

	st := store.NewMemory()
	authSvc := core.NewAuthService(repository.NewMemoryAccountRepository(), st, "http-secret", "forumhub-test", time.Hour)
	pub := &recordingPublisher{}
	return &testEnv{
		server: NewServer(cfg, authSvc, st, pub, nil),
		store:  st,
		events: pub,
		auth:   authSvc,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (e *testEnv) register(t *testing.T, email string) models.LoginResponse {
	t.Helper()
	code, env := e.do(t, "POST", "/api/v1/auth/register", "", models.RegisterRequest{
		Email:    email,
		Password: "secret1",
		FullName: "Test " + email,
	})
	require.Equal(t, 201, code, env.Error)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := setupServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.BackendMemory, body["backend"])
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupServer(t)
	reg := env.register(t, "ada@example.com")
	assert.NotEmpty(t, reg.Token)

	code, out := env.do(t, "POST", "/api/v1/auth/register", "", models.RegisterRequest{
		Email: "ada@example.com", Password: "secret1", FullName: "Again",
	})
	assert.Equal(t, 409, code)
	assert.False(t, out.Success)

	code, out = env.do(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.Equal(t, 200, code)
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(out.Data, &login))
	assert.Equal(t, reg.User.ID, login.User.ID)

	code, _ = env.do(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{Email: "ada@example.com", Password: "wrong!"})
	assert.Equal(t, 401, code)

	code, _ = env.do(t, "POST", "/api/v1/auth/login", "", models.LoginRequest{Email: "ada@example.com"})
	assert.Equal(t, 400, code)

	code, _ = env.do(t, "POST", "/api/v1/auth/register", "", "{not json")
	assert.Equal(t, 400, code)

	code, out = env.do(t, "GET", "/api/v1/auth/me", login.Token, nil)
	require.Equal(t, 200, code)
	var me models.AuthUser
	require.NoError(t, json.Unmarshal(out.Data, &me))
	assert.Equal(t, reg.User, me)
}

func TestDataRequiresToken(t *testing.T) {
	env := setupServer(t)
	code, _ := env.do(t, "GET", "/api/v1/data/forum_questions", "", nil)
	assert.Equal(t, 401, code)
	code, _ = env.do(t, "GET", "/api/v1/data/forum_questions", "bogus", nil)
	assert.Equal(t, 401, code)
}

func TestDataWriteReadUpdate(t *testing.T) {
	env := setupServer(t)
	user := env.register(t, "bob@example.com")
	token := user.Token

	code, out := env.do(t, "PUT", "/api/v1/data/forum_questions/q1", token, map[string]any{
		"question":  "Why?",
		"timestamp": 5,
		"likeCount": 0,
	})
	require.Equal(t, 200, code, out.Error)

	likedKey := "likedBy/" + user.User.ID
	code, out = env.do(t, "PATCH", "/api/v1/data/forum_questions/q1", token, map[string]any{
		"likeCount": 1,
		likedKey:    true,
	})
	require.Equal(t, 200, code, out.Error)

	code, out = env.do(t, "GET", "/api/v1/data/forum_questions/q1", token, nil)
	require.Equal(t, 200, code)
	var data models.DataResponse
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.True(t, data.Exists)
	assert.Equal(t, "forum_questions/q1", data.Path)
	assert.JSONEq(t, `{"question":"Why?","timestamp":5,"likeCount":1,"likedBy":{"`+user.User.ID+`":true}}`, string(data.Value))

	// null deletes
	code, _ = env.do(t, "PUT", "/api/v1/data/forum_questions/q1", token, "null")
	require.Equal(t, 200, code)
	code, out = env.do(t, "GET", "/api/v1/data/forum_questions/q1", token, nil)
	require.Equal(t, 200, code)
	data = models.DataResponse{}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.False(t, data.Exists)
	assert.Empty(t, data.Value)

	env.events.mu.Lock()
	defer env.events.mu.Unlock()
	require.Len(t, env.events.events, 3)
	assert.Equal(t, "write", env.events.events[0].Op)
	assert.Equal(t, "update", env.events.events[1].Op)
	assert.Equal(t, []string{"likeCount", "likedBy/" + user.User.ID}, env.events.events[1].Fields)
	assert.Equal(t, user.User.ID, env.events.events[1].UserID)
	assert.False(t, env.events.events[2].Timestamp.IsZero())
}

func TestDataOrderedRead(t *testing.T) {
	env := setupServer(t)
	token := env.register(t, "c@example.com").Token
	ctx := context.Background()
	require.NoError(t, env.store.Write(ctx, "forum_replies/q1", map[string]any{
		"r1": map[string]any{"timestamp": 30},
		"r2": map[string]any{"timestamp": 10},
		"r3": map[string]any{"timestamp": 20},
	}))

	code, out := env.do(t, "GET", "/api/v1/data/forum_replies/q1?orderBy=timestamp", token, nil)
	require.Equal(t, 200, code)
	var data models.DataResponse
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.Equal(t, []string{"r2", "r3", "r1"}, data.Order)
}

func TestDataRejectsBadInput(t *testing.T) {
	env := setupServer(t)
	token := env.register(t, "d@example.com").Token

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"root read", "GET", "/api/v1/data/", nil, 400},
		{"illegal segment", "GET", "/api/v1/data/forum$questions", nil, 400},
		{"invalid json", "PUT", "/api/v1/data/forum_questions/q1", "{oops", 400},
		{"patch non-object", "PATCH", "/api/v1/data/forum_questions/q1", "[1,2]", 400},
		{"overlapping fields", "PATCH", "/api/v1/data/forum_questions/q1", map[string]any{"a": 1, "a/b": 2}, 400},
		{"unknown post", "POST", "/api/v1/data/forum_questions", nil, 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out := env.do(t, tc.method, tc.path, token, tc.body)
			assert.Equal(t, tc.status, code)
			assert.False(t, out.Success)
			assert.NotEmpty(t, out.Error)
		})
	}
	assert.Empty(t, env.events.events)
}

func TestDataProfileOwnership(t *testing.T) {
	env := setupServer(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	code, _ := env.do(t, "PATCH", "/api/v1/data/users/"+alice.User.ID, alice.Token, map[string]any{"fullName": "Alice"})
	assert.Equal(t, 200, code)

	code, _ = env.do(t, "PATCH", "/api/v1/data/users/"+alice.User.ID, bob.Token, map[string]any{"fullName": "Mallory"})
	assert.Equal(t, 403, code)

	code, _ = env.do(t, "PUT", "/api/v1/data/users", bob.Token, map[string]any{})
	assert.Equal(t, 403, code)

	code, _ = env.do(t, "PATCH", "/api/v1/data/users", bob.Token, map[string]any{bob.User.ID + "/fullName": "Bob", alice.User.ID + "/fullName": "x"})
	assert.Equal(t, 403, code)

	snap, err := env.store.Read(context.Background(), "users/"+alice.User.ID+"/fullName")
	require.NoError(t, err)
	assert.JSONEq(t, `"Alice"`, string(snap.Raw()))
}

func TestDataPushKey(t *testing.T) {
	env := setupServer(t)
	token := env.register(t, "e@example.com").Token

	var keys []string
	for i := 0; i < 3; i++ {
		code, out := env.do(t, "POST", "/api/v1/data/forum_questions/push", token, nil)
		require.Equal(t, 200, code, out.Error)
		var resp models.PushKeyResponse
		require.NoError(t, json.Unmarshal(out.Data, &resp))
		require.Len(t, resp.Key, 20)
		keys = append(keys, resp.Key)
	}
	assert.Less(t, keys[0], keys[1])
	assert.Less(t, keys[1], keys[2])
}

func TestDataStorePermissionDenied(t *testing.T) {
	env := setupServer(t)
	token := env.register(t, "f@example.com").Token
	require.NoError(t, env.store.Deny("forum_replies"))

	code, _ := env.do(t, "GET", "/api/v1/data/forum_replies/q1", token, nil)
	assert.Equal(t, 403, code)
	code, _ = env.do(t, "PUT", "/api/v1/data/forum_replies/q1/r1", token, map[string]any{"reply": "x"})
	assert.Equal(t, 403, code)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	env := setupServer(t)
	env.events.err = errors.New("nats down")
	token := env.register(t, "g@example.com").Token

	code, _ := env.do(t, "PUT", "/api/v1/data/forum_questions/q1", token, map[string]any{"question": "x"})
	assert.Equal(t, 200, code)
}

func TestWriteRateLimit(t *testing.T) {
	env := setupServer(t, func(c *config.Config) {
		c.RateLimit.WritesPerSecond = 0.001
		c.RateLimit.Burst = 2
	})
	alice := env.register(t, "h@example.com").Token
	bob := env.register(t, "i@example.com").Token

	for i := 0; i < 2; i++ {
		code, _ := env.do(t, "PUT", "/api/v1/data/forum_questions/q1", alice, map[string]any{"n": i})
		require.Equal(t, 200, code)
	}
	code, out := env.do(t, "PUT", "/api/v1/data/forum_questions/q1", alice, map[string]any{"n": 3})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, models.ErrRateLimited.Error(), out.Error)

	// Reads and other users are unaffected
	code, _ = env.do(t, "GET", "/api/v1/data/forum_questions/q1", alice, nil)
	assert.Equal(t, 200, code)
	code, _ = env.do(t, "PUT", "/api/v1/data/forum_questions/q2", bob, map[string]any{"n": 1})
	assert.Equal(t, 200, code)
}
