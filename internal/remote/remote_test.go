package remote

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/core"
	"forumhub/internal/forum"
	"forumhub/internal/identity"
	httpProtocol "forumhub/internal/protocols/http"
	wsProtocol "forumhub/internal/protocols/websocket"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/internal/store/storetest"
	"forumhub/pkg/config"
	"forumhub/pkg/models"
)

type testServer struct {
	backing *store.Memory
	hub     *wsProtocol.Hub
	server  *httptest.Server
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.WritesPerSecond = 0

	backing := store.NewMemory()
	authSvc := core.NewAuthService(repository.NewMemoryAccountRepository(), backing, "remote-secret", "forumhub-test", time.Hour)
	hub := wsProtocol.NewHub(backing)
	srv := httpProtocol.NewServer(cfg, authSvc, backing, nil, wsProtocol.NewHandler(hub, authSvc, nil))
	server := httptest.NewServer(srv.Router())

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})
	return &testServer{backing: backing, hub: hub, server: server}
}

// signIn registers a fresh account and returns a session holding its token
func (ts *testServer) signIn(t *testing.T, email string) (*Client, *identity.Session) {
	t.Helper()
	session := identity.NewSession()
	client := NewClient(ts.server.URL, session)
	resp, err := client.Register(context.Background(), models.RegisterRequest{
		Email:    email,
		Password: "secret1",
		FullName: "Remote " + email,
	})
	require.NoError(t, err)
	session.SignIn(resp.User, resp.Token)
	return client, session
}

func TestRemoteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		ts := startServer(t)
		client, _ := ts.signIn(t, "contract@example.com")
		return NewStore(client)
	})
}

func TestClientAuth(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	client, session := ts.signIn(t, "auth@example.com")

	me, err := client.Me(ctx)
	require.NoError(t, err)
	user, ok := session.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user, me)

	_, err = client.Register(ctx, models.RegisterRequest{Email: "auth@example.com", Password: "secret1", FullName: "x"})
	assert.ErrorIs(t, err, models.ErrEmailExists)

	_, err = client.Login(ctx, models.LoginRequest{Email: "auth@example.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	resp, err := client.Login(ctx, models.LoginRequest{Email: "auth@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	session.SignOut()
	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.NoError(t, client.Health(ctx))
}

func TestStoreErrorsMapToSentinels(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	client, session := ts.signIn(t, "errors@example.com")
	st := NewStore(client)

	err := st.Write(ctx, "users/someone-else/fullName", "x")
	assert.ErrorIs(t, err, store.ErrPermissionDenied)

	require.NoError(t, ts.backing.Deny("forum_replies"))
	_, err = st.Read(ctx, "forum_replies/q1")
	assert.ErrorIs(t, err, store.ErrPermissionDenied)

	_, err = st.Subscribe(ctx, "forum_replies/q1")
	assert.ErrorIs(t, err, store.ErrPermissionDenied)

	session.SignOut()
	_, err = st.Read(ctx, "forum_questions")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = st.Subscribe(ctx, "forum_questions")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSubscriptionCancelledByServer(t *testing.T) {
	ts := startServer(t)
	client, _ := ts.signIn(t, "cancel@example.com")
	st := NewStore(client)

	sub, err := st.Subscribe(context.Background(), "forum_replies/q1")
	require.NoError(t, err)
	defer sub.Close()
	storetest.WaitFor(t, sub, func(store.Snapshot) bool { return true })

	require.NoError(t, ts.backing.Deny("forum_replies"))

	select {
	case <-sub.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription not cancelled")
	}
	assert.ErrorIs(t, sub.Err(), store.ErrListenerCancelled)
}

func TestSubscriptionCancelledOnServerShutdown(t *testing.T) {
	ts := startServer(t)
	client, _ := ts.signIn(t, "shutdown@example.com")
	st := NewStore(client)

	sub, err := st.Subscribe(context.Background(), "forum_questions")
	require.NoError(t, err)
	defer sub.Close()
	storetest.WaitFor(t, sub, func(store.Snapshot) bool { return true })

	// websocket connections are hijacked, so stopping the hub is what drops them
	ts.hub.Stop()

	select {
	case <-sub.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription survived the server shutting down")
	}
	assert.ErrorIs(t, sub.Err(), store.ErrListenerCancelled)
}

type recordingListView struct {
	mu    sync.Mutex
	lists [][]models.Question
}

func (v *recordingListView) ShowQuestions(qs []models.Question) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, qs)
}

func (v *recordingListView) latest() []models.Question {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lists) == 0 {
		return nil
	}
	return v.lists[len(v.lists)-1]
}

func (v *recordingListView) ShowNotice(string)              {}
func (v *recordingListView) ShowFieldError(string, string)  {}
func (v *recordingListView) SetSubmitEnabled(bool)          {}
func (v *recordingListView) QuestionPosted(models.Question) {}

func TestQuestionListOverRemoteStore(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	client, session := ts.signIn(t, "forum@example.com")
	user, _ := session.CurrentUser()

	view := &recordingListView{}
	list := forum.NewQuestionList(NewStore(client), session, view)
	require.NoError(t, list.Subscribe(ctx))
	defer list.Unsubscribe()

	q, err := list.Submit(ctx, "Does it sync?", "over the wire")
	require.NoError(t, err)
	assert.Equal(t, "Remote forum@example.com", q.UserName)

	require.Eventually(t, func() bool { return len(view.latest()) == 1 }, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, list.Like(ctx, view.latest()[0]))
	require.Eventually(t, func() bool {
		qs := view.latest()
		return len(qs) == 1 && qs[0].LikeCount == 1 && qs[0].IsLikedBy(user.ID)
	}, 3*time.Second, 20*time.Millisecond)

	snap, err := ts.backing.Read(ctx, forum.QuestionPath(q.ID))
	require.NoError(t, err)
	var stored models.Question
	require.NoError(t, snap.Decode(&stored))
	assert.Equal(t, 1, stored.LikeCount)
	assert.True(t, stored.LikedBy[user.ID])
}
