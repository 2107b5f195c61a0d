package forum

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forumhub/internal/store"
	"forumhub/pkg/models"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// faultStore wraps a store, failing writes whose path matches failWrite and
// counting every mutation
type faultStore struct {
	store.Store

	mu        sync.Mutex
	failWrite func(path string) bool
	writes    []string
	updates   []string
}

func newFaultStore() *faultStore {
	return &faultStore{Store: store.NewMemory()}
}

func (f *faultStore) Write(ctx context.Context, path string, value any) error {
	f.mu.Lock()
	fail := f.failWrite != nil && f.failWrite(path)
	if !fail {
		f.writes = append(f.writes, path)
	}
	f.mu.Unlock()
	if fail {
		return store.ErrPermissionDenied
	}
	return f.Store.Write(ctx, path, value)
}

func (f *faultStore) Update(ctx context.Context, path string, fields store.Fields) error {
	f.mu.Lock()
	f.updates = append(f.updates, path)
	f.mu.Unlock()
	return f.Store.Update(ctx, path, fields)
}

func (f *faultStore) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes) + len(f.updates)
}

func failPathSuffix(suffix string) func(string) bool {
	return func(path string) bool { return strings.HasSuffix(path, suffix) }
}

type listView struct {
	mu          sync.Mutex
	lists       [][]models.Question
	notices     []string
	fieldErrors map[string]string
	submit      []bool
	posted      []models.Question
}

func newListView() *listView {
	return &listView{fieldErrors: make(map[string]string)}
}

func (v *listView) ShowQuestions(qs []models.Question) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, qs)
}

func (v *listView) ShowNotice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *listView) ShowFieldError(field, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fieldErrors[field] = msg
}

func (v *listView) SetSubmitEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submit = append(v.submit, enabled)
}

func (v *listView) QuestionPosted(q models.Question) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posted = append(v.posted, q)
}

func (v *listView) renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.lists)
}

func (v *listView) last() []models.Question {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lists) == 0 {
		return nil
	}
	return v.lists[len(v.lists)-1]
}

func (v *listView) noticeList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

type detailView struct {
	mu        sync.Mutex
	questions []models.Question
	states    []ReactionState
	replies   [][]models.Reply
	notices   []string
	fieldErrs map[string]string
	submit    []bool
	cleared   int
}

func newDetailView() *detailView {
	return &detailView{fieldErrs: make(map[string]string)}
}

func (v *detailView) ShowQuestion(q models.Question, state ReactionState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.questions = append(v.questions, q)
	v.states = append(v.states, state)
}

func (v *detailView) ShowReplies(rs []models.Reply) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replies = append(v.replies, rs)
}

func (v *detailView) ShowNotice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *detailView) ShowFieldError(field, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fieldErrs[field] = msg
}

func (v *detailView) SetSubmitEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submit = append(v.submit, enabled)
}

func (v *detailView) ClearReplyInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *detailView) lastQuestion() (models.Question, ReactionState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.questions) == 0 {
		return models.Question{}, ReactionState{}, false
	}
	return v.questions[len(v.questions)-1], v.states[len(v.states)-1], true
}

func (v *detailView) lastReplies() []models.Reply {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.replies) == 0 {
		return nil
	}
	return v.replies[len(v.replies)-1]
}

func (v *detailView) noticeList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

func (v *detailView) lastSubmit() (bool, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.submit) == 0 {
		return false, false
	}
	return v.submit[len(v.submit)-1], true
}

func seedProfile(t *testing.T, st store.Store, uid, name, email string) {
	t.Helper()
	require.NoError(t, st.Write(context.Background(), ProfilePath(uid), models.UserProfile{
		UID:      uid,
		FullName: name,
		Email:    email,
	}))
}

func seedQuestion(t *testing.T, st store.Store, q models.Question) {
	t.Helper()
	require.NoError(t, st.Write(context.Background(), QuestionPath(q.ID), q))
}

func readQuestion(t *testing.T, st store.Store, id string) models.Question {
	t.Helper()
	snap, err := st.Read(context.Background(), QuestionPath(id))
	require.NoError(t, err)
	q, err := DecodeQuestion(snap)
	require.NoError(t, err)
	return q
}

const eventually = 3 * time.Second
const tick = 10 * time.Millisecond
