package forum

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"forumhub/internal/identity"
	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

// QuestionList drives the forum list and ask screens
type QuestionList interface {
	// Subscribe attaches the listener on the question collection
	Subscribe(ctx context.Context) error
	// Submit validates and posts a new question
	Submit(ctx context.Context, title, description string) (models.Question, error)
	Like(ctx context.Context, q models.Question) error
	Dislike(ctx context.Context, q models.Question) error
	// Question returns the cached question with the given id
	Question(id string) (models.Question, bool)
	// Questions returns the cached list, newest first
	Questions() []models.Question
	// Unsubscribe detaches the listener; no view call happens after it returns
	Unsubscribe()
}

type questionList struct {
	store store.Store
	ident identity.Provider
	view  QuestionListView
	opts  options

	// mu guards the lifecycle and serialises view calls
	mu    sync.Mutex
	alive bool
	sub   *store.Subscription
	done  chan struct{}

	cacheMu   sync.RWMutex
	questions []models.Question
}

// NewQuestionList creates a question list controller
func NewQuestionList(st store.Store, ident identity.Provider, view QuestionListView, opts ...Option) QuestionList {
	return &questionList{
		store: st,
		ident: ident,
		view:  view,
		opts:  buildOptions(opts),
		alive: true,
	}
}

func (l *questionList) render(fn func(v QuestionListView)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.alive {
		fn(l.view)
	}
}

func (l *questionList) Subscribe(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		return ErrAlreadySubscribed
	}
	sub, err := l.store.Subscribe(ctx, QuestionsPath, store.OrderByChild("timestamp"))
	if err != nil {
		return fmt.Errorf("subscribe questions: %w", err)
	}

	l.alive = true
	l.sub = sub
	l.done = make(chan struct{})
	go l.listen(sub, l.done)
	return nil
}

func (l *questionList) listen(sub *store.Subscription, done chan struct{}) {
	defer close(done)

	for snap := range sub.Snapshots() {
		questions := DecodeQuestionList(snap)

		l.mu.Lock()
		if !l.alive || l.sub != sub {
			l.mu.Unlock()
			return
		}
		l.cacheMu.Lock()
		l.questions = questions
		l.cacheMu.Unlock()
		l.view.ShowQuestions(copyQuestions(questions))
		l.mu.Unlock()
	}

	if err := sub.Err(); err != nil {
		logger.Warnf("Question listener stopped: %v", err)
		l.mu.Lock()
		if l.alive && l.sub == sub {
			l.view.ShowNotice(NoticeLoadQuestions)
		}
		l.mu.Unlock()
	}
}

func (l *questionList) Submit(ctx context.Context, title, description string) (models.Question, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		l.render(func(v QuestionListView) { v.ShowFieldError(FieldQuestion, NoticeEnterQuestion) })
		return models.Question{}, &ValidationError{Field: FieldQuestion, Message: NoticeEnterQuestion}
	}

	user, ok := l.ident.CurrentUser()
	if !ok {
		l.render(func(v QuestionListView) { v.ShowNotice(NoticeLoginRequired) })
		return models.Question{}, ErrNotAuthenticated
	}

	l.render(func(v QuestionListView) { v.SetSubmitEnabled(false) })

	fail := func(err error) (models.Question, error) {
		logger.Warnf("Failed to post question: %v", err)
		l.render(func(v QuestionListView) {
			v.ShowNotice(NoticeQuestionFailed)
			v.SetSubmitEnabled(true)
		})
		return models.Question{}, err
	}

	name, email, err := ReadAuthor(ctx, l.store, user.ID)
	if err != nil {
		return fail(err)
	}

	q := models.Question{
		ID:          l.store.PushKey(QuestionsPath),
		UserID:      user.ID,
		UserName:    name,
		UserEmail:   email,
		Question:    title,
		Description: description,
		Timestamp:   l.opts.now().UnixMilli(),
		LikedBy:     map[string]bool{},
		DislikedBy:  map[string]bool{},
	}

	if err := l.store.Write(ctx, QuestionPath(q.ID), q); err != nil {
		return fail(fmt.Errorf("write question: %w", err))
	}

	logger.Forum("question_posted", q.ID, map[string]interface{}{"user_id": user.ID})
	l.render(func(v QuestionListView) {
		v.ShowNotice(NoticeQuestionPosted)
		v.QuestionPosted(q)
	})
	return q, nil
}

func (l *questionList) Like(ctx context.Context, q models.Question) error {
	return l.toggle(ctx, q, ReactionLike)
}

func (l *questionList) Dislike(ctx context.Context, q models.Question) error {
	return l.toggle(ctx, q, ReactionDislike)
}

func (l *questionList) toggle(ctx context.Context, q models.Question, r Reaction) error {
	user, ok := l.ident.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}

	if err := l.store.Update(ctx, QuestionPath(q.ID), ToggleQuestion(q, user.ID, r)); err != nil {
		logger.Warnf("Failed to %s question %s: %v", r, q.ID, err)
		l.render(func(v QuestionListView) { v.ShowNotice(NoticeReactionFailed) })
		return fmt.Errorf("%s question: %w", r, err)
	}
	return nil
}

func (l *questionList) Question(id string) (models.Question, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	for _, q := range l.questions {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

func (l *questionList) Questions() []models.Question {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return copyQuestions(l.questions)
}

func (l *questionList) Unsubscribe() {
	l.mu.Lock()
	l.alive = false
	sub, done := l.sub, l.done
	l.sub, l.done = nil, nil
	l.mu.Unlock()

	if sub != nil {
		sub.Close()
		<-done
	}
}

func copyQuestions(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	copy(out, qs)
	return out
}
