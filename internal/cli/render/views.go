package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"forumhub/internal/forum"
	"forumhub/pkg/models"
)

// latest is a one-slot mailbox that keeps only the newest value
type latest[T any] struct {
	ch chan T
	mu sync.Mutex
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

func (l *latest[T]) next(ctx context.Context) (T, error) {
	select {
	case v := <-l.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ErrListStopped is returned by Next once the list listener has failed
var ErrListStopped = errors.New("question list stopped updating")

// ListView collects QuestionList callbacks for a command. Notices and field
// errors are printed to Err as they arrive.
type ListView struct {
	Err         io.Writer
	lists       *latest[[]models.Question]
	stopped     chan struct{}
	stoppedOnce sync.Once
}

var _ forum.QuestionListView = (*ListView)(nil)

func NewListView(errOut io.Writer) *ListView {
	return &ListView{Err: errOut, lists: newLatest[[]models.Question](), stopped: make(chan struct{})}
}

func (v *ListView) ShowQuestions(qs []models.Question) { v.lists.put(qs) }

func (v *ListView) ShowNotice(message string) {
	if message == forum.NoticeLoadQuestions {
		v.stoppedOnce.Do(func() { close(v.stopped) })
	}
	fmt.Fprintf(v.Err, "! %s\n", message)
}

func (v *ListView) ShowFieldError(field, message string) {
	fmt.Fprintf(v.Err, "! %s: %s\n", field, message)
}

func (v *ListView) SetSubmitEnabled(bool) {}

func (v *ListView) QuestionPosted(models.Question) {}

// Next blocks until the controller shows a list. A list shown before the
// listener failed is still returned first.
func (v *ListView) Next(ctx context.Context) ([]models.Question, error) {
	select {
	case qs := <-v.lists.ch:
		return qs, nil
	default:
	}
	select {
	case qs := <-v.lists.ch:
		return qs, nil
	case <-v.stopped:
		return nil, ErrListStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QuestionShown pairs a question with the viewer's reaction state
type QuestionShown struct {
	Question models.Question
	State    forum.ReactionState
}

// ErrQuestionMissing is returned by NextQuestion when the question does not exist
var ErrQuestionMissing = errors.New("question not found")

// DetailView collects QuestionDetail callbacks for a command
type DetailView struct {
	Err         io.Writer
	questions   *latest[QuestionShown]
	replies     *latest[[]models.Reply]
	missing     chan struct{}
	missingOnce sync.Once
}

var _ forum.QuestionDetailView = (*DetailView)(nil)

func NewDetailView(errOut io.Writer) *DetailView {
	return &DetailView{
		Err:       errOut,
		questions: newLatest[QuestionShown](),
		replies:   newLatest[[]models.Reply](),
		missing:   make(chan struct{}),
	}
}

func (v *DetailView) ShowQuestion(q models.Question, state forum.ReactionState) {
	v.questions.put(QuestionShown{Question: q, State: state})
}

func (v *DetailView) ShowReplies(replies []models.Reply) { v.replies.put(replies) }

func (v *DetailView) ShowNotice(message string) {
	if message == forum.NoticeQuestionMissing {
		v.missingOnce.Do(func() { close(v.missing) })
	}
	fmt.Fprintf(v.Err, "! %s\n", message)
}

func (v *DetailView) ShowFieldError(field, message string) {
	fmt.Fprintf(v.Err, "! %s: %s\n", field, message)
}

func (v *DetailView) SetSubmitEnabled(bool) {}

func (v *DetailView) ClearReplyInput() {}

// NextQuestion blocks until the controller shows the question, or reports
// that it is missing
func (v *DetailView) NextQuestion(ctx context.Context) (QuestionShown, error) {
	select {
	case shown := <-v.questions.ch:
		return shown, nil
	case <-v.missing:
		return QuestionShown{}, ErrQuestionMissing
	case <-ctx.Done():
		return QuestionShown{}, ctx.Err()
	}
}

// NextReplies blocks until the controller shows the reply list
func (v *DetailView) NextReplies(ctx context.Context) ([]models.Reply, error) {
	return v.replies.next(ctx)
}
