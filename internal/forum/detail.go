package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"forumhub/internal/identity"
	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

// QuestionDetail drives the screen showing one question and its replies
type QuestionDetail interface {
	// Open attaches the question and reply listeners
	Open(ctx context.Context, questionID string) error
	// SubmitReply posts a reply and then bumps the question's reply count
	SubmitReply(ctx context.Context, text string) (models.Reply, error)
	LikeQuestion(ctx context.Context) error
	DislikeQuestion(ctx context.Context) error
	LikeReply(ctx context.Context, reply models.Reply) error
	// Question returns the cached question, false before the first snapshot
	Question() (models.Question, bool)
	// Replies returns the cached replies, oldest first
	Replies() []models.Reply
	// Close detaches both listeners. It is safe to call more than once.
	Close()
}

type questionDetail struct {
	store store.Store
	ident identity.Provider
	view  QuestionDetailView
	opts  options

	mu         sync.Mutex
	alive      bool
	questionID string
	subs       []*store.Subscription
	wg         sync.WaitGroup

	cacheMu  sync.RWMutex
	question models.Question
	hasQ     bool
	replies  []models.Reply
}

// NewQuestionDetail creates a question detail controller
func NewQuestionDetail(st store.Store, ident identity.Provider, view QuestionDetailView, opts ...Option) QuestionDetail {
	return &questionDetail{
		store: st,
		ident: ident,
		view:  view,
		opts:  buildOptions(opts),
		alive: true,
	}
}

func (d *questionDetail) render(fn func(v QuestionDetailView)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.alive {
		fn(d.view)
	}
}

func (d *questionDetail) Open(ctx context.Context, questionID string) error {
	if _, err := store.SplitPath(questionID); err != nil || strings.Contains(questionID, "/") {
		return fmt.Errorf("%w: question id %q", store.ErrInvalidPath, questionID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.subs != nil {
		return ErrAlreadySubscribed
	}

	qSub, err := d.store.Subscribe(ctx, QuestionPath(questionID))
	if err != nil {
		return fmt.Errorf("subscribe question: %w", err)
	}
	rSub, err := d.store.Subscribe(ctx, ReplyListPath(questionID), store.OrderByChild("timestamp"))
	if err != nil {
		qSub.Close()
		return fmt.Errorf("subscribe replies: %w", err)
	}

	d.cacheMu.Lock()
	d.question, d.hasQ, d.replies = models.Question{}, false, nil
	d.cacheMu.Unlock()

	d.alive = true
	d.questionID = questionID
	d.subs = []*store.Subscription{qSub, rSub}
	d.wg.Add(2)
	go d.listenQuestion(qSub)
	go d.listenReplies(rSub)
	return nil
}

func (d *questionDetail) current(sub *store.Subscription) bool {
	if !d.alive {
		return false
	}
	for _, s := range d.subs {
		if s == sub {
			return true
		}
	}
	return false
}

func (d *questionDetail) listenQuestion(sub *store.Subscription) {
	defer d.wg.Done()

	for snap := range sub.Snapshots() {
		var (
			q   models.Question
			err error
		)
		exists := snap.Exists()
		if exists {
			if q, err = DecodeQuestion(snap); err != nil {
				logger.Warnf("Skipping question update: %v", err)
				continue
			}
		}

		d.mu.Lock()
		if !d.current(sub) {
			d.mu.Unlock()
			return
		}
		d.cacheMu.Lock()
		d.question, d.hasQ = q, exists
		d.cacheMu.Unlock()

		if exists {
			var userID string
			if user, ok := d.ident.CurrentUser(); ok {
				userID = user.ID
			}
			d.view.ShowQuestion(q, StateOf(q, userID))
		} else {
			d.view.ShowNotice(NoticeQuestionMissing)
		}
		d.mu.Unlock()
	}

	d.stopped(sub, "question", NoticeLoadQuestion)
}

func (d *questionDetail) listenReplies(sub *store.Subscription) {
	defer d.wg.Done()

	for snap := range sub.Snapshots() {
		replies := DecodeReplyList(snap)

		d.mu.Lock()
		if !d.current(sub) {
			d.mu.Unlock()
			return
		}
		d.cacheMu.Lock()
		d.replies = replies
		d.cacheMu.Unlock()
		d.view.ShowReplies(copyReplies(replies))
		d.mu.Unlock()
	}

	d.stopped(sub, "reply", NoticeLoadReplies)
}

func (d *questionDetail) stopped(sub *store.Subscription, what, notice string) {
	err := sub.Err()
	if err == nil {
		return
	}
	logger.Warnf("%s listener stopped: %v", what, err)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current(sub) {
		d.view.ShowNotice(notice)
	}
}

func (d *questionDetail) openedID() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.questionID == "" {
		return "", ErrNoQuestion
	}
	return d.questionID, nil
}

func (d *questionDetail) SubmitReply(ctx context.Context, text string) (models.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		d.render(func(v QuestionDetailView) { v.ShowFieldError(FieldReply, NoticeEnterReply) })
		return models.Reply{}, &ValidationError{Field: FieldReply, Message: NoticeEnterReply}
	}

	user, ok := d.ident.CurrentUser()
	if !ok {
		d.render(func(v QuestionDetailView) { v.ShowNotice(NoticeLoginRequired) })
		return models.Reply{}, ErrNotAuthenticated
	}

	questionID, err := d.openedID()
	if err != nil {
		return models.Reply{}, err
	}

	d.render(func(v QuestionDetailView) { v.SetSubmitEnabled(false) })

	fail := func(err error) (models.Reply, error) {
		logger.Warnf("Failed to post reply on %s: %v", questionID, err)
		d.render(func(v QuestionDetailView) {
			v.ShowNotice(NoticeReplyFailed)
			v.SetSubmitEnabled(true)
		})
		return models.Reply{}, err
	}

	name, email, err := ReadAuthor(ctx, d.store, user.ID)
	if err != nil {
		return fail(err)
	}

	reply := models.Reply{
		ID:         d.store.PushKey(ReplyListPath(questionID)),
		QuestionID: questionID,
		UserID:     user.ID,
		UserName:   name,
		UserEmail:  email,
		Reply:      text,
		Timestamp:  d.opts.now().UnixMilli(),
		LikedBy:    map[string]bool{},
	}
	if err := d.store.Write(ctx, ReplyPath(questionID, reply.ID), reply); err != nil {
		return fail(fmt.Errorf("write reply: %w", err))
	}

	// Second, independent write: the count comes from the cached question and
	// is left stale if this fails
	cached, _ := d.Question()
	countPath := store.JoinPath(QuestionPath(questionID), fieldReplyCount)
	if err := d.store.Write(ctx, countPath, cached.ReplyCount+1); err != nil {
		_, err = fail(errors.Join(ErrReplyCountStale, err))
		return reply, err
	}

	logger.Forum("reply_posted", reply.ID, map[string]interface{}{
		"question_id": questionID,
		"user_id":     user.ID,
	})
	d.render(func(v QuestionDetailView) {
		v.ClearReplyInput()
		v.ShowNotice(NoticeReplyPosted)
		v.SetSubmitEnabled(true)
	})
	return reply, nil
}

func (d *questionDetail) LikeQuestion(ctx context.Context) error {
	return d.toggleQuestion(ctx, ReactionLike)
}

func (d *questionDetail) DislikeQuestion(ctx context.Context) error {
	return d.toggleQuestion(ctx, ReactionDislike)
}

func (d *questionDetail) toggleQuestion(ctx context.Context, r Reaction) error {
	user, ok := d.ident.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}
	q, ok := d.Question()
	if !ok {
		return ErrNoQuestion
	}

	if err := d.store.Update(ctx, QuestionPath(q.ID), ToggleQuestion(q, user.ID, r)); err != nil {
		logger.Warnf("Failed to %s question %s: %v", r, q.ID, err)
		d.render(func(v QuestionDetailView) { v.ShowNotice(NoticeReactionFailed) })
		return fmt.Errorf("%s question: %w", r, err)
	}
	return nil
}

func (d *questionDetail) LikeReply(ctx context.Context, reply models.Reply) error {
	user, ok := d.ident.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}
	questionID := reply.QuestionID
	if questionID == "" {
		var err error
		if questionID, err = d.openedID(); err != nil {
			return err
		}
	}

	if err := d.store.Update(ctx, ReplyPath(questionID, reply.ID), ToggleReply(reply, user.ID)); err != nil {
		logger.Warnf("Failed to like reply %s: %v", reply.ID, err)
		d.render(func(v QuestionDetailView) { v.ShowNotice(NoticeReactionFailed) })
		return fmt.Errorf("like reply: %w", err)
	}
	return nil
}

func (d *questionDetail) Question() (models.Question, bool) {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	return d.question, d.hasQ
}

func (d *questionDetail) Replies() []models.Reply {
	d.cacheMu.RLock()
	defer d.cacheMu.RUnlock()
	return copyReplies(d.replies)
}

func (d *questionDetail) Close() {
	d.mu.Lock()
	d.alive = false
	subs := d.subs
	d.subs = nil
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	d.wg.Wait()
}

func copyReplies(rs []models.Reply) []models.Reply {
	out := make([]models.Reply, len(rs))
	copy(out, rs)
	return out
}
