package session

import (
	"context"
	"io"

	"forumhub/internal/cli/render"
	"forumhub/internal/forum"
)

// Detail is an opened question for commands that act on one thread
type Detail struct {
	forum.QuestionDetail
	View   *render.DetailView
	Shown  render.QuestionShown
	UserID string
}

// OpenDetail opens questionID and waits for its first snapshot. Callers must
// Close the returned detail.
func OpenDetail(ctx context.Context, errOut io.Writer, questionID string) (*Detail, error) {
	s, st, err := RequireLogin()
	if err != nil {
		return nil, err
	}
	user, _ := s.CurrentUser()

	view := render.NewDetailView(errOut)
	ctrl := forum.NewQuestionDetail(st, s, view)
	if err := ctrl.Open(ctx, questionID); err != nil {
		ctrl.Close()
		return nil, err
	}
	shown, err := view.NextQuestion(ctx)
	if err != nil {
		ctrl.Close()
		return nil, err
	}
	return &Detail{QuestionDetail: ctrl, View: view, Shown: shown, UserID: user.ID}, nil
}

// OpenList subscribes a question list; lists arrive through the returned view
func OpenList(ctx context.Context, errOut io.Writer) (forum.QuestionList, *render.ListView, error) {
	s, st, err := RequireLogin()
	if err != nil {
		return nil, nil, err
	}
	view := render.NewListView(errOut)
	list := forum.NewQuestionList(st, s, view)
	if err := list.Subscribe(ctx); err != nil {
		list.Unsubscribe()
		return nil, nil, err
	}
	return list, view, nil
}
