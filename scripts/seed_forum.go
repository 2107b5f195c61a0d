package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"forumhub/internal/forum"
	"forumhub/internal/identity"
	"forumhub/internal/remote"
	"forumhub/pkg/models"
)

type account struct {
	email    string
	password string
	name     string
}

var accounts = []account{
	{"admin@forumhub.local", "admin123", "Admin"},
	{"moderator@forumhub.local", "moderator123", "Moderator"},
	{"test@forumhub.local", "testpass123", "Test User"},
}

var questions = []struct {
	title, description string
	replies            []string
}{
	{"How do I reset my password?", "The login screen has no reset link.", []string{"Ask an admin for now."}},
	{"Is there a dark theme?", "", []string{"Set ui.theme in tui.yaml.", "Dracula is the default."}},
	{"Welcome thread", "Introduce yourself here.", nil},
}

// quiet drops controller output; the seeder only needs the writes
type quiet struct{}

func (quiet) ShowQuestions([]models.Question)                   {}
func (quiet) ShowQuestion(models.Question, forum.ReactionState) {}
func (quiet) ShowReplies([]models.Reply)                        {}
func (quiet) ShowNotice(string)                                 {}
func (quiet) ShowFieldError(string, string)                     {}
func (quiet) SetSubmitEnabled(bool)                             {}
func (quiet) QuestionPosted(models.Question)                    {}
func (quiet) ClearReplyInput()                                  {}

func main() {
	server := flag.String("server", "http://localhost:8080", "forumhub server URL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, *server); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, server string) error {
	sessions := make([]*identity.Session, len(accounts))
	for i, a := range accounts {
		session := identity.NewSession()
		client := remote.NewClient(server, session)
		resp, err := client.Register(ctx, models.RegisterRequest{Email: a.email, Password: a.password, FullName: a.name})
		if errors.Is(err, models.ErrEmailExists) {
			resp, err = client.Login(ctx, models.LoginRequest{Email: a.email, Password: a.password})
		}
		if err != nil {
			return fmt.Errorf("account %s: %w", a.email, err)
		}
		session.SignIn(resp.User, resp.Token)
		sessions[i] = session
		fmt.Printf("Account: %s / %s\n", a.email, a.password)
	}

	author := sessions[len(sessions)-1]
	st := remote.NewStore(remote.NewClient(server, author))
	list := forum.NewQuestionList(st, author, quiet{})

	for i, q := range questions {
		posted, err := list.Submit(ctx, q.title, q.description)
		if err != nil {
			return fmt.Errorf("question %q: %w", q.title, err)
		}
		fmt.Printf("Question %s: %s\n", posted.ID, posted.Question)

		// the first account likes every other question
		if i%2 == 0 {
			admin := sessions[0]
			adminList := forum.NewQuestionList(remote.NewStore(remote.NewClient(server, admin)), admin, quiet{})
			if err := adminList.Like(ctx, posted); err != nil {
				return fmt.Errorf("like %s: %w", posted.ID, err)
			}
		}

		for j, text := range q.replies {
			replier := sessions[j%(len(sessions)-1)]
			if err := reply(ctx, server, replier, posted.ID, text); err != nil {
				return fmt.Errorf("reply to %s: %w", posted.ID, err)
			}
		}
	}
	return nil
}

func reply(ctx context.Context, server string, session *identity.Session, questionID, text string) error {
	detail := forum.NewQuestionDetail(remote.NewStore(remote.NewClient(server, session)), session, quiet{})
	if err := detail.Open(ctx, questionID); err != nil {
		return err
	}
	defer detail.Close()

	// replies bump the cached reply count, so wait for the question
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := detail.Question(); ok {
			break
		}
		if time.Now().After(deadline) {
			return forum.ErrNoQuestion
		}
		time.Sleep(50 * time.Millisecond)
	}

	_, err := detail.SubmitReply(ctx, text)
	return err
}
