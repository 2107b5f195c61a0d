package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/tui/config"
	"forumhub/internal/tui/views"
	"forumhub/pkg/models"
)

// pump records controller output so the test can feed it back in order
type pump struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (p *pump) Send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *pump) drain() []tea.Msg {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.msgs
	p.msgs = nil
	return out
}

type harness struct {
	t     *testing.T
	model tea.Model
	pump  *pump
}

// update applies msg and runs the resulting commands until they settle
func (h *harness) update(msg tea.Msg) {
	h.t.Helper()
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	for _, out := range runCmd(cmd) {
		if _, quit := out.(tea.QuitMsg); quit {
			continue
		}
		h.update(out)
	}
}

// settle feeds controller output back until fn holds
func (h *harness) settle(fn func(m Model) bool) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		for _, msg := range h.pump.drain() {
			h.update(msg)
		}
		return fn(h.model.(Model))
	}, 2*time.Second, 10*time.Millisecond)
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	// blink and spinner ticks would loop forever
	if !isAppMsg(msg) {
		return nil
	}
	return []tea.Msg{msg}
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case views.AuthSuccessMsg, views.AuthErrorMsg, views.OpenQuestionMsg, views.BackMsg,
		views.AskMsg, views.CancelAskMsg, views.ListErrorMsg, views.DetailErrorMsg, tea.QuitMsg:
		return true
	}
	return false
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestAppForumFlow(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Kind = config.BackendMemory
	b, err := OpenBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	resp, err := b.Auth.Register(context.Background(), models.RegisterRequest{
		Email: "tui@example.com", Password: "secret1", FullName: "Tui User",
	})
	require.NoError(t, err)

	p := &pump{}
	app := New(cfg, b, p)
	defer app.Shutdown()
	h := &harness{t: t, model: *app, pump: p}
	h.update(tea.WindowSizeMsg{Width: 100, Height: 40})

	h.update(views.AuthSuccessMsg{User: resp.User, Token: resp.Token})
	assert.Equal(t, ViewForum, h.model.(Model).currentView)
	assert.Equal(t, resp.Token, b.Session.Token())
	h.settle(func(m Model) bool { return strings.Contains(m.View(), "No questions yet") })

	// q is a quit key on the list but plain text in the ask form
	h.update(keyRunes("a"))
	require.Equal(t, ViewAsk, h.model.(Model).currentView)
	for _, r := range "quick question" {
		h.update(keyRunes(string(r)))
	}
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	h.update(tea.KeyMsg{Type: tea.KeyEnter})

	h.settle(func(m Model) bool { return m.currentView == ViewForum && strings.Contains(m.View(), "quick question") })

	// open the question and reply to it
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, h.model.(Model).currentView)
	h.settle(func(m Model) bool { return strings.Contains(m.View(), "asked by Tui User") })

	h.update(keyRunes("c"))
	for _, r := range "answer" {
		h.update(keyRunes(string(r)))
	}
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	h.settle(func(m Model) bool { return strings.Contains(m.View(), "Replies (1)") && !m.detailModel.InputFocused() })

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewForum, h.model.(Model).currentView)
	h.settle(func(m Model) bool { return strings.Contains(m.View(), "1 replies") })

	h.update(keyRunes("?"))
	assert.Contains(t, h.model.(Model).View(), "Keys")
	h.update(keyRunes("?"))
	assert.NotContains(t, h.model.(Model).View(), "Keys")

	_, cmd := h.model.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestOpenBackendRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Backend.Kind = config.BackendRedis
	cfg.Backend.Redis.Addr = mr.Addr()

	b, err := OpenBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	resp, err := b.Auth.Register(context.Background(), models.RegisterRequest{
		Email: "redis@example.com", Password: "secret1", FullName: "Redis User",
	})
	require.NoError(t, err)

	snap, err := b.Store.Read(context.Background(), "users/"+resp.User.ID+"/fullName")
	require.NoError(t, err)
	var name string
	require.NoError(t, snap.Decode(&name))
	assert.Equal(t, "Redis User", name)
}

func TestOpenBackendErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Kind = "sqlite"
	_, err := OpenBackend(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown backend")

	cfg.Backend.Kind = config.BackendRedis
	cfg.Backend.Redis.Addr = "127.0.0.1:1"
	_, err = OpenBackend(context.Background(), cfg)
	assert.Error(t, err)
}
