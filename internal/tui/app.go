package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"forumhub/internal/forum"
	"forumhub/internal/tui/config"
	"forumhub/internal/tui/focus"
	"forumhub/internal/tui/styles"
	"forumhub/internal/tui/views"
	"forumhub/pkg/models"
)

// View represents different screens in the TUI
type View int

const (
	ViewAuth View = iota
	ViewForum
	ViewAsk
	ViewDetail
)

// ProgramSender forwards controller callbacks to a program attached after
// the model is built
type ProgramSender struct {
	mu sync.RWMutex
	p  *tea.Program
}

// Attach binds the running program
func (s *ProgramSender) Attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

// Send delivers msg, dropping it until a program is attached
func (s *ProgramSender) Send(msg tea.Msg) {
	s.mu.RLock()
	p := s.p
	s.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// controllers are shared by every copy of the model so Shutdown sees the
// detail controller opened last
type controllers struct {
	mu     sync.Mutex
	list   forum.QuestionList
	detail forum.QuestionDetail
}

// Model is the root Bubble Tea model
type Model struct {
	config  *config.Config
	backend *Backend
	sender  views.Sender
	ctrl    *controllers

	focusManager *focus.Manager

	currentView  View
	previousView View

	keys KeyMap
	help help.Model

	width  int
	height int

	isAuthenticated bool
	currentUser     models.AuthUser

	authModel   views.AuthModel
	forumModel  views.ForumModel
	askModel    views.AskModel
	detailModel views.DetailModel
}

// New creates a new TUI application over backend. Controller callbacks reach
// the program through sender.
func New(cfg *config.Config, backend *Backend, sender views.Sender) *Model {
	styles.UseTheme(cfg.UI.Theme)

	list := forum.NewQuestionList(backend.Store, backend.Session, views.NewListBridge(sender))

	m := &Model{
		config:       cfg,
		backend:      backend,
		sender:       sender,
		ctrl:         &controllers{list: list},
		focusManager: focus.NewManager(),
		currentView:  ViewAuth,
		keys:         DefaultKeyMap(),
		help:         help.New(),
	}

	m.authModel = views.NewAuthModel(backend.Auth)
	m.forumModel = views.NewForumModel(list, cfg.UI.PageSize)
	m.askModel = views.NewAskModel(list)
	m.detailModel = views.NewDetailModel()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.authModel.Init()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		m.authModel, _ = m.authModel.Update(msg)
		m.forumModel, _ = m.forumModel.Update(msg)
		m.askModel, _ = m.askModel.Update(msg)
		m.detailModel, _ = m.detailModel.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.syncFocus()
		mode := m.focusManager.GetMode()
		if m.keys.ShouldHandleKey(mode, msg) {
			switch {
			case mode == focus.ModeDialog:
				m.focusManager.ExitDialogMode()
				return m, nil
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.focusManager.OpenDialog()
				return m, nil
			}
		}
		if mode == focus.ModeDialog {
			return m, nil
		}

	case views.AuthSuccessMsg:
		m.backend.Session.SignIn(msg.User, msg.Token)
		m.isAuthenticated = true
		m.currentUser = msg.User
		m.authModel, _ = m.authModel.Update(msg)
		m.forumModel.SetUser(msg.User.ID)
		m.currentView = ViewForum
		return m, m.forumModel.Init()

	case views.OpenQuestionMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		detail := forum.NewQuestionDetail(m.backend.Store, m.backend.Session, views.NewDetailBridge(m.sender, msg.QuestionID))
		closePrev := m.detailModel.Close()
		m.ctrl.setDetail(detail)
		cmd := tea.Batch(closePrev, m.detailModel.Open(detail, msg.QuestionID, m.currentUser.ID))
		return m, cmd

	case views.BackMsg:
		m.currentView = ViewForum
		m.ctrl.setDetail(nil)
		cmd := m.detailModel.Close()
		return m, cmd

	case views.AskMsg:
		m.previousView = m.currentView
		m.currentView = ViewAsk
		cmd := m.askModel.Reset()
		return m, cmd

	case views.CancelAskMsg:
		m.currentView = ViewForum
		return m, nil

	case views.QuestionPostedMsg:
		var cmd tea.Cmd
		m.askModel, cmd = m.askModel.Update(msg)
		m.currentView = ViewForum
		return m, cmd

	// Controller output goes to its screen even when another one is showing
	case views.QuestionsMsg, views.ListErrorMsg:
		var cmd tea.Cmd
		m.forumModel, cmd = m.forumModel.Update(msg)
		return m, cmd

	case views.ListNoticeMsg:
		var cmd tea.Cmd
		if m.currentView == ViewAsk {
			m.askModel, cmd = m.askModel.Update(msg)
		} else {
			m.forumModel, cmd = m.forumModel.Update(msg)
		}
		return m, cmd

	case views.AskFieldErrorMsg, views.AskSubmitEnabledMsg:
		var cmd tea.Cmd
		m.askModel, cmd = m.askModel.Update(msg)
		return m, cmd

	case views.QuestionShownMsg, views.RepliesMsg, views.DetailNoticeMsg,
		views.ReplyFieldErrorMsg, views.ReplySubmitEnabledMsg, views.ReplyInputClearedMsg,
		views.DetailErrorMsg:
		var cmd tea.Cmd
		m.detailModel, cmd = m.detailModel.Update(msg)
		return m, cmd
	}

	return m.updateCurrentView(msg)
}

// syncFocus puts the app in input mode while a screen owns the keyboard
func (m *Model) syncFocus() {
	typing := m.currentView == ViewAuth || m.currentView == ViewAsk ||
		(m.currentView == ViewDetail && m.detailModel.InputFocused())
	if typing {
		m.focusManager.SetMode(focus.ModeInput)
	} else {
		m.focusManager.SetMode(focus.ModeNavigation)
	}
}

// updateCurrentView routes updates to the active view
func (m Model) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authModel, cmd = m.authModel.Update(msg)
	case ViewForum:
		m.forumModel, cmd = m.forumModel.Update(msg)
	case ViewAsk:
		m.askModel, cmd = m.askModel.Update(msg)
	case ViewDetail:
		m.detailModel, cmd = m.detailModel.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.currentView {
	case ViewAuth:
		content = m.authModel.View()
	case ViewForum:
		content = m.forumModel.View()
	case ViewAsk:
		content = m.askModel.View()
	case ViewDetail:
		content = m.detailModel.View()
	default:
		content = "Unknown view"
	}

	if m.focusManager.IsDialogMode() {
		m.help.ShowAll = true
		content = styles.CardStyle.Render(styles.CardTitleStyle.Render("Keys") + "\n\n" + m.help.View(m.keys))
	}

	var statusBar string
	if m.isAuthenticated {
		statusBar = m.renderStatusBar()
	}

	return styles.AppStyle.Render(content + "\n\n" + statusBar)
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	viewName := ""
	switch m.currentView {
	case ViewForum:
		viewName = "Forum"
	case ViewAsk:
		viewName = "Ask"
	case ViewDetail:
		viewName = "Question"
	}

	left := styles.StatusBarActiveStyle.Render("● " + viewName)
	right := styles.StatusBarStyle.Render(m.currentUser.Email + " | " + m.backend.Kind + " | ? help | q quit")

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if spacing < 0 {
		spacing = 0
	}
	return left + strings.Repeat(" ", spacing) + right
}

// Shutdown detaches every listener. Call it after the program exits.
func (m *Model) Shutdown() {
	m.ctrl.mu.Lock()
	list, detail := m.ctrl.list, m.ctrl.detail
	m.ctrl.detail = nil
	m.ctrl.mu.Unlock()

	if detail != nil {
		detail.Close()
	}
	list.Unsubscribe()
}

func (c *controllers) setDetail(d forum.QuestionDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = d
}
