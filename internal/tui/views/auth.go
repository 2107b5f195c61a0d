package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/tui/styles"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

// AuthMode represents login or register mode
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// Authenticator signs users in against the configured backend
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthModel handles login/register forms
type AuthModel struct {
	mode AuthMode
	auth Authenticator

	emailInput    textinput.Model
	nameInput     textinput.Model
	passwordInput textinput.Model
	confirmInput  textinput.Model

	focusIndex int
	loading    bool
	err        error

	width  int
	height int
}

// NewAuthModel creates a new auth model
func NewAuthModel(auth Authenticator) AuthModel {
	m := AuthModel{
		mode:          ModeLogin,
		auth:          auth,
		emailInput:    credentialInput("Email", false),
		nameInput:     credentialInput("Full name", false),
		passwordInput: credentialInput("Password", true),
		confirmInput:  credentialInput("Confirm password", true),
	}
	m.emailInput.Focus()
	return m
}

func credentialInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	ti.Width = 30
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// Init initializes the model
func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m AuthModel) Update(msg tea.Msg) (AuthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "down"))):
			return m.moveFocus(1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "up"))):
			return m.moveFocus(-1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if m.isSubmitFocused() {
				return m.submit()
			}
			return m.moveFocus(1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+t"))):
			m.toggleMode()
			return m, nil
		}

	case AuthSuccessMsg:
		m.loading = false
		m.passwordInput.Reset()
		m.confirmInput.Reset()
		return m, nil

	case AuthErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	if input := m.focusedInput(); input != nil {
		*input, cmd = input.Update(msg)
	}
	return m, cmd
}

// View renders the auth form
func (m AuthModel) View() string {
	var b strings.Builder

	title := "🔐 Login"
	if m.mode == ModeRegister {
		title = "📝 Register"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	var form strings.Builder
	fields := m.fields()
	for i, f := range fields {
		form.WriteString(m.renderField(f.label, f.input.View(), m.focusIndex == i))
		form.WriteString("\n")
	}
	form.WriteString("\n")

	label := "  Login  "
	if m.mode == ModeRegister {
		label = "  Register  "
	}
	submitStyle := styles.ButtonStyle
	if m.isSubmitFocused() {
		submitStyle = styles.ButtonActiveStyle
	}
	form.WriteString(submitStyle.Render(label))

	b.WriteString(styles.CardStyle.Render(form.String()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Processing..."))
		b.WriteString("\n\n")
	}

	if m.mode == ModeLogin {
		b.WriteString(styles.HelpStyle.Render("Press Ctrl+T to switch to Register"))
	} else {
		b.WriteString(styles.HelpStyle.Render("Press Ctrl+T to switch to Login"))
	}

	return b.String()
}

type authField struct {
	label string
	input *textinput.Model
}

// fields lists the inputs shown in the current mode, in focus order
func (m *AuthModel) fields() []authField {
	if m.mode == ModeRegister {
		return []authField{
			{"Email", &m.emailInput},
			{"Full name", &m.nameInput},
			{"Password", &m.passwordInput},
			{"Confirm", &m.confirmInput},
		}
	}
	return []authField{
		{"Email", &m.emailInput},
		{"Password", &m.passwordInput},
	}
}

func (m *AuthModel) focusedInput() *textinput.Model {
	fields := m.fields()
	if m.focusIndex < len(fields) {
		return fields[m.focusIndex].input
	}
	return nil
}

func (m AuthModel) renderField(label, input string, focused bool) string {
	labelStyle := styles.MetaKeyStyle
	if focused {
		labelStyle = styles.InputFocusedStyle
	}
	return fmt.Sprintf("%s\n%s", labelStyle.Render(label+":"), input)
}

// moveFocus cycles through the fields and the submit button
func (m AuthModel) moveFocus(delta int) AuthModel {
	n := len(m.fields()) + 1
	m.focusIndex = ((m.focusIndex+delta)%n + n) % n
	m.updateFocus()
	return m
}

func (m *AuthModel) updateFocus() {
	m.emailInput.Blur()
	m.nameInput.Blur()
	m.passwordInput.Blur()
	m.confirmInput.Blur()
	if input := m.focusedInput(); input != nil {
		input.Focus()
	}
}

func (m AuthModel) isSubmitFocused() bool {
	return m.focusIndex == len(m.fields())
}

// toggleMode switches between login and register
func (m *AuthModel) toggleMode() {
	if m.mode == ModeLogin {
		m.mode = ModeRegister
	} else {
		m.mode = ModeLogin
	}
	m.focusIndex = 0
	m.err = nil
	m.updateFocus()
}

// submit checks the form locally and starts the request
func (m AuthModel) submit() (AuthModel, tea.Cmd) {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()

	switch {
	case email == "":
		m.err = errors.New("email is required")
	case utils.ValidateEmail(email) != nil:
		m.err = errors.New("enter a valid email address")
	case password == "":
		m.err = errors.New("password is required")
	case m.mode == ModeRegister && utils.ValidatePassword(password) != nil:
		m.err = fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength)
	case m.mode == ModeRegister && password != m.confirmInput.Value():
		m.err = errors.New("passwords do not match")
	default:
		m.err = nil
	}
	if m.err != nil {
		return m, nil
	}
	m.loading = true

	auth := m.auth
	if m.mode == ModeLogin {
		req := models.LoginRequest{Email: email, Password: password}
		return m, authenticate(func(ctx context.Context) (*models.LoginResponse, error) { return auth.Login(ctx, req) })
	}
	req := models.RegisterRequest{Email: email, Password: password, FullName: strings.TrimSpace(m.nameInput.Value())}
	return m, authenticate(func(ctx context.Context) (*models.LoginResponse, error) { return auth.Register(ctx, req) })
}

func authenticate(call func(ctx context.Context) (*models.LoginResponse, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := utils.WithLongTimeout(context.Background())
		defer cancel()
		resp, err := call(ctx)
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return AuthSuccessMsg{User: resp.User, Token: resp.Token}
	}
}

// Messages

// AuthSuccessMsg is sent when auth succeeds
type AuthSuccessMsg struct {
	User  models.AuthUser
	Token string
}

// AuthErrorMsg is sent when auth fails
type AuthErrorMsg struct {
	Err error
}
