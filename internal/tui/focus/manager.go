package focus

// Mode represents different focus modes in the TUI
type Mode int

const (
	// ModeNavigation lets global keys (quit, help) through
	ModeNavigation Mode = iota
	// ModeInput sends every key to the focused text input
	ModeInput
	// ModeDialog is the help overlay
	ModeDialog
)

// Manager handles focus mode state
type Manager struct {
	mode     Mode
	previous Mode
}

// NewManager creates a new focus manager
func NewManager() *Manager {
	return &Manager{mode: ModeNavigation}
}

// SetMode changes the focus mode; it is a no-op while a dialog is open
func (m *Manager) SetMode(mode Mode) {
	if m.mode == ModeDialog && mode != ModeDialog {
		m.previous = mode
		return
	}
	m.mode = mode
}

// GetMode returns the current focus mode
func (m *Manager) GetMode() Mode {
	return m.mode
}

// IsNavigationMode returns true if in navigation mode
func (m *Manager) IsNavigationMode() bool {
	return m.mode == ModeNavigation
}

// IsInputMode returns true if in input mode
func (m *Manager) IsInputMode() bool {
	return m.mode == ModeInput
}

// IsDialogMode returns true if in dialog mode
func (m *Manager) IsDialogMode() bool {
	return m.mode == ModeDialog
}

// OpenDialog enters dialog mode, remembering the mode to return to
func (m *Manager) OpenDialog() {
	if m.mode != ModeDialog {
		m.previous = m.mode
		m.mode = ModeDialog
	}
}

// ExitDialogMode returns to the mode active before the dialog
func (m *Manager) ExitDialogMode() {
	if m.mode == ModeDialog {
		m.mode = m.previous
	}
}
