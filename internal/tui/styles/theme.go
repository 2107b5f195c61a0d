package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dracula color palette
const (
	Background  = "#282a36"
	CurrentLine = "#44475a"
	Foreground  = "#f8f8f2"
	Comment     = "#6272a4"
	Cyan        = "#8be9fd"
	Green       = "#50fa7b"
	Orange      = "#ffb86c"
	Pink        = "#ff79c6"
	Purple      = "#bd93f9"
	Red         = "#ff5555"
	Yellow      = "#f1fa8c"
)

// Palette names the colors every style is built from. An empty color leaves
// the terminal default.
type Palette struct {
	Base    lipgloss.Color
	Surface lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Focus   lipgloss.Color
	Info    lipgloss.Color
	Like    lipgloss.Color
	Dislike lipgloss.Color
	Warn    lipgloss.Color
}

var (
	Dracula = Palette{
		Base:    Background,
		Surface: CurrentLine,
		Text:    Foreground,
		Muted:   Comment,
		Accent:  Purple,
		Focus:   Pink,
		Info:    Cyan,
		Like:    Green,
		Dislike: Red,
		Warn:    Yellow,
	}

	// Plain keeps the accents but draws on the terminal's own background
	Plain = Palette{
		Muted:   Comment,
		Accent:  Purple,
		Focus:   Pink,
		Info:    Cyan,
		Like:    Green,
		Dislike: Red,
		Warn:    Orange,
	}
)

var (
	AppStyle      lipgloss.Style
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style

	StatusBarStyle       lipgloss.Style
	StatusBarActiveStyle lipgloss.Style

	InputStyle        lipgloss.Style
	InputFocusedStyle lipgloss.Style
	InputPromptStyle  lipgloss.Style

	// Question rows
	ListItemStyle         lipgloss.Style
	ListItemSelectedStyle lipgloss.Style
	ListItemTitleStyle    lipgloss.Style
	ListItemDescStyle     lipgloss.Style

	ButtonStyle       lipgloss.Style
	ButtonActiveStyle lipgloss.Style

	CardStyle        lipgloss.Style
	CardTitleStyle   lipgloss.Style
	CardContentStyle lipgloss.Style

	InfoStyle    lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	HelpStyle    lipgloss.Style

	// Reaction badges; the primary badge marks the user's own reaction
	BadgePrimaryStyle lipgloss.Style
	BadgeSuccessStyle lipgloss.Style
	HighlightStyle    lipgloss.Style

	DividerStyle lipgloss.Style
	SpinnerStyle lipgloss.Style
	MetaKeyStyle lipgloss.Style
)

func init() {
	Apply(Dracula)
}

// UseTheme switches to a named palette; unknown names keep Dracula
func UseTheme(name string) {
	switch strings.ToLower(name) {
	case "none", "plain":
		Apply(Plain)
	default:
		Apply(Dracula)
	}
}

// Apply rebuilds every style from p
func Apply(p Palette) {
	fg := func(c lipgloss.Color) lipgloss.Style { return on(lipgloss.NewStyle(), c, "") }
	bar := func(c lipgloss.Color) lipgloss.Style { return on(lipgloss.NewStyle(), c, p.Surface) }

	AppStyle = on(lipgloss.NewStyle().Padding(1, 2), p.Text, p.Base)
	TitleStyle = on(lipgloss.NewStyle().Bold(true).Padding(0, 1), p.Accent, p.Base)
	SubtitleStyle = on(lipgloss.NewStyle(), p.Info, p.Base)

	StatusBarStyle = bar(p.Text).Padding(0, 1)
	StatusBarActiveStyle = bar(p.Like).Bold(true).Padding(0, 1)

	InputStyle = bar(p.Text).Padding(0, 1)
	InputFocusedStyle = bar(p.Focus).Bold(true).Padding(0, 1)
	InputPromptStyle = fg(p.Accent).Bold(true)

	ListItemStyle = fg(p.Text).PaddingLeft(2)
	ListItemSelectedStyle = bar(p.Focus).Bold(true).PaddingLeft(1).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Accent)
	ListItemTitleStyle = fg(p.Info).Bold(true)
	ListItemDescStyle = fg(p.Muted)

	ButtonStyle = bar(p.Text).Padding(0, 2).MarginRight(2)
	ButtonActiveStyle = on(lipgloss.NewStyle(), contrast(p), p.Accent).Bold(true).Padding(0, 2).MarginRight(2)

	CardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Accent).Padding(1, 2).MarginBottom(1)
	CardTitleStyle = fg(p.Focus).Bold(true)
	CardContentStyle = fg(p.Text)

	InfoStyle = fg(p.Info).Bold(true)
	SuccessStyle = fg(p.Like).Bold(true)
	WarningStyle = fg(p.Warn).Bold(true)
	ErrorStyle = fg(p.Dislike).Bold(true)
	HelpStyle = fg(p.Muted).Italic(true)

	BadgePrimaryStyle = on(lipgloss.NewStyle(), contrast(p), p.Accent).Bold(true).Padding(0, 1)
	BadgeSuccessStyle = on(lipgloss.NewStyle(), contrast(p), p.Like).Bold(true).Padding(0, 1)
	HighlightStyle = fg(p.Warn).Bold(true)

	DividerStyle = fg(p.Surface)
	if p.Surface == "" {
		DividerStyle = fg(p.Muted)
	}
	SpinnerStyle = fg(p.Accent)
	MetaKeyStyle = fg(p.Accent).Bold(true)
}

func on(s lipgloss.Style, fg, bg lipgloss.Color) lipgloss.Style {
	if fg != "" {
		s = s.Foreground(fg)
	}
	if bg != "" {
		s = s.Background(bg)
	}
	return s
}

// contrast is the text color drawn on accent-filled badges and buttons
func contrast(p Palette) lipgloss.Color {
	if p.Base != "" {
		return p.Base
	}
	return Background
}

// Truncate shortens s to maxLen runes, ending in "..." when cut
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}

// RenderDivider renders a horizontal divider
func RenderDivider(width int) string {
	return DividerStyle.Render(strings.Repeat("─", width))
}
