// Package styles holds the colour palette and lipgloss styles for the
// chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette. All styles derive from it so a single
// theme swap restyles the whole interface.
type Theme struct {
	Primary    lipgloss.Color // accents, headers
	Secondary  lipgloss.Color // the user's questions
	Foreground lipgloss.Color // answer text
	Muted      lipgloss.Color // metadata, status line
	Success    lipgloss.Color // source citations
	Warning    lipgloss.Color // degraded answers, caveats
	Error      lipgloss.Color // failures
	Border     lipgloss.Color // input field border
}

// DefaultTheme is a dark palette tuned for readability on common
// terminal backgrounds.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2DD4BF"),
		Secondary:  lipgloss.Color("#93C5FD"),
		Foreground: lipgloss.Color("#E5E7EB"),
		Muted:      lipgloss.Color("#6B7280"),
		Success:    lipgloss.Color("#86EFAC"),
		Warning:    lipgloss.Color("#FCD34D"),
		Error:      lipgloss.Color("#FCA5A5"),
		Border:     lipgloss.Color("#4B5563"),
	}
}

// Styles are the pre-built lipgloss styles used by the views.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Question   lipgloss.Style
	Answer     lipgloss.Style
	Muted      lipgloss.Style
	Source     lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles derives styles from a theme; nil selects the default.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	base := lipgloss.NewStyle()
	return &Styles{
		theme: theme,

		Title:    base.Bold(true).Foreground(theme.Primary),
		Question: base.Bold(true).Foreground(theme.Secondary),
		Answer:   base.Foreground(theme.Foreground),
		Muted:    base.Foreground(theme.Muted),
		Source:   base.Foreground(theme.Success),
		Error:    base.Foreground(theme.Error),
		Warning:  base.Foreground(theme.Warning),

		InputField: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: base.Foreground(theme.Muted).Padding(0, 1),
	}
}

// DefaultStyles returns styles built from the default theme.
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
