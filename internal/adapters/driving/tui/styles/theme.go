// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// Theme is the colour palette used by the TUI.
type Theme struct {
	Primary, Secondary  lipgloss.Color
	Foreground, Muted   lipgloss.Color
	Success, Warning    lipgloss.Color
	Error, Border, Band lipgloss.Color

	// Badges colours each page classification.
	Badges map[domain.Classification]lipgloss.Color
}

// DefaultTheme returns a dark palette. Classification badges share the
// status colours.
func DefaultTheme() *Theme {
	green := lipgloss.Color("#A6E3A1")
	red := lipgloss.Color("#F38BA8")
	yellow := lipgloss.Color("#F9E2AF")
	text := lipgloss.Color("#CDD6F4")

	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Foreground: text,
		Muted:      lipgloss.Color("#6C7086"),
		Success:    green,
		Warning:    yellow,
		Error:      red,
		Border:     lipgloss.Color("#45475A"),
		Band:       lipgloss.Color("#181825"),
		Badges: map[domain.Classification]lipgloss.Color{
			domain.ClassificationCoverage:      green,
			domain.ClassificationExclusions:    red,
			domain.ClassificationClaimsProcess: lipgloss.Color("#89B4FA"),
			domain.ClassificationDeductibles:   yellow,
			domain.ClassificationGeneralTerms:  text,
			domain.ClassificationDefinitions:   lipgloss.Color("#CBA6F7"),
		},
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title, Subtitle         lipgloss.Style
	Normal, Muted, Help     lipgloss.Style
	Selected                lipgloss.Style
	Error, Success, Warning lipgloss.Style
	InputField, Border      lipgloss.Style
	StatusBar               lipgloss.Style
	Tab, ActiveTab          lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	highlight := lipgloss.NewStyle().Bold(true).Foreground(theme.Foreground).Background(theme.Primary)
	rounded := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Primary).Bold(true),
		Subtitle:   fg(theme.Secondary).Bold(true),
		Normal:     fg(theme.Foreground),
		Muted:      fg(theme.Muted),
		Help:       fg(theme.Muted),
		Selected:   highlight,
		Error:      fg(theme.Error),
		Success:    fg(theme.Success),
		Warning:    fg(theme.Warning),
		InputField: rounded.Padding(0, 1),
		Border:     rounded,
		StatusBar:  fg(theme.Muted).Background(theme.Band).Padding(0, 1),
		Tab:        fg(theme.Muted).Padding(0, 1),
		ActiveTab:  highlight.Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Badge renders a page classification in its colour.
func (s *Styles) Badge(c domain.Classification) string {
	colour, ok := s.theme.Badges[c]
	if !ok {
		colour = s.theme.Foreground
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colour).Render(string(c))
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
