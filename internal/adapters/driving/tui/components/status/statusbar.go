// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateAnalysing State = "analysing"
	StateQuerying  State = "querying"
	StateTyping    State = "typing"
	StateError     State = "error"
)

// Bar displays the session, its index state and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	fileName   string
	indexState domain.IndexState
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		state:  StateLoading,
		width:  80,
	}
}

// Init initialises the status bar.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven by its setters.
func (b *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	return b, nil
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateLoading:
		return b.styles.Muted.Render("Loading session...")
	case StateAnalysing:
		return b.styles.Muted.Render("Analysing policy...")
	case StateQuerying:
		return b.styles.Muted.Render("Searching clauses...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateReady, StateTyping:
	}

	name := b.fileName
	if name == "" {
		name = "Policy"
	}
	index := b.styles.Success.Render(string(b.indexState))
	if b.indexState != domain.IndexOperational {
		index = b.styles.Warning.Render(string(b.indexState))
	}
	return b.styles.Normal.Render(name) + b.styles.Muted.Render(" | index: ") + index
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateTyping {
		bindings = b.keymap.QueryHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the error message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// SetSession records the session shown on the left.
func (b *Bar) SetSession(fileName string, index domain.IndexState) {
	b.fileName = fileName
	b.indexState = index
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
