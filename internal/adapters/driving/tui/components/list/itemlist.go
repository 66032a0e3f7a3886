// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
)

// Item is one row: a short heading, an optional right-aligned tag and body text.
type Item struct {
	Heading string
	Tag     string
	Body    string
}

// ItemList displays items in a navigable, scrolling list.
type ItemList struct {
	title    string
	empty    string
	items    []Item
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewItemList creates a list with a title and an empty-state message.
func NewItemList(s *styles.Styles, title, empty string) *ItemList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ItemList{
		title:  title,
		empty:  empty,
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *ItemList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation.
func (l *ItemList) Update(msg tea.Msg) (*ItemList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.items) > 0 {
				l.selected = len(l.items) - 1
			}
		}
	}
	return l, nil
}

// View renders the visible window of the list.
func (l *ItemList) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.empty)
	}

	lines := []string{
		l.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", l.title, len(l.items))),
		"",
	}

	// Each item takes a heading line and a body line.
	visible := (l.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.items) {
		end = len(l.items)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i))
	}
	return strings.Join(lines, "\n")
}

func (l *ItemList) renderItem(i int) string {
	item := l.items[i]

	indicator := "  "
	if i == l.selected {
		indicator = "> "
	}

	heading := indicator + item.Heading
	var headingLine string
	if i == l.selected {
		headingLine = l.styles.Selected.Render(heading)
	} else {
		headingLine = l.styles.Normal.Render(heading)
	}
	if item.Tag != "" {
		headingLine += "  " + item.Tag
	}

	body := strings.Join(strings.Fields(item.Body), " ")
	maxBody := l.width - 6
	if maxBody < 20 {
		maxBody = 20
	}
	if lipgloss.Width(body) > maxBody {
		body = truncate(body, maxBody-3) + "..."
	}

	return headingLine + "\n" + l.styles.Muted.Render("    "+body)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SetItems replaces the items and resets the selection.
func (l *ItemList) SetItems(items []Item) {
	l.items = items
	l.selected = 0
}

// Items returns the current items.
func (l *ItemList) Items() []Item {
	return l.items
}

// Selected returns the index of the selected item.
func (l *ItemList) Selected() int {
	return l.selected
}

// SelectedItem returns the selected item, or nil if the list is empty.
func (l *ItemList) SelectedItem() *Item {
	if l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves selection up.
func (l *ItemList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ItemList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ItemList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of items.
func (l *ItemList) Count() int {
	return len(l.items)
}
