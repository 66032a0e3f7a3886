// Package clauses provides the clause list view for the TUI.
package clauses

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// View lists a session's clauses in document order with the selected clause in full.
type View struct {
	styles *styles.Styles
	list   *list.ItemList

	clauses []domain.Clause
	width   int
	height  int
}

// NewView creates a new clauses view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		list:   list.NewItemList(s, "Clauses", "No clauses were found in this document."),
		width:  80,
		height: 24,
	}
}

// SetClauses replaces the clauses shown.
func (v *View) SetClauses(clauses []domain.Clause) {
	v.clauses = clauses
	items := make([]list.Item, len(clauses))
	for i, c := range clauses {
		items[i] = list.Item{Heading: Label(c), Body: c.Text}
	}
	v.list.SetItems(items)
}

// Label formats a clause ID as [P{page}-C{seq}].
func Label(c domain.Clause) string {
	page, seq, err := domain.ParseClauseID(c.ID)
	if err != nil {
		return "[" + c.ID + "]"
	}
	return fmt.Sprintf("[P%d-C%d]", page, seq)
}

// Update handles navigation keys.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the list and the selected clause.
func (v *View) View() string {
	if len(v.clauses) == 0 {
		return v.list.View()
	}

	selected := v.clauses[v.list.Selected()]
	detail := v.styles.Border.
		Width(max(v.width-4, 20)).
		Render(v.styles.Subtitle.Render(fmt.Sprintf("%s page %d", Label(selected), selected.PageNum)) +
			"\n" + v.styles.Normal.Render(strings.TrimSpace(selected.Text)))

	return lipgloss.JoinVertical(lipgloss.Left, v.list.View(), "", detail)
}

// SetDimensions sets the view size; the list gets the space above the detail box.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, max(height-10, 4))
}

// Selected returns the index of the selected clause.
func (v *View) Selected() int {
	return v.list.Selected()
}
