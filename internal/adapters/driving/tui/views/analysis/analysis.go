// Package analysis provides the summary and page classification view.
package analysis

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// View shows the policy summary above the per-page classifications.
type View struct {
	styles   *styles.Styles
	pages    *list.ItemList
	analysis *domain.Analysis
	running  bool
	err      error
	width    int
	height   int
}

// NewView creates a new analysis view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		pages:  list.NewItemList(s, "Page analysis", "No page analysis was returned."),
		width:  80,
		height: 24,
	}
}

// SetAnalysis replaces the analysis shown.
func (v *View) SetAnalysis(a *domain.Analysis) {
	v.analysis = a
	v.running = false
	v.err = nil
	if a == nil {
		v.pages.SetItems(nil)
		return
	}

	items := make([]list.Item, len(a.Pages))
	for i, p := range a.Pages {
		items[i] = list.Item{
			Heading: fmt.Sprintf("Page %d", p.PageNumber),
			Tag:     v.styles.Badge(p.Classification),
			Body:    p.Summary,
		}
	}
	v.pages.SetItems(items)
}

// SetRunning marks an analysis in progress.
func (v *View) SetRunning(running bool) {
	v.running = running
	if running {
		v.err = nil
	}
}

// SetError records a failed analysis.
func (v *View) SetError(err error) {
	v.running = false
	v.err = err
}

// HasAnalysis reports whether an analysis is loaded.
func (v *View) HasAnalysis() bool {
	return v.analysis != nil
}

// Update handles navigation keys.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.pages, cmd = v.pages.Update(msg)
	return v, cmd
}

// View renders the analysis.
func (v *View) View() string {
	switch {
	case v.running:
		return v.styles.Muted.Render("Analysing policy with the LLM...")
	case v.err != nil:
		return v.styles.Error.Render("Analysis failed: "+v.err.Error()) + "\n\n" +
			v.styles.Help.Render("Press a to retry.")
	case v.analysis == nil:
		return v.styles.Muted.Render("This policy has not been analysed yet.") + "\n\n" +
			v.styles.Help.Render("Press a to summarise the policy and classify each page.")
	}

	summary := v.analysis.FullSummary
	if summary == "" {
		summary = "No summary available."
	}
	box := v.styles.Border.Width(max(v.width-4, 20)).Render(
		v.styles.Subtitle.Render("Policy summary") + "\n" + v.styles.Normal.Render(summary),
	)
	return lipgloss.JoinVertical(lipgloss.Left, box, "", v.pages.View())
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.pages.SetDimensions(width, max(height/2, 4))
}
