// Package query provides the question box and retrieved clauses view.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// View asks questions against the session index and lists the matching clauses.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   *input.QueryInput
	results *list.ItemList

	policy    driving.PolicyService
	ctx       context.Context
	sessionID string
	topK      int

	lastQuery string
	answer    string
	running   bool
	err       error
	width     int
	height    int
}

// NewView creates a new query view.
func NewView(s *styles.Styles, km *keymap.KeyMap, policy driving.PolicyService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		input:   input.NewQueryInput(s),
		results: list.NewItemList(s, "Relevant clauses", "Ask a question to search this policy."),
		policy:  policy,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSession targets queries at a session; topK of zero uses the service default.
func (v *View) SetSession(id string, topK int) {
	v.sessionID = id
	v.topK = topK
}

// Init focuses the input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// Typing reports whether key presses go to the input.
func (v *View) Typing() bool {
	return v.input.Focused()
}

// Update handles keys and query results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.QueryCompleted:
		v.handleCompleted(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if v.input.Focused() {
		switch {
		case keymap.Matches(keyStr, v.keymap.Back):
			v.input.Blur()
			return v, nil
		case keymap.Matches(keyStr, v.keymap.Submit):
			q := strings.TrimSpace(v.input.Value())
			if q == "" || v.running {
				return v, nil
			}
			v.input.Blur()
			v.running = true
			v.err = nil
			v.lastQuery = q
			return v, v.search(q)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(keyStr, v.keymap.Focus) {
		return v, v.input.Focus()
	}
	var cmd tea.Cmd
	v.results, cmd = v.results.Update(msg)
	return v, cmd
}

// search returns ranked matches, or the index's own answer text when it is degraded.
func (v *View) search(q string) tea.Cmd {
	policy, ctx, id, k := v.policy, v.ctx, v.sessionID, v.topK
	return func() tea.Msg {
		matches, err := policy.Search(ctx, id, q, k)
		if errors.Is(err, domain.ErrIndexDegraded) {
			answer, qerr := policy.Query(ctx, id, q, k)
			return messages.QueryCompleted{Query: q, Answer: answer, Err: qerr}
		}
		return messages.QueryCompleted{Query: q, Matches: matches, Err: err}
	}
}

func (v *View) handleCompleted(msg messages.QueryCompleted) {
	v.running = false
	v.err = msg.Err
	v.answer = msg.Answer
	v.lastQuery = msg.Query

	items := make([]list.Item, len(msg.Matches))
	for i, m := range msg.Matches {
		items[i] = list.Item{
			Heading: fmt.Sprintf("%s page %d", clauseLabel(m.ID), m.PageNum),
			Tag:     v.styles.Muted.Render(fmt.Sprintf("%.3f", m.Similarity)),
			Body:    m.Document,
		}
	}
	v.results.SetItems(items)
}

func clauseLabel(id string) string {
	page, seq, err := domain.ParseClauseID(id)
	if err != nil {
		return "[" + id + "]"
	}
	return fmt.Sprintf("[P%d-C%d]", page, seq)
}

// View renders the input and results.
func (v *View) View() string {
	var body string
	switch {
	case v.running:
		body = v.styles.Muted.Render("Searching clauses for: " + v.lastQuery)
	case v.err != nil:
		body = v.styles.Error.Render("Query failed: " + v.err.Error())
	case v.answer != "":
		body = v.styles.Warning.Render(v.answer)
	default:
		body = v.results.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.input.View(), "", body)
}

// SetDimensions sets the view size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.results.SetDimensions(width, max(height-6, 4))
}

// Results returns the number of matches shown.
func (v *View) Results() int {
	return v.results.Count()
}

// Running reports whether a query is in flight.
func (v *View) Running() bool {
	return v.running
}

// Err returns the last query error.
func (v *View) Err() error {
	return v.err
}
