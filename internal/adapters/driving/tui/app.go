package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/views/analysis"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/views/clauses"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui/views/query"
	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// App is the TUI for one policy session, following the Elm architecture.
type App struct {
	ports     *Ports
	ctx       context.Context
	sessionID string

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	clausesView  *clauses.View
	analysisView *analysis.View
	queryView    *query.View

	session     *domain.Session
	currentView messages.ViewType
	previous    messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the TUI for sessionID. topK of zero uses the service default.
func NewApp(ports *Ports, sessionID string, topK int) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	queryView := query.NewView(s, km, ports.Policy)
	queryView.SetSession(sessionID, topK)

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		sessionID:    sessionID,
		styles:       s,
		keymap:       km,
		statusbar:    status.NewBar(s, km),
		clausesView:  clauses.NewView(s),
		analysisView: analysis.NewView(s),
		queryView:    queryView,
		currentView:  messages.ViewClauses,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.queryView.WithContext(ctx)
	return a
}

// Init loads the session.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("clausewise"),
		a.loadSession(),
	)
}

func (a *App) loadSession() tea.Cmd {
	policy, ctx, id := a.ports.Policy, a.ctx, a.sessionID
	return func() tea.Msg {
		session, err := policy.Get(ctx, id)
		return messages.SessionLoaded{Session: session, Err: err}
	}
}

func (a *App) analyze() tea.Cmd {
	policy, ctx, id := a.ports.Policy, a.ctx, a.sessionID
	return func() tea.Msg {
		result, err := policy.Analyze(ctx, id)
		return messages.AnalysisCompleted{Analysis: result, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.SessionLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.session = msg.Session
		a.clausesView.SetClauses(msg.Session.Clauses)
		a.analysisView.SetAnalysis(msg.Session.Analysis)
		a.statusbar.SetSession(msg.Session.DisplayName(), msg.Session.IndexState())
		a.statusbar.SetState(status.StateReady)
		return a, nil

	case messages.AnalysisRequested:
		if a.statusbar.State() == status.StateAnalysing {
			return a, nil
		}
		a.analysisView.SetRunning(true)
		a.statusbar.SetState(status.StateAnalysing)
		return a, a.analyze()

	case messages.AnalysisCompleted:
		if msg.Err != nil {
			a.analysisView.SetError(msg.Err)
			a.setError(msg.Err)
			return a, nil
		}
		if a.session != nil {
			a.session.Analysis = msg.Analysis
		}
		a.analysisView.SetAnalysis(msg.Analysis)
		a.statusbar.SetState(status.StateReady)
		return a, nil

	case messages.QueryCompleted:
		a.queryView, cmd = a.queryView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.statusbar.SetState(status.StateReady)
		}
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewQuery {
		a.queryView, cmd = a.queryView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		return a, tea.Quit
	}

	// While typing a question every other key belongs to the input.
	if a.currentView == messages.ViewQuery && a.queryView.Typing() {
		var cmd tea.Cmd
		a.queryView, cmd = a.queryView.Update(msg)
		a.syncQueryState()
		return a, cmd
	}

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(keyStr, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(a.previous)
		}
		return a, a.switchTo(messages.ViewHelp)
	case keymap.Matches(keyStr, a.keymap.NextView):
		return a, a.switchTo(a.currentView.Next())
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewClauses:
		a.clausesView, cmd = a.clausesView.Update(msg)
	case messages.ViewAnalysis:
		if keymap.Matches(keyStr, a.keymap.Analyze) {
			return a, func() tea.Msg { return messages.AnalysisRequested{} }
		}
		a.analysisView, cmd = a.analysisView.Update(msg)
	case messages.ViewQuery:
		a.queryView, cmd = a.queryView.Update(msg)
		a.syncQueryState()
	case messages.ViewHelp:
		if keymap.Matches(keyStr, a.keymap.Back) {
			return a, a.switchTo(a.previous)
		}
	}
	return a, cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if view != messages.ViewHelp {
		a.previous = view
	} else if a.currentView != messages.ViewHelp {
		a.previous = a.currentView
	}
	a.currentView = view

	if view == messages.ViewQuery {
		cmd := a.queryView.Init()
		a.syncQueryState()
		return cmd
	}
	a.syncQueryState()
	return nil
}

// syncQueryState mirrors the query view's focus and progress in the status bar.
func (a *App) syncQueryState() {
	switch a.statusbar.State() {
	case status.StateLoading, status.StateAnalysing:
		return
	case status.StateError:
		if a.session == nil {
			return
		}
	case status.StateReady, status.StateTyping, status.StateQuerying:
	}

	switch {
	case a.currentView == messages.ViewQuery && a.queryView.Typing():
		a.statusbar.SetState(status.StateTyping)
	case a.queryView.Running():
		a.statusbar.SetState(status.StateQuerying)
	default:
		a.statusbar.SetState(status.StateReady)
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusbar.SetState(status.StateError)
	a.statusbar.SetMessage(err.Error())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.session == nil && a.err != nil {
		return a.styles.Error.Render("Could not load session: "+a.err.Error()) + "\n\n" +
			a.styles.Help.Render("[q] quit")
	}

	var body string
	switch a.currentView {
	case messages.ViewClauses:
		body = a.clausesView.View()
	case messages.ViewAnalysis:
		body = a.analysisView.View()
	case messages.ViewQuery:
		body = a.queryView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.viewTabs(),
		"",
		body,
		"",
		a.statusbar.View(),
	)
}

func (a *App) viewTabs() string {
	tabs := make([]string, 0, len(messages.Tabs))
	for i, t := range messages.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == a.currentView {
			tabs = append(tabs, a.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(label))
		}
	}
	return a.styles.Title.Render("clausewise ") + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) viewHelp() string {
	lines := []string{a.styles.Subtitle.Render("Keys"), ""}
	for _, group := range a.keymap.FullHelp() {
		for _, b := range group {
			lines = append(lines, helpLine(b))
		}
		lines = append(lines, "")
	}
	lines = append(lines, a.styles.Help.Render("[esc] back"))
	return strings.Join(lines, "\n")
}

func helpLine(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("  %-10s %s", h.Key, h.Desc)
}

// Run starts the TUI.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// Tabs, status bar and spacing take five lines.
	bodyHeight := max(height-5, 5)
	a.statusbar.SetWidth(width)
	a.clausesView.SetDimensions(width, bodyHeight)
	a.analysisView.SetDimensions(width, bodyHeight)
	a.queryView.SetDimensions(width, bodyHeight)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Session returns the loaded session, or nil.
func (a *App) Session() *domain.Session {
	return a.session
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}
