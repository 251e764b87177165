package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
)

// pollInterval is how often views poll their in-flight queries.
const pollInterval = 100 * time.Millisecond

// tickMsg drives query polling.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// App drives a stack of views. The top view gets keys and renders;
// tick messages reach every view so background queries settle even
// when their view is buried.
type App struct {
	dir     *jira.CachedClient
	baseURL string

	stack   []View
	spinner spinner.Model

	width    int
	height   int
	quitting bool
}

func newApp(dir *jira.CachedClient, baseURL string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return &App{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		spinner: sp,
		width:   80,
		height:  24,
	}
}

// Browse opens the TUI at the board list.
func Browse(dir *jira.CachedClient, baseURL, projectKey string) error {
	app := newApp(dir, baseURL)
	app.stack = []View{newBoardsView(app, projectKey)}
	return app.run()
}

// BrowseIssues opens the TUI at an issue list for the given JQL.
func BrowseIssues(dir *jira.CachedClient, baseURL, title, jql string) error {
	app := newApp(dir, baseURL)
	app.stack = []View{newSearchView(app, title, jql)}
	return app.run()
}

// BrowseBoard opens the TUI at one board's issue list.
func BrowseBoard(dir *jira.CachedClient, baseURL string, boardID int) error {
	app := newApp(dir, baseURL)
	title := fmt.Sprintf("Board %d", boardID)
	app.stack = []View{newIssuesView(app, title, func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error) {
		return dir.BoardIssues(ctx, boardID, "")
	})}
	return app.run()
}

// BrowseIssue opens the TUI directly on one issue's detail view.
func BrowseIssue(dir *jira.CachedClient, baseURL, key string) error {
	app := newApp(dir, baseURL)
	app.stack = []View{newDetailView(app, key)}
	return app.run()
}

// BrowseEpics opens the TUI at a project's epic list.
func BrowseEpics(dir *jira.CachedClient, baseURL, projectKey string) error {
	app := newApp(dir, baseURL)
	app.stack = []View{newEpicsView(app, projectKey)}
	return app.run()
}

// run executes the program. The TUI renders to stderr so stdout stays
// available for piping.
func (a *App) run() error {
	profile := colorprofile.Detect(os.Stderr, os.Environ())
	p := tea.NewProgram(a,
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)
	_, err := p.Run()
	return err
}

func (a *App) top() View {
	return a.stack[len(a.stack)-1]
}

// BubbleTea Model interface

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.top().Init(), a.spinner.Tick, tick())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case pushViewMsg:
		a.stack = append(a.stack, msg.view)
		return a, msg.view.Init()

	case popViewMsg:
		if len(a.stack) <= 1 {
			a.quitting = true
			return a, tea.Quit
		}
		a.stack = a.stack[:len(a.stack)-1]
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		// Every view polls, so a query started before a push still
		// settles while its view is buried.
		cmds := make([]tea.Cmd, 0, len(a.stack)+1)
		for i, v := range a.stack {
			updated, cmd := v.Update(msg)
			a.stack[i] = updated
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, tick())
		return a, tea.Batch(cmds...)

	case tea.KeyPressMsg:
		top := a.top()
		key := msg.String()

		if key == "ctrl+c" {
			a.quitting = true
			return a, tea.Quit
		}

		if !top.CapturingInput() {
			switch key {
			case "q":
				if len(a.stack) == 1 {
					a.quitting = true
					return a, tea.Quit
				}
			case "esc", "backspace":
				// Clear view state (filter, picker) before popping.
				if top.HasClearableInput() {
					top.ClearInput()
					return a, nil
				}
				return a, popViewCmd
			}
		}

		updated, cmd := top.Update(msg)
		a.stack[len(a.stack)-1] = updated
		return a, cmd
	}

	updated, cmd := a.top().Update(msg)
	a.stack[len(a.stack)-1] = updated
	return a, cmd
}

func (a *App) View() tea.View {
	if a.quitting {
		return tea.NewView("")
	}

	top := a.top()

	var b strings.Builder
	b.WriteString(titleStyle.Render(top.Title()))
	b.WriteString("\n\n")

	// Reserve lines for title, footer, and help.
	bodyHeight := max(a.height-5, 4)
	b.WriteString(top.View(a.width, bodyHeight))
	b.WriteString("\n")

	if footer := top.Footer(); footer != "" {
		b.WriteString(footer)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(top.Help()))

	return tea.NewView(b.String())
}

// spinnerView renders the shared loading spinner with a message.
func (a *App) spinnerView(message string) string {
	return a.spinner.View() + " " + mutedStyle.Render(message)
}

// provenance renders a footer describing where a result's data came
// from and how old it is.
func provenance(src cache.Source, cachedAt time.Time) string {
	switch src {
	case cache.SourceNetwork:
		return successStyle.Render("live")
	case cache.SourceOffline:
		return warningStyle.Render("offline — cached " + format.RelativeTime(cachedAt))
	default:
		return mutedStyle.Render("cached " + format.RelativeTime(cachedAt))
	}
}
