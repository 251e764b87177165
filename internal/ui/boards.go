package ui

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/query"
)

// boardsView lists boards; enter drills into a board's issues.
type boardsView struct {
	app        *App
	projectKey string
	q          *query.Query[cache.Result[[]jira.Board]]
	cursor     int
}

func newBoardsView(app *App, projectKey string) *boardsView {
	v := &boardsView{app: app, projectKey: projectKey}
	v.q = query.New(query.Run(func(ctx context.Context) (cache.Result[[]jira.Board], error) {
		return app.dir.Boards(ctx, projectKey)
	}))
	return v
}

func (v *boardsView) Title() string {
	if v.projectKey != "" {
		return "Boards · " + v.projectKey
	}
	return "Boards"
}

func (v *boardsView) Init() tea.Cmd {
	v.q.Fetch()
	return nil
}

func (v *boardsView) boards() []jira.Board {
	res, ok := v.q.Value()
	if !ok {
		return nil
	}
	return res.Value
}

func (v *boardsView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		v.q.Poll()
		if v.q.IsStale() {
			v.q.Fetch()
		}
		return v, nil

	case tea.KeyPressMsg:
		boards := v.boards()
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(boards)-1 {
				v.cursor++
			}
		case "g", "home":
			v.cursor = 0
		case "G", "end":
			v.cursor = max(len(boards)-1, 0)
		case "r":
			v.q.Refetch()
		case "enter":
			if v.cursor < len(boards) {
				board := boards[v.cursor]
				return v, pushView(newBoardIssuesView(v.app, board))
			}
		case "e":
			// Epics belong to a project, not a board; prefer the view's
			// project and fall back to the selected board's.
			project := v.projectKey
			if project == "" && v.cursor < len(boards) {
				project = boards[v.cursor].ProjectKey
			}
			if project != "" {
				return v, pushView(newEpicsView(v.app, project))
			}
		}
	}
	return v, nil
}

func (v *boardsView) View(width, height int) string {
	boards := v.boards()

	if len(boards) == 0 {
		if v.q.Loading() {
			return v.app.spinnerView("loading boards")
		}
		if err := v.q.Err(); err != nil {
			return errorStyle.Render(err.Error())
		}
		return mutedStyle.Render("no boards")
	}

	var b listBuilder
	if err := v.q.Err(); err != nil {
		b.line(errorStyle.Render(err.Error()))
		height--
	}

	start, end := window(v.cursor, len(boards), height)
	if start > 0 {
		b.line(mutedStyle.Render("  ↑ more above"))
	}
	for i := start; i < end; i++ {
		board := boards[i]
		name := normalStyle.Render(board.Name)
		cursor := "  "
		if i == v.cursor {
			name = selectedStyle.Render(board.Name)
			cursor = "> "
		}
		b.line(cursor + name + "  " + mutedStyle.Render(boardDetail(board)))
	}
	if end < len(boards) {
		b.line(mutedStyle.Render("  ↓ more below"))
	}
	return b.String()
}

func boardDetail(b jira.Board) string {
	if b.ProjectKey != "" {
		return fmt.Sprintf("(%s, %s)", b.Type, b.ProjectKey)
	}
	return "(" + b.Type + ")"
}

func (v *boardsView) Footer() string {
	res, ok := v.q.Value()
	if !ok {
		return ""
	}
	return provenance(res.Source, res.CachedAt)
}

func (v *boardsView) Help() string {
	return "↑/↓ move • enter open • e epics • r refresh • q quit"
}

func (v *boardsView) CapturingInput() bool    { return false }
func (v *boardsView) HasClearableInput() bool { return false }
func (v *boardsView) ClearInput()             {}
