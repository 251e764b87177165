package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/sahilm/fuzzy"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/history"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/query"
)

// issueSource implements fuzzy.Source over issue rows; the key and the
// summary both count for matching.
type issueSource []jira.IssueSummary

func (s issueSource) String(i int) string { return s[i].Key + " " + s[i].Summary }
func (s issueSource) Len() int            { return len(s) }

// issuesView lists issues with an optional fuzzy filter; enter drills
// into the issue detail.
type issuesView struct {
	app   *App
	title string
	q     *query.Query[cache.Result[[]jira.IssueSummary]]
	open  func(issue jira.IssueSummary) tea.Cmd

	cursor      int
	filtering   bool
	filterInput textinput.Model
	matches     []fuzzy.Match
}

func newIssuesView(app *App, title string, fetch func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error)) *issuesView {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.CharLimit = 80
	ti.SetWidth(40)

	v := &issuesView{
		app:         app,
		title:       title,
		q:           query.New(query.Run(fetch)),
		filterInput: ti,
	}
	v.open = func(issue jira.IssueSummary) tea.Cmd {
		// Best effort; browsing must not fail on a full disk.
		_ = history.Record(issue.Key, issue.Summary)
		return pushView(newDetailView(app, issue.Key))
	}
	return v
}

// newSearchView lists the results of a JQL search.
func newSearchView(app *App, title, jql string) *issuesView {
	return newIssuesView(app, title, func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error) {
		return app.dir.SearchIssues(ctx, jql)
	})
}

// newEpicsView lists a project's epics; enter drills into the epic's
// issue list instead of the issue detail.
func newEpicsView(app *App, projectKey string) *issuesView {
	v := newIssuesView(app, "Epics · "+projectKey, func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error) {
		return app.dir.Epics(ctx, projectKey)
	})
	v.open = func(epic jira.IssueSummary) tea.Cmd {
		return pushView(newEpicIssuesView(app, epic))
	}
	return v
}

// newEpicIssuesView lists the issues that belong to one epic.
func newEpicIssuesView(app *App, epic jira.IssueSummary) *issuesView {
	return newIssuesView(app, "Epic "+epic.Key, func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error) {
		return app.dir.EpicIssues(ctx, epic.Key)
	})
}

// newBoardIssuesView lists a board's issues.
func newBoardIssuesView(app *App, board jira.Board) *issuesView {
	return newIssuesView(app, board.Name, func(ctx context.Context) (cache.Result[[]jira.IssueSummary], error) {
		return app.dir.BoardIssues(ctx, board.ID, "")
	})
}

func (v *issuesView) Title() string { return v.title }

func (v *issuesView) Init() tea.Cmd {
	v.q.Fetch()
	return nil
}

func (v *issuesView) issues() []jira.IssueSummary {
	res, ok := v.q.Value()
	if !ok {
		return nil
	}
	return res.Value
}

func (v *issuesView) filter() string {
	return strings.TrimSpace(v.filterInput.Value())
}

// applyFilter recomputes the fuzzy matches for the current filter.
// Called whenever the filter text or the underlying data changes.
func (v *issuesView) applyFilter() {
	if v.filter() == "" {
		v.matches = nil
		return
	}
	v.matches = fuzzy.FindFrom(v.filter(), issueSource(v.issues()))
	if v.cursor >= len(v.matches) {
		v.cursor = max(len(v.matches)-1, 0)
	}
}

// visible returns the rows to render: fuzzy matches when filtering,
// every issue otherwise.
func (v *issuesView) visible() []fuzzy.Match {
	issues := v.issues()
	if v.filter() == "" {
		all := make([]fuzzy.Match, len(issues))
		for i := range issues {
			all[i] = fuzzy.Match{Index: i}
		}
		return all
	}
	return v.matches
}

func (v *issuesView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if v.q.Poll() {
			v.applyFilter()
			if rows := v.visible(); v.cursor >= len(rows) {
				v.cursor = max(len(rows)-1, 0)
			}
		}
		if v.q.IsStale() {
			v.q.Fetch()
		}
		return v, nil

	case tea.KeyPressMsg:
		if v.filtering {
			return v.updateFilter(msg)
		}

		rows := v.visible()
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(rows)-1 {
				v.cursor++
			}
		case "g", "home":
			v.cursor = 0
		case "G", "end":
			v.cursor = max(len(rows)-1, 0)
		case "r":
			v.q.Refetch()
		case "/":
			v.filtering = true
			v.filterInput.Focus()
			return v, textinput.Blink
		case "enter":
			if v.cursor < len(rows) {
				return v, v.open(v.issues()[rows[v.cursor].Index])
			}
		}
	}
	return v, nil
}

func (v *issuesView) updateFilter(msg tea.KeyPressMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// Keep the filter applied, return focus to the list.
		v.filtering = false
		v.filterInput.Blur()
		return v, nil
	case "esc":
		v.ClearInput()
		return v, nil
	}
	var cmd tea.Cmd
	v.filterInput, cmd = v.filterInput.Update(msg)
	v.applyFilter()
	return v, cmd
}

func (v *issuesView) View(width, height int) string {
	issues := v.issues()

	if len(issues) == 0 && v.filter() == "" {
		if v.q.Loading() {
			return v.app.spinnerView("loading issues")
		}
		if err := v.q.Err(); err != nil {
			return errorStyle.Render(err.Error())
		}
		return mutedStyle.Render("no issues")
	}

	var b listBuilder
	if err := v.q.Err(); err != nil {
		b.line(errorStyle.Render(err.Error()))
		height--
	}
	if v.filtering || v.filter() != "" {
		b.line(filterLabelStyle.Render("filter: ") + v.filterInput.View())
		height -= 2
	}

	rows := v.visible()
	start, end := window(v.cursor, len(rows), height)
	if start > 0 {
		b.line(mutedStyle.Render("  ↑ more above"))
	}
	for i := start; i < end; i++ {
		b.line(v.renderRow(rows[i], i == v.cursor, width))
	}
	if end < len(rows) {
		b.line(mutedStyle.Render("  ↓ more below"))
	}
	if len(rows) == 0 {
		b.line(mutedStyle.Render("  no matching issues"))
	}
	return b.String()
}

func (v *issuesView) renderRow(match fuzzy.Match, selected bool, width int) string {
	issue := v.issues()[match.Index]

	cursor := "  "
	rowStyle := normalStyle
	if selected {
		cursor = "> "
		rowStyle = selectedStyle
	}

	label := issue.Key + " " + issue.Summary
	label = format.Truncate(label, max(width-20, 20))

	var rendered string
	if v.filter() != "" && len(match.MatchedIndexes) > 0 {
		rendered = highlightMatches(label, match.MatchedIndexes, rowStyle)
	} else {
		rendered = rowStyle.Render(label)
	}

	return cursor + rendered + "  " + mutedStyle.Render(issue.Status)
}

func (v *issuesView) Footer() string {
	res, ok := v.q.Value()
	if !ok {
		return ""
	}
	line := provenance(res.Source, res.CachedAt)
	return line + mutedStyle.Render(fmt.Sprintf(" · %d issues", len(res.Value)))
}

func (v *issuesView) Help() string {
	if v.filtering {
		return "enter apply • esc clear"
	}
	return "↑/↓ move • enter open • / filter • r refresh • esc back"
}

func (v *issuesView) CapturingInput() bool { return v.filtering }

func (v *issuesView) HasClearableInput() bool {
	return v.filtering || v.filter() != ""
}

func (v *issuesView) ClearInput() {
	v.filtering = false
	v.filterInput.Blur()
	v.filterInput.SetValue("")
	v.matches = nil
	v.cursor = 0
}
