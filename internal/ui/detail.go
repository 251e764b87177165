package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/cmd"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/query"
)

type detailMode int

const (
	// modeView scrolls the issue.
	modeView detailMode = iota
	// modePick selects a workflow transition.
	modePick
	// modeComment types a new comment.
	modeComment
)

// issueMovedMsg reports a finished transition.
type issueMovedMsg struct {
	status string
	err    error
}

// commentAddedMsg reports a finished comment post.
type commentAddedMsg struct {
	err error
}

// browserOpenedMsg reports the outcome of opening the issue in a browser.
type browserOpenedMsg struct {
	url string
	err error
}

// detailView shows one issue: metadata, description, comments. It can
// transition the issue, comment on it, and yank or open its URL.
type detailView struct {
	app *App
	key string
	q   *query.Query[cache.Result[*jira.Issue]]

	scroll int
	mode   detailMode

	// modePick state; transitions are always fetched live because
	// they depend on workflow state and permissions.
	transitions *query.Query[[]jira.Transition]
	tCursor     int

	// modeComment state.
	comment textinput.Model

	notice    string
	noticeErr bool
}

func newDetailView(app *App, key string) *detailView {
	ti := textinput.New()
	ti.Placeholder = "comment"
	ti.CharLimit = 2000
	ti.SetWidth(60)

	v := &detailView{app: app, key: key, comment: ti}
	v.q = query.New(query.Run(func(ctx context.Context) (cache.Result[*jira.Issue], error) {
		return app.dir.Issue(ctx, key)
	}))
	v.transitions = query.New(query.Run(func(ctx context.Context) ([]jira.Transition, error) {
		return app.dir.Client().ListTransitions(ctx, key)
	}))
	return v
}

func (v *detailView) Title() string { return v.key }

func (v *detailView) Init() tea.Cmd {
	v.q.Fetch()
	return nil
}

func (v *detailView) issue() *jira.Issue {
	res, ok := v.q.Value()
	if !ok {
		return nil
	}
	return res.Value
}

func (v *detailView) browseURL() string {
	return v.app.baseURL + "/browse/" + v.key
}

func (v *detailView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		v.q.Poll()
		v.transitions.Poll()
		if v.q.IsStale() {
			v.q.Fetch()
		}
		return v, nil

	case issueMovedMsg:
		v.mode = modeView
		if msg.err != nil {
			v.setNotice(msg.err.Error(), true)
			return v, nil
		}
		v.setNotice("moved to "+msg.status, false)
		v.q.Refetch()
		return v, nil

	case commentAddedMsg:
		v.mode = modeView
		if msg.err != nil {
			v.setNotice(msg.err.Error(), true)
			return v, nil
		}
		v.setNotice("comment added", false)
		v.q.Refetch()
		return v, nil

	case browserOpenedMsg:
		if msg.err != nil {
			// No opener on this box: show the URL instead.
			v.setNotice(msg.url, false)
			return v, nil
		}
		v.setNotice("opened in browser", false)
		return v, nil

	case tea.KeyPressMsg:
		switch v.mode {
		case modePick:
			return v.updatePick(msg)
		case modeComment:
			return v.updateComment(msg)
		}
		return v.updateView(msg)
	}
	return v, nil
}

func (v *detailView) updateView(msg tea.KeyPressMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scroll > 0 {
			v.scroll--
		}
	case "down", "j":
		v.scroll++
	case "g", "home":
		v.scroll = 0
	case "r":
		v.q.Refetch()
	case "m":
		v.mode = modePick
		v.tCursor = 0
		v.transitions.Refetch()
	case "c":
		v.mode = modeComment
		v.comment.SetValue("")
		v.comment.Focus()
		return v, textinput.Blink
	case "y":
		if err := clipboard.WriteAll(v.key); err != nil {
			v.setNotice(err.Error(), true)
		} else {
			v.setNotice("copied "+v.key, false)
		}
	case "Y":
		if err := clipboard.WriteAll(v.browseURL()); err != nil {
			v.setNotice(err.Error(), true)
		} else {
			v.setNotice("copied "+v.browseURL(), false)
		}
	case "o":
		url := v.browseURL()
		return v, func() tea.Msg {
			return browserOpenedMsg{url: url, err: cmd.OpenBrowser(context.Background(), url)}
		}
	}
	return v, nil
}

func (v *detailView) updatePick(msg tea.KeyPressMsg) (View, tea.Cmd) {
	transitions, _ := v.transitions.Value()
	switch msg.String() {
	case "up", "k":
		if v.tCursor > 0 {
			v.tCursor--
		}
	case "down", "j":
		if v.tCursor < len(transitions)-1 {
			v.tCursor++
		}
	case "enter":
		if v.tCursor < len(transitions) {
			t := transitions[v.tCursor]
			return v, func() tea.Msg {
				err := v.app.dir.MoveIssue(context.Background(), v.key, t.To)
				return issueMovedMsg{status: t.To, err: err}
			}
		}
	}
	return v, nil
}

func (v *detailView) updateComment(msg tea.KeyPressMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		body := strings.TrimSpace(v.comment.Value())
		if body == "" {
			v.mode = modeView
			return v, nil
		}
		return v, func() tea.Msg {
			return commentAddedMsg{err: v.app.dir.AddComment(context.Background(), v.key, body)}
		}
	case "esc":
		v.mode = modeView
		v.comment.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.comment, cmd = v.comment.Update(msg)
	return v, cmd
}

func (v *detailView) setNotice(text string, isErr bool) {
	v.notice = text
	v.noticeErr = isErr
}

func (v *detailView) View(width, height int) string {
	issue := v.issue()

	if issue == nil {
		if v.q.Loading() {
			return v.app.spinnerView("loading " + v.key)
		}
		if err := v.q.Err(); err != nil {
			return errorStyle.Render(err.Error())
		}
		return mutedStyle.Render("nothing here")
	}

	var b listBuilder

	if err := v.q.Err(); err != nil {
		b.line(errorStyle.Render(err.Error()))
		height--
	}
	if v.notice != "" {
		style := successStyle
		if v.noticeErr {
			style = errorStyle
		}
		b.line(style.Render(v.notice))
		height--
	}

	switch v.mode {
	case modePick:
		b.line(v.renderPicker(height - len(b.rows)))
	case modeComment:
		b.line(v.renderBody(issue, width, height-len(b.rows)-2))
		b.line("")
		b.line(filterLabelStyle.Render("comment: ") + v.comment.View())
	default:
		b.line(v.renderBody(issue, width, height-len(b.rows)))
	}
	return b.String()
}

func (v *detailView) renderBody(issue *jira.Issue, width, height int) string {
	lines := v.contentLines(issue, width)

	maxScroll := max(len(lines)-height, 0)
	if v.scroll > maxScroll {
		v.scroll = maxScroll
	}
	end := min(v.scroll+height, len(lines))

	out := strings.Join(lines[v.scroll:end], "\n")
	if end < len(lines) {
		out += "\n" + mutedStyle.Render("  ↓ more below")
	}
	return out
}

func (v *detailView) contentLines(issue *jira.Issue, width int) []string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 20))

	var lines []string
	add := func(block string) {
		lines = append(lines, strings.Split(block, "\n")...)
	}

	add(selectedStyle.Render(issue.Summary))
	add(metaLine("status", issue.Status) + metaLine("  type", issue.IssueType) + metaLine("  priority", issue.Priority))
	add(metaLine("assignee", issue.Assignee) + metaLine("  reporter", issue.Reporter))
	if len(issue.Labels) > 0 {
		add(metaLine("labels", strings.Join(issue.Labels, ", ")))
	}
	if len(issue.Components) > 0 {
		add(metaLine("components", strings.Join(issue.Components, ", ")))
	}
	if t, err := format.ParseJiraTime(issue.Updated); err == nil {
		add(metaLine("updated", format.RelativeTime(t)))
	}

	if issue.Description != "" {
		add("")
		add(wrap.Render(issue.Description))
	}

	if len(issue.Comments) > 0 {
		add("")
		add(titleStyle.Render(fmt.Sprintf("Comments (%d)", len(issue.Comments))))
		for _, c := range issue.Comments {
			add("")
			header := selectedStyle.Render(c.Author)
			if t, err := format.ParseJiraTime(c.Created); err == nil {
				header += mutedStyle.Render("  " + format.RelativeTime(t))
			}
			add(header)
			add(wrap.Render(c.Body))
		}
	}
	return lines
}

func metaLine(label, value string) string {
	if value == "" {
		return ""
	}
	return mutedStyle.Render(label+": ") + normalStyle.Render(value)
}

func (v *detailView) renderPicker(height int) string {
	transitions, ok := v.transitions.Value()
	if !ok || v.transitions.Loading() {
		return v.app.spinnerView("loading transitions")
	}
	if err := v.transitions.Err(); err != nil {
		return errorStyle.Render(err.Error())
	}
	if len(transitions) == 0 {
		return mutedStyle.Render("no transitions available")
	}

	var b listBuilder
	b.line(normalStyle.Render("Move to:"))
	start, end := window(v.tCursor, len(transitions), max(height-1, 1))
	for i := start; i < end; i++ {
		t := transitions[i]
		if i == v.tCursor {
			b.line("> " + selectedStyle.Render(t.Name) + "  " + mutedStyle.Render("→ "+t.To))
		} else {
			b.line("  " + normalStyle.Render(t.Name) + "  " + mutedStyle.Render("→ "+t.To))
		}
	}
	return b.String()
}

func (v *detailView) Footer() string {
	res, ok := v.q.Value()
	if !ok {
		return ""
	}
	return provenance(res.Source, res.CachedAt)
}

func (v *detailView) Help() string {
	switch v.mode {
	case modePick:
		return "↑/↓ move • enter apply • esc cancel"
	case modeComment:
		return "enter send • esc cancel"
	}
	return "↑/↓ scroll • m move • c comment • y/Y yank key/url • o open • r refresh • esc back"
}

func (v *detailView) CapturingInput() bool { return v.mode == modeComment }

func (v *detailView) HasClearableInput() bool { return v.mode != modeView }

func (v *detailView) ClearInput() {
	v.mode = modeView
	v.comment.Blur()
}
