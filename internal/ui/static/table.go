// Package static provides non-interactive terminal output components.
//
// This package contains components for rendering formatted output
// that does not require user interaction, such as tables and
// formatted text displays.
package static

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
)

// RenderTable creates a formatted table with proper column alignment.
// Headers and rows are rendered using lipgloss/table which automatically
// calculates column widths based on content. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}

// IssueHeaders are the columns of an issue list table.
var IssueHeaders = []string{"KEY", "TYPE", "STATUS", "ASSIGNEE", "UPDATED", "SUMMARY"}

// IssueTableRow renders one issue as a table row matching IssueHeaders.
func IssueTableRow(issue jira.IssueSummary) []string {
	updated := issue.Updated
	if t, err := format.ParseJiraTime(issue.Updated); err == nil {
		updated = format.RelativeTime(t)
	}
	return []string{
		issue.Key,
		issue.IssueType,
		issue.Status,
		issue.Assignee,
		updated,
		format.Truncate(issue.Summary, 70),
	}
}

// BoardHeaders are the columns of a board list table.
var BoardHeaders = []string{"ID", "NAME", "TYPE", "PROJECT"}

// BoardTableRow renders one board as a table row matching BoardHeaders.
func BoardTableRow(board jira.Board) []string {
	return []string{
		strconv.Itoa(board.ID),
		board.Name,
		board.Type,
		board.ProjectKey,
	}
}
