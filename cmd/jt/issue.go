package main

import (
	"fmt"
	"strings"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
)

// renderIssue formats one issue as plain text for stdout.
func renderIssue(issue *jira.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", issue.Key, issue.Summary)
	fmt.Fprintf(&b, "Status:   %s (%s)\n", issue.Status, issue.IssueType)
	if issue.Assignee != "" {
		fmt.Fprintf(&b, "Assignee: %s\n", issue.Assignee)
	}
	if issue.Reporter != "" {
		fmt.Fprintf(&b, "Reporter: %s\n", issue.Reporter)
	}
	if issue.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", issue.Priority)
	}
	if len(issue.Labels) > 0 {
		fmt.Fprintf(&b, "Labels:   %s\n", strings.Join(issue.Labels, ", "))
	}
	if len(issue.Components) > 0 {
		fmt.Fprintf(&b, "Components: %s\n", strings.Join(issue.Components, ", "))
	}
	if t, err := format.ParseJiraTime(issue.Updated); err == nil {
		fmt.Fprintf(&b, "Updated:  %s\n", format.RelativeTime(t))
	}

	if issue.Description != "" {
		b.WriteString("\n")
		b.WriteString(issue.Description)
		b.WriteString("\n")
	}

	if len(issue.Comments) > 0 {
		fmt.Fprintf(&b, "\nComments (%d):\n", len(issue.Comments))
		for _, c := range issue.Comments {
			when := c.Created
			if t, err := format.ParseJiraTime(c.Created); err == nil {
				when = format.RelativeTime(t)
			}
			fmt.Fprintf(&b, "\n%s (%s)\n%s\n", c.Author, when, c.Body)
		}
	}

	return b.String()
}
