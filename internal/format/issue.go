package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// jiraTimeLayouts are the timestamp layouts Jira emits, most common first.
var jiraTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// issueKeyRegex matches issue keys like PROJ-123
var issueKeyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)

// NormalizeIssueKey trims and uppercases an issue key argument.
func NormalizeIssueKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidateIssueKey checks that key looks like an issue key.
// Returns error for anything that is not PROJECT-NUMBER shaped.
func ValidateIssueKey(key string) error {
	if !issueKeyRegex.MatchString(key) {
		return fmt.Errorf("invalid issue key %q (expected something like PROJ-123)", key)
	}
	return nil
}

// ParseJiraTime parses a timestamp as emitted by the Jira REST API.
func ParseJiraTime(s string) (time.Time, error) {
	for _, layout := range jiraTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// RelativeTime formats t relative to the current time.
func RelativeTime(t time.Time) string {
	return RelativeTimeFrom(t, time.Now())
}

// RelativeTimeFrom formats t relative to the given reference time
// ("just now", "5m ago", "yesterday"). Times a week or more in the
// past render as a plain date.
func RelativeTimeFrom(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 10*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
