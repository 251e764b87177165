// Package format handles issue key validation and display formatting.
//
// # Issue Keys
//
// Issue key arguments are normalized with [NormalizeIssueKey] (trim,
// uppercase) so "proj-123" works on the command line, then checked
// with [ValidateIssueKey] before any request is made.
//
// # Timestamps
//
// Jira emits timestamps like "2024-01-15T10:30:00.000+0000".
// [ParseJiraTime] turns them into time.Time for display;
// [RelativeTime] renders times the way the issue tables show them
// ("5m ago", "yesterday", plain date beyond a week).
package format
