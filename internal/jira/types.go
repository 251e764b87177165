package jira

import "strconv"

// IssueSummary is the list-view slice of an issue: enough to render a
// row without fetching the full issue.
type IssueSummary struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	Status    string `json:"status"`
	IssueType string `json:"issue_type"`
	Assignee  string `json:"assignee,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Updated   string `json:"updated"`
}

// CacheKey implements cache.Cacheable.
func (i IssueSummary) CacheKey() string { return i.Key }

// UpdatedAt implements cache.Cacheable. Jira timestamps within one
// server share a UTC offset, so they sort correctly as strings.
func (i IssueSummary) UpdatedAt() string { return i.Updated }

// EntityType implements cache.Cacheable.
func (IssueSummary) EntityType() string { return "issue_summary" }

// Comment is one issue comment.
type Comment struct {
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// Issue is the full detail view of an issue, comments included.
// Transitions are deliberately absent: they depend on the caller's
// permissions and workflow state, so they are always fetched live.
type Issue struct {
	Key         string    `json:"key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	IssueType   string    `json:"issue_type"`
	Assignee    string    `json:"assignee,omitempty"`
	Reporter    string    `json:"reporter,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Components  []string  `json:"components,omitempty"`
	Created     string    `json:"created"`
	Updated     string    `json:"updated"`
	Comments    []Comment `json:"comments,omitempty"`
}

// CacheKey implements cache.Cacheable.
func (i *Issue) CacheKey() string { return i.Key }

// UpdatedAt implements cache.Cacheable.
func (i *Issue) UpdatedAt() string { return i.Updated }

// EntityType implements cache.Cacheable. Named because it must be
// callable on a nil *Issue.
func (*Issue) EntityType() string { return "issue" }

// ToSummary returns the list-view slice of the issue.
func (i *Issue) ToSummary() IssueSummary {
	return IssueSummary{
		Key:       i.Key,
		Summary:   i.Summary,
		Status:    i.Status,
		IssueType: i.IssueType,
		Assignee:  i.Assignee,
		Priority:  i.Priority,
		Updated:   i.Updated,
	}
}

// Board is a scrum or kanban board.
type Board struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // "scrum" or "kanban"
	ProjectKey  string `json:"project_key,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// CacheKey implements cache.Cacheable.
func (b Board) CacheKey() string { return strconv.Itoa(b.ID) }

// UpdatedAt implements cache.Cacheable. Boards carry no server-side
// modification time, so board lists never refresh incrementally.
func (Board) UpdatedAt() string { return "" }

// EntityType implements cache.Cacheable.
func (Board) EntityType() string { return "board" }

// Transition is a workflow transition available on an issue right now.
// Not cacheable: availability depends on workflow state and caller
// permissions.
type Transition struct {
	ID   string
	Name string
	To   string // target status name
}
