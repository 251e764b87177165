package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raphi011/jt/internal/log"
)

// pageSize is how many results each paginated request asks for.
const pageSize = 100

// issueFields are the issue fields requested on list endpoints.
const issueFields = "summary,status,issuetype,assignee,priority,updated"

// Config carries everything the client needs to reach a Jira server.
type Config struct {
	BaseURL string
	// Cloud auth: Email + APIToken as basic auth.
	Email string
	// Server/DC auth: APIToken as bearer PAT, or User + Password basic.
	User     string
	APIToken string
	Password string
	// EpicField is the name of the epic link field. Server installations
	// rename it per instance; empty means "Epic Link".
	EpicField string
	Timeout   time.Duration
}

// Client is a Jira REST client (API v2 + Agile 1.0).
type Client struct {
	baseURL string
	cfg     Config
	hc      *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// NewClient creates a Jira client for cfg.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		hc:      &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authorize sets the auth header. Cloud hosts use basic auth with
// email and API token; everything else prefers a bearer PAT and falls
// back to basic auth with user and password.
func (c *Client) authorize(req *http.Request) {
	host := req.URL.Hostname()
	if strings.HasSuffix(host, ".atlassian.net") {
		req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
		return
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
		return
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
}

// apiError is Jira's error payload shape.
type apiError struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func (e apiError) message() string {
	msgs := e.ErrorMessages
	for field, msg := range e.Errors {
		msgs = append(msgs, field+": "+msg)
	}
	return strings.Join(msgs, "; ")
}

// do performs one request and decodes the JSON response into out
// (skipped when out is nil).
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	done := log.FromContext(ctx).Request(method, u)
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		done("network error", time.Since(start))
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()
	done(resp.Status, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			if msg := apiErr.message(); msg != "" {
				return fmt.Errorf("jira: %s: %s", resp.Status, msg)
			}
		}
		return fmt.Errorf("jira: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Wire types. Jira nests everything interesting under "fields";
// conversion to the flat domain types happens right after decoding.

type apiNamed struct {
	Name string `json:"name"`
}

type apiUser struct {
	DisplayName string `json:"displayName"`
}

type apiComment struct {
	Author  apiUser `json:"author"`
	Body    string  `json:"body"`
	Created string  `json:"created"`
}

type apiIssueFields struct {
	Summary     string     `json:"summary"`
	Status      *apiNamed  `json:"status"`
	IssueType   *apiNamed  `json:"issuetype"`
	Assignee    *apiUser   `json:"assignee"`
	Reporter    *apiUser   `json:"reporter"`
	Priority    *apiNamed  `json:"priority"`
	Labels      []string   `json:"labels"`
	Components  []apiNamed `json:"components"`
	Description string     `json:"description"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`
	Comment     *struct {
		Comments []apiComment `json:"comments"`
	} `json:"comment"`
}

type apiIssue struct {
	Key    string         `json:"key"`
	Fields apiIssueFields `json:"fields"`
}

func named(n *apiNamed) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func display(u *apiUser) string {
	if u == nil {
		return ""
	}
	return u.DisplayName
}

func (a apiIssue) toSummary() IssueSummary {
	return IssueSummary{
		Key:       a.Key,
		Summary:   a.Fields.Summary,
		Status:    named(a.Fields.Status),
		IssueType: named(a.Fields.IssueType),
		Assignee:  display(a.Fields.Assignee),
		Priority:  named(a.Fields.Priority),
		Updated:   a.Fields.Updated,
	}
}

func (a apiIssue) toIssue() *Issue {
	issue := &Issue{
		Key:         a.Key,
		Summary:     a.Fields.Summary,
		Description: a.Fields.Description,
		Status:      named(a.Fields.Status),
		IssueType:   named(a.Fields.IssueType),
		Assignee:    display(a.Fields.Assignee),
		Reporter:    display(a.Fields.Reporter),
		Priority:    named(a.Fields.Priority),
		Labels:      a.Fields.Labels,
		Created:     a.Fields.Created,
		Updated:     a.Fields.Updated,
	}
	for _, comp := range a.Fields.Components {
		issue.Components = append(issue.Components, comp.Name)
	}
	if a.Fields.Comment != nil {
		for _, c := range a.Fields.Comment.Comments {
			issue.Comments = append(issue.Comments, Comment{
				Author:  c.Author.DisplayName,
				Body:    c.Body,
				Created: c.Created,
			})
		}
	}
	return issue
}

type apiSearchResponse struct {
	Issues     []apiIssue `json:"issues"`
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
}

// SearchIssues runs a JQL search and returns all matching issues,
// following pagination. maxResults <= 0 means no limit.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]IssueSummary, error) {
	var issues []IssueSummary
	startAt := 0
	for {
		params := url.Values{
			"jql":        {jql},
			"fields":     {issueFields},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		var resp apiSearchResponse
		if err := c.do(ctx, http.MethodGet, "/rest/api/2/search", params, nil, &resp); err != nil {
			return nil, fmt.Errorf("searching issues: %w", err)
		}
		for _, i := range resp.Issues {
			issues = append(issues, i.toSummary())
			if maxResults > 0 && len(issues) >= maxResults {
				return issues, nil
			}
		}
		startAt += len(resp.Issues)
		if len(resp.Issues) == 0 || startAt >= resp.Total {
			return issues, nil
		}
	}
}

// epicsJQL selects a project's epics, most recently updated first.
func epicsJQL(projectKey string) string {
	return fmt.Sprintf("project = %s AND issuetype = Epic ORDER BY updated DESC", projectKey)
}

// epicIssuesJQL selects the issues linked to an epic. field is the epic
// link field name, empty for the stock "Epic Link".
func epicIssuesJQL(field, epicKey string) string {
	if field == "" {
		field = "Epic Link"
	}
	return fmt.Sprintf("%q = %s ORDER BY updated DESC", field, epicKey)
}

// Epics lists a project's epics.
func (c *Client) Epics(ctx context.Context, projectKey string) ([]IssueSummary, error) {
	return c.SearchIssues(ctx, epicsJQL(projectKey), 0)
}

// EpicIssues lists the issues that belong to an epic.
func (c *Client) EpicIssues(ctx context.Context, epicKey string) ([]IssueSummary, error) {
	return c.SearchIssues(ctx, epicIssuesJQL(c.cfg.EpicField, epicKey), 0)
}

// GetIssue fetches one issue with its comments.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	params := url.Values{
		"fields": {issueFields + ",description,reporter,labels,components,created,comment"},
	}
	var resp apiIssue
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), params, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", key, err)
	}
	return resp.toIssue(), nil
}

type apiBoard struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location struct {
		ProjectKey  string `json:"projectKey"`
		ProjectName string `json:"projectName"`
	} `json:"location"`
}

type apiBoardsResponse struct {
	Values []apiBoard `json:"values"`
	IsLast bool       `json:"isLast"`
}

// ListBoards returns all boards, optionally filtered to one project.
func (c *Client) ListBoards(ctx context.Context, projectKey string) ([]Board, error) {
	var boards []Board
	startAt := 0
	for {
		params := url.Values{
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		if projectKey != "" {
			params.Set("projectKeyOrId", projectKey)
		}
		var resp apiBoardsResponse
		if err := c.do(ctx, http.MethodGet, "/rest/agile/1.0/board", params, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing boards: %w", err)
		}
		for _, b := range resp.Values {
			boards = append(boards, Board{
				ID:          b.ID,
				Name:        b.Name,
				Type:        b.Type,
				ProjectKey:  b.Location.ProjectKey,
				ProjectName: b.Location.ProjectName,
			})
		}
		startAt += len(resp.Values)
		if resp.IsLast || len(resp.Values) == 0 {
			return boards, nil
		}
	}
}

type apiBoardIssuesResponse struct {
	Issues  []apiIssue `json:"issues"`
	StartAt int        `json:"startAt"`
	Total   int        `json:"total"`
}

// BoardIssues returns all issues on a board, optionally narrowed by
// jql, following pagination.
func (c *Client) BoardIssues(ctx context.Context, boardID int, jql string) ([]IssueSummary, error) {
	var issues []IssueSummary
	startAt := 0
	for {
		params := url.Values{
			"fields":     {issueFields},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		if jql != "" {
			params.Set("jql", jql)
		}
		path := fmt.Sprintf("/rest/agile/1.0/board/%d/issue", boardID)
		var resp apiBoardIssuesResponse
		if err := c.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing board %d issues: %w", boardID, err)
		}
		for _, i := range resp.Issues {
			issues = append(issues, i.toSummary())
		}
		startAt += len(resp.Issues)
		if len(resp.Issues) == 0 || startAt >= resp.Total {
			return issues, nil
		}
	}
}

type apiTransitionsResponse struct {
	Transitions []struct {
		ID   string   `json:"id"`
		Name string   `json:"name"`
		To   apiNamed `json:"to"`
	} `json:"transitions"`
}

// ListTransitions returns the transitions currently available on an
// issue.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	var resp apiTransitionsResponse
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/transitions"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing transitions for %s: %w", key, err)
	}
	transitions := make([]Transition, 0, len(resp.Transitions))
	for _, t := range resp.Transitions {
		transitions = append(transitions, Transition{ID: t.ID, Name: t.Name, To: t.To.Name})
	}
	return transitions, nil
}

// TransitionIssue applies a transition by id.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	body := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/transitions"
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("transitioning %s: %w", key, err)
	}
	return nil
}

// MoveIssue transitions an issue to the named status. The match against
// available transitions is case-insensitive on the target status.
func (c *Client) MoveIssue(ctx context.Context, key, statusName string) error {
	transitions, err := c.ListTransitions(ctx, key)
	if err != nil {
		return err
	}
	for _, t := range transitions {
		if strings.EqualFold(t.To, statusName) {
			return c.TransitionIssue(ctx, key, t.ID)
		}
	}
	return fmt.Errorf("no transition from the current status of %s to %q", key, statusName)
}

// AddComment adds a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("commenting on %s: %w", key, err)
	}
	return nil
}

// Myself returns the display name of the authenticated user. Used by
// doctor to verify credentials.
func (c *Client) Myself(ctx context.Context) (string, error) {
	var resp apiUser
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("checking credentials: %w", err)
	}
	return resp.DisplayName, nil
}
