package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/log"
)

// Directory is the read surface the CLI and TUI consume: every lookup
// goes through the cache layer and reports where its data came from.
type Directory interface {
	Boards(ctx context.Context, projectKey string) (cache.Result[[]Board], error)
	SearchIssues(ctx context.Context, jql string) (cache.Result[[]IssueSummary], error)
	BoardIssues(ctx context.Context, boardID int, jql string) (cache.Result[[]IssueSummary], error)
	Epics(ctx context.Context, projectKey string) (cache.Result[[]IssueSummary], error)
	EpicIssues(ctx context.Context, epicKey string) (cache.Result[[]IssueSummary], error)
	Issue(ctx context.Context, key string) (cache.Result[*Issue], error)
}

// CachedClient pairs a Client with a cache layer. Reads are cache-first
// with offline fallback; writes always hit the network and refresh the
// cached issue afterwards, best effort.
type CachedClient struct {
	client *Client
	layer  *cache.Layer
	store  cache.Storage
}

var _ Directory = (*CachedClient)(nil)

// NewCachedClient wraps client with the cache layer. store must be the
// same storage the layer writes to; it is used to refresh single
// entities after writes.
func NewCachedClient(client *Client, layer *cache.Layer, store cache.Storage) *CachedClient {
	return &CachedClient{client: client, layer: layer, store: store}
}

// Client returns the underlying network client, for operations that
// must never serve cached data (transitions).
func (c *CachedClient) Client() *Client {
	return c.client
}

// normalizeJQL canonicalizes JQL for cache keying so trivial spelling
// differences share one cache entry.
func normalizeJQL(jql string) string {
	return strings.ToLower(strings.TrimSpace(jql))
}

// incrementalJQL narrows base to entities updated since the high-water
// mark. since is a raw Jira timestamp; JQL wants "yyyy-MM-dd HH:mm".
func incrementalJQL(base, since string) string {
	t, err := format.ParseJiraTime(since)
	if err != nil {
		// Unusable mark: refetch everything rather than miss updates.
		return base
	}
	clause := fmt.Sprintf("updated > '%s'", t.Format("2006-01-02 15:04"))
	if base == "" {
		return clause
	}
	return fmt.Sprintf("(%s) AND %s ORDER BY updated DESC", base, clause)
}

// Boards lists boards cache-first. Board lists carry no timestamps, so
// refreshes replace the whole result.
func (c *CachedClient) Boards(ctx context.Context, projectKey string) (cache.Result[[]Board], error) {
	key := cache.QueryKey("boards", projectKey)
	description := "all boards"
	if projectKey != "" {
		description = "boards for project " + projectKey
	}
	return cache.FetchList(ctx, c.layer, key, description, func(ctx context.Context) ([]Board, error) {
		return c.client.ListBoards(ctx, projectKey)
	})
}

// SearchIssues runs a JQL search cache-first. Stale refreshes only ask
// the server for issues updated since the cached high-water mark and
// merge them into the cached result.
func (c *CachedClient) SearchIssues(ctx context.Context, jql string) (cache.Result[[]IssueSummary], error) {
	key := cache.QueryKey("issue_search", normalizeJQL(jql))
	return cache.FetchIncremental(ctx, c.layer, key, "issues: "+jql,
		func(ctx context.Context, since string) ([]IssueSummary, error) {
			effective := jql
			if since != "" {
				effective = incrementalJQL(jql, since)
			}
			return c.client.SearchIssues(ctx, effective, 0)
		})
}

// BoardIssues lists a board's issues cache-first, refreshing
// incrementally like SearchIssues.
func (c *CachedClient) BoardIssues(ctx context.Context, boardID int, jql string) (cache.Result[[]IssueSummary], error) {
	key := cache.QueryKey("board_issues", strconv.Itoa(boardID), normalizeJQL(jql))
	description := fmt.Sprintf("board %d issues", boardID)
	if jql != "" {
		description += ": " + jql
	}
	return cache.FetchIncremental(ctx, c.layer, key, description,
		func(ctx context.Context, since string) ([]IssueSummary, error) {
			effective := jql
			if since != "" {
				effective = incrementalJQL(jql, since)
			}
			return c.client.BoardIssues(ctx, boardID, effective)
		})
}

// Epics lists a project's epics cache-first, refreshing incrementally
// like SearchIssues.
func (c *CachedClient) Epics(ctx context.Context, projectKey string) (cache.Result[[]IssueSummary], error) {
	jql := epicsJQL(projectKey)
	key := cache.QueryKey("epics", projectKey)
	return cache.FetchIncremental(ctx, c.layer, key, "epics for project "+projectKey,
		func(ctx context.Context, since string) ([]IssueSummary, error) {
			effective := jql
			if since != "" {
				effective = incrementalJQL(jql, since)
			}
			return c.client.SearchIssues(ctx, effective, 0)
		})
}

// EpicIssues lists an epic's issues cache-first, refreshing
// incrementally.
func (c *CachedClient) EpicIssues(ctx context.Context, epicKey string) (cache.Result[[]IssueSummary], error) {
	jql := epicIssuesJQL(c.client.cfg.EpicField, epicKey)
	key := cache.QueryKey("epic_issues", epicKey)
	return cache.FetchIncremental(ctx, c.layer, key, "issues in epic "+epicKey,
		func(ctx context.Context, since string) ([]IssueSummary, error) {
			effective := jql
			if since != "" {
				effective = incrementalJQL(jql, since)
			}
			return c.client.SearchIssues(ctx, effective, 0)
		})
}

// Issue fetches one issue cache-first.
func (c *CachedClient) Issue(ctx context.Context, key string) (cache.Result[*Issue], error) {
	return cache.FetchOne(ctx, c.layer, key, func(ctx context.Context) (*Issue, error) {
		return c.client.GetIssue(ctx, key)
	})
}

// MoveIssue transitions an issue to the named status and refreshes the
// cached copy.
func (c *CachedClient) MoveIssue(ctx context.Context, key, statusName string) error {
	if err := c.client.MoveIssue(ctx, key, statusName); err != nil {
		return err
	}
	c.refreshIssue(ctx, key)
	return nil
}

// AddComment adds a comment and refreshes the cached copy.
func (c *CachedClient) AddComment(ctx context.Context, key, body string) error {
	if err := c.client.AddComment(ctx, key, body); err != nil {
		return err
	}
	c.refreshIssue(ctx, key)
	return nil
}

// refreshIssue re-fetches an issue after a write so the next read
// reflects it. Failures only cost freshness, never the write.
func (c *CachedClient) refreshIssue(ctx context.Context, key string) {
	l := log.FromContext(ctx)
	issue, err := c.client.GetIssue(ctx, key)
	if err != nil {
		l.Debug("refresh after write failed", "issue", key, "err", err)
		return
	}
	data, err := json.Marshal(issue)
	if err != nil {
		l.Debug("refresh after write failed", "issue", key, "err", err)
		return
	}
	rec := cache.Record{Key: issue.CacheKey(), Updated: issue.UpdatedAt(), Data: data}
	if err := c.store.StoreEntity(ctx, issue.EntityType(), rec); err != nil {
		l.Debug("refresh after write failed", "issue", key, "err", err)
	}
}
