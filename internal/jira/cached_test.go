package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphi011/jt/internal/cache"
)

// cachedFixture wires a CachedClient against a test server and a real
// SQLite cache with a controllable clock.
type cachedFixture struct {
	cached  *CachedClient
	clock   *time.Time
	fetches *atomic.Int64
	lastJQL *atomic.Value
}

func newCachedFixture(t *testing.T, fail *atomic.Bool) *cachedFixture {
	t.Helper()

	var fetches atomic.Int64
	var lastJQL atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fetches.Add(1)
		lastJQL.Store(r.URL.Query().Get("jql"))
		resp := apiSearchResponse{Total: 1, Issues: []apiIssue{{
			Key: "PROJ-1",
			Fields: apiIssueFields{
				Summary: "cached issue",
				Status:  &apiNamed{Name: "To Do"},
				Updated: "2025-01-01T10:00:00.000+0000",
			},
		}}}
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Now()
	layer := cache.NewLayer(store,
		cache.WithStaleTime(5*time.Minute),
		cache.WithClock(func() time.Time { return now }))

	client := NewClient(Config{BaseURL: srv.URL, User: "dev", Password: "pw"})
	return &cachedFixture{
		cached:  NewCachedClient(client, layer, store),
		clock:   &now,
		fetches: &fetches,
		lastJQL: &lastJQL,
	}
}

func TestCachedClient_SearchIssues_ServesFreshCache(t *testing.T) {
	t.Parallel()

	f := newCachedFixture(t, nil)
	ctx := context.Background()

	first, err := f.cached.SearchIssues(ctx, "project = PROJ")
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if first.Source != cache.SourceNetwork {
		t.Errorf("first Source = %v, want %v", first.Source, cache.SourceNetwork)
	}

	second, err := f.cached.SearchIssues(ctx, "  PROJECT = proj ") // same query, different spelling
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if second.Source != cache.SourceCacheFresh {
		t.Errorf("second Source = %v, want %v", second.Source, cache.SourceCacheFresh)
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("server fetches = %d, want 1", got)
	}
	if len(second.Value) != 1 || second.Value[0].Key != "PROJ-1" {
		t.Errorf("cached result = %+v", second.Value)
	}
}

func TestCachedClient_SearchIssues_RefreshesIncrementally(t *testing.T) {
	t.Parallel()

	f := newCachedFixture(t, nil)
	ctx := context.Background()

	if _, err := f.cached.SearchIssues(ctx, "project = PROJ"); err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}

	*f.clock = f.clock.Add(10 * time.Minute)

	res, err := f.cached.SearchIssues(ctx, "project = PROJ")
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if res.Source != cache.SourceNetwork {
		t.Errorf("Source after stale refresh = %v, want %v", res.Source, cache.SourceNetwork)
	}

	jql, _ := f.lastJQL.Load().(string)
	want := "(project = PROJ) AND updated > '2025-01-01 10:00' ORDER BY updated DESC"
	if jql != want {
		t.Errorf("incremental JQL = %q, want %q", jql, want)
	}
}

func TestCachedClient_SearchIssues_OfflineFallback(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	f := newCachedFixture(t, &fail)
	ctx := context.Background()

	if _, err := f.cached.SearchIssues(ctx, "project = PROJ"); err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}

	*f.clock = f.clock.Add(10 * time.Minute)
	fail.Store(true)

	res, err := f.cached.SearchIssues(ctx, "project = PROJ")
	if err != nil {
		t.Fatalf("SearchIssues() with dead server error = %v, want offline fallback", err)
	}
	if res.Source != cache.SourceOffline {
		t.Errorf("Source = %v, want %v", res.Source, cache.SourceOffline)
	}
	if len(res.Value) != 1 || res.Value[0].Key != "PROJ-1" {
		t.Errorf("offline result = %+v, want the cached issue", res.Value)
	}
}

func TestCachedClient_SearchIssues_ColdMissPropagatesError(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	f := newCachedFixture(t, &fail)

	_, err := f.cached.SearchIssues(context.Background(), "project = PROJ")
	if err == nil {
		t.Fatal("SearchIssues() on cold miss with dead server: error = nil, want error")
	}
}

func TestCachedClient_Issue_RoundTrip(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var fetches atomic.Int64
	mux.HandleFunc("/rest/api/2/issue/PROJ-9", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, `{"key": "PROJ-9", "fields": {"summary": "detail", "status": {"name": "Done"}, "updated": "2025-02-01T08:00:00.000+0000"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	layer := cache.NewLayer(store)
	cached := NewCachedClient(NewClient(Config{BaseURL: srv.URL, User: "u", Password: "p"}), layer, store)

	ctx := context.Background()
	first, err := cached.Issue(ctx, "PROJ-9")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	second, err := cached.Issue(ctx, "PROJ-9")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if fetches.Load() != 1 {
		t.Errorf("server fetches = %d, want 1", fetches.Load())
	}
	if second.Source != cache.SourceCacheFresh {
		t.Errorf("second Source = %v, want %v", second.Source, cache.SourceCacheFresh)
	}
	if !reflect.DeepEqual(second.Value, first.Value) {
		t.Errorf("cached issue = %+v, want %+v", second.Value, first.Value)
	}
}

func TestIncrementalJQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		base  string
		since string
		want  string
	}{
		{
			name:  "base query gets wrapped",
			base:  "project = PROJ",
			since: "2025-01-15T10:30:00.000+0000",
			want:  "(project = PROJ) AND updated > '2025-01-15 10:30' ORDER BY updated DESC",
		},
		{
			name:  "empty base is just the updated clause",
			base:  "",
			since: "2025-01-15T10:30:00.000+0000",
			want:  "updated > '2025-01-15 10:30'",
		},
		{
			name:  "unparseable mark falls back to the full query",
			base:  "project = PROJ",
			since: "not-a-timestamp",
			want:  "project = PROJ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := incrementalJQL(tt.base, tt.since); got != tt.want {
				t.Errorf("incrementalJQL(%q, %q) = %q, want %q", tt.base, tt.since, got, tt.want)
			}
		})
	}
}

func TestCacheableContracts(t *testing.T) {
	t.Parallel()

	issue := IssueSummary{Key: "PROJ-3", Updated: "2025-01-01T00:00:00.000+0000"}
	if issue.CacheKey() != "PROJ-3" || issue.EntityType() != "issue_summary" {
		t.Errorf("IssueSummary contract = %q/%q", issue.CacheKey(), issue.EntityType())
	}

	board := Board{ID: 42}
	if board.CacheKey() != "42" || board.UpdatedAt() != "" || board.EntityType() != "board" {
		t.Errorf("Board contract = %q/%q/%q", board.CacheKey(), board.UpdatedAt(), board.EntityType())
	}

	// EntityType must work on a nil pointer: the cache layer calls it
	// on the zero value of the type parameter.
	var nilIssue *Issue
	if nilIssue.EntityType() != "issue" {
		t.Errorf("(*Issue)(nil).EntityType() = %q, want %q", nilIssue.EntityType(), "issue")
	}
}

func TestCachedClient_Epics_ServesFreshCache(t *testing.T) {
	t.Parallel()

	f := newCachedFixture(t, nil)
	ctx := context.Background()

	first, err := f.cached.Epics(ctx, "PROJ")
	if err != nil {
		t.Fatalf("Epics() error: %v", err)
	}
	if first.Source != cache.SourceNetwork {
		t.Errorf("first Source = %v, want %v", first.Source, cache.SourceNetwork)
	}
	gotJQL, _ := f.lastJQL.Load().(string)
	if want := "project = PROJ AND issuetype = Epic ORDER BY updated DESC"; gotJQL != want {
		t.Errorf("epics jql = %q, want %q", gotJQL, want)
	}

	second, err := f.cached.Epics(ctx, "PROJ")
	if err != nil {
		t.Fatalf("Epics() error: %v", err)
	}
	if second.Source != cache.SourceCacheFresh {
		t.Errorf("second Source = %v, want %v", second.Source, cache.SourceCacheFresh)
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("server fetches = %d, want 1", got)
	}
}

func TestCachedClient_EpicIssues_ServesFreshCache(t *testing.T) {
	t.Parallel()

	f := newCachedFixture(t, nil)
	ctx := context.Background()

	first, err := f.cached.EpicIssues(ctx, "PROJ-100")
	if err != nil {
		t.Fatalf("EpicIssues() error: %v", err)
	}
	if first.Source != cache.SourceNetwork {
		t.Errorf("first Source = %v, want %v", first.Source, cache.SourceNetwork)
	}
	gotJQL, _ := f.lastJQL.Load().(string)
	if want := `"Epic Link" = PROJ-100 ORDER BY updated DESC`; gotJQL != want {
		t.Errorf("epic issues jql = %q, want %q", gotJQL, want)
	}

	second, err := f.cached.EpicIssues(ctx, "PROJ-100")
	if err != nil {
		t.Fatalf("EpicIssues() error: %v", err)
	}
	if second.Source != cache.SourceCacheFresh {
		t.Errorf("second Source = %v, want %v", second.Source, cache.SourceCacheFresh)
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("server fetches = %d, want 1", got)
	}
}
