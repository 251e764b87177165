package cache

import "testing"

func TestQueryKey(t *testing.T) {
	t.Parallel()

	a := QueryKey("issue_search", "project = proj")
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
	if b := QueryKey("issue_search", "project = proj"); b != a {
		t.Errorf("same input hashed to %q and %q", a, b)
	}
	if b := QueryKey("board_issues", "project = proj"); b == a {
		t.Error("different namespaces produced the same key")
	}
	if b := QueryKey("issue_search", "project = other"); b == a {
		t.Error("different queries produced the same key")
	}
}
