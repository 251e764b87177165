package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryKey builds a stable cache key from namespaced query parts, e.g.
// QueryKey("board_issues", "42", jql). Parts are joined with ':' and
// hashed so arbitrary JQL can't collide with other namespaces or blow
// up key length.
func QueryKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}
