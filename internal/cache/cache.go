package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeFormat is how timestamps are stored: SQLite's datetime('now')
// format, always UTC. Strings in this format sort chronologically.
const TimeFormat = "2006-01-02 15:04:05"

// Cacheable is implemented by anything the cache stores.
type Cacheable interface {
	// CacheKey uniquely identifies the entity within its type.
	CacheKey() string

	// UpdatedAt is the server-side modification timestamp, "" when the
	// entity carries none. Values must sort chronologically as plain
	// strings; the cache never parses them, it only compares them and
	// hands them back to the server as a high-water mark.
	UpdatedAt() string

	// EntityType namespaces cache keys ("issue", "board"). It must be
	// constant per Go type and callable on the zero value.
	EntityType() string
}

// Source describes where fetched data came from.
type Source int

const (
	// SourceNetwork means the data was fetched from the server just now.
	SourceNetwork Source = iota
	// SourceCacheFresh means the cache served it within the stale window.
	SourceCacheFresh
	// SourceCacheStale is reserved for deliberately serving stale data.
	// No current fetch policy returns it.
	SourceCacheStale
	// SourceOffline means the fetch failed and stale cache was served instead.
	SourceOffline
)

func (s Source) String() string {
	switch s {
	case SourceNetwork:
		return "network"
	case SourceCacheFresh:
		return "cache"
	case SourceCacheStale:
		return "cache (stale)"
	case SourceOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Result is a fetched value together with its provenance.
type Result[T any] struct {
	Value  T
	Source Source
	// CachedAt is when the served cache entry was written.
	// Zero for SourceNetwork.
	CachedAt time.Time
}

// Record is one serialized entity as the storage layer sees it.
type Record struct {
	Key     string // entity cache key
	Updated string // entity UpdatedAt, "" if unknown
	Data    []byte // JSON document
}

// QueryResult is a cached, ordered query result.
type QueryResult struct {
	Records    []Record
	CachedAt   time.Time
	MaxUpdated string // largest Updated in the result, "" if unknown
}

// marshalRecords serializes entities for storage.
func marshalRecords[T Cacheable](entities []T) ([]Record, error) {
	records := make([]Record, 0, len(entities))
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %q: %w", e.EntityType(), e.CacheKey(), err)
		}
		records = append(records, Record{Key: e.CacheKey(), Updated: e.UpdatedAt(), Data: data})
	}
	return records, nil
}

// unmarshalRecords decodes records, dropping any that fail to decode.
// A row written by an older build is treated as absent rather than
// failing the whole result.
func unmarshalRecords[T any](records []Record) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// entityType returns the EntityType of T's zero value.
func entityType[T Cacheable]() string {
	var zero T
	return zero.EntityType()
}

// maxUpdatedOf returns the largest Updated among records, "" when none
// carry timestamps.
func maxUpdatedOf(records []Record) string {
	max := ""
	for _, r := range records {
		if r.Updated > max {
			max = r.Updated
		}
	}
	return max
}
