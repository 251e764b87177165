package cache

import (
	"context"
	"time"
)

// Storage persists serialized entities and ordered query results.
// Implementations must be safe for concurrent use.
//
// Reads signal a miss with nil results and a nil error; errors are
// reserved for the storage engine itself failing.
type Storage interface {
	// StoreQueryResult replaces the stored result for queryKey: entities
	// are upserted, the query's ordered row list is rebuilt, and the
	// query metadata (description, count, maxUpdated, cached-at) is
	// refreshed, all atomically.
	StoreQueryResult(ctx context.Context, queryKey, description, entityType string, records []Record, maxUpdated string) error

	// GetQueryResult returns the stored result in stored order, nil on miss.
	GetQueryResult(ctx context.Context, queryKey string) (*QueryResult, error)

	// MergeQueryResult folds records into the stored result atomically:
	// entities already in the result keep their position and get fresh
	// data, new entities are prepended most recently updated first, and
	// the stored maxUpdated becomes the larger of old and new. Without
	// a stored result it behaves like StoreQueryResult.
	MergeQueryResult(ctx context.Context, queryKey, description, entityType string, records []Record, maxUpdated string) error

	// GetMaxUpdated returns the stored high-water mark, "" on miss.
	GetMaxUpdated(ctx context.Context, queryKey string) (string, error)

	// StoreEntity upserts a single entity.
	StoreEntity(ctx context.Context, entityType string, record Record) error

	// GetEntity returns one entity and when it was cached, nil on miss.
	GetEntity(ctx context.Context, entityType, key string) (*Record, time.Time, error)
}

// Noop is a Storage with nothing behind it: every read misses and every
// write succeeds without storing. Used when caching is disabled, so the
// layer's fetch paths run unchanged and always hit the network.
type Noop struct{}

var _ Storage = Noop{}

func (Noop) StoreQueryResult(context.Context, string, string, string, []Record, string) error {
	return nil
}

func (Noop) GetQueryResult(context.Context, string) (*QueryResult, error) {
	return nil, nil
}

func (Noop) MergeQueryResult(context.Context, string, string, string, []Record, string) error {
	return nil
}

func (Noop) GetMaxUpdated(context.Context, string) (string, error) {
	return "", nil
}

func (Noop) StoreEntity(context.Context, string, Record) error {
	return nil
}

func (Noop) GetEntity(context.Context, string, string) (*Record, time.Time, error) {
	return nil, time.Time{}, nil
}
