package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/raphi011/jt/internal/log"
)

// DefaultStaleTime is how long a cached result counts as fresh.
const DefaultStaleTime = 5 * time.Minute

// Layer ties a Storage to the staleness and offline-fallback policies.
//
// Storage read errors never fail a fetch: they degrade to a cache miss
// and the next successful store heals the cache. Storage write errors
// do fail the fetch, so callers never believe data was cached when it
// wasn't.
type Layer struct {
	storage   Storage
	staleTime time.Duration
	now       func() time.Time
	group     singleflight.Group
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithStaleTime sets how long cached results count as fresh.
func WithStaleTime(d time.Duration) LayerOption {
	return func(l *Layer) { l.staleTime = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) LayerOption {
	return func(l *Layer) { l.now = now }
}

// NewLayer creates a cache layer over storage.
func NewLayer(storage Storage, opts ...LayerOption) *Layer {
	l := &Layer{storage: storage, staleTime: DefaultStaleTime, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// fresh reports whether cachedAt is still within the stale window. An
// entry aged exactly staleTime counts as fresh.
func (l *Layer) fresh(cachedAt time.Time) bool {
	return l.now().Sub(cachedAt) <= l.staleTime
}

// writeError marks a failed persist of fetched data. The offline
// fallback never masks it: the network fetch succeeded but the cache
// didn't, and serving stale data would hide a broken cache.
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// readQuery reads a cached query result, degrading storage errors to a
// miss.
func (l *Layer) readQuery(ctx context.Context, queryKey string) *QueryResult {
	cached, err := l.storage.GetQueryResult(ctx, queryKey)
	if err != nil {
		log.FromContext(ctx).Debug("cache read failed, treating as miss", "query", queryKey, "err", err)
		return nil
	}
	return cached
}

// FetchList returns the entities for queryKey, serving from cache while
// fresh and calling fetch otherwise. A successful fetch replaces the
// cached result. When fetch fails and a cached copy exists, the cached
// copy is returned with SourceOffline instead of an error; without one
// the error propagates. Concurrent calls for the same queryKey share a
// single fetch.
func FetchList[T Cacheable](ctx context.Context, l *Layer, queryKey, description string, fetch func(context.Context) ([]T, error)) (Result[[]T], error) {
	cached := l.readQuery(ctx, queryKey)
	if cached != nil && l.fresh(cached.CachedAt) {
		return Result[[]T]{
			Value:    unmarshalRecords[T](cached.Records),
			Source:   SourceCacheFresh,
			CachedAt: cached.CachedAt,
		}, nil
	}

	v, err, _ := l.group.Do(queryKey, func() (any, error) {
		entities, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		records, err := marshalRecords(entities)
		if err != nil {
			return nil, &writeError{err: err}
		}
		if err := l.storage.StoreQueryResult(ctx, queryKey, description, entityType[T](), records, maxUpdatedOf(records)); err != nil {
			return nil, &writeError{err: fmt.Errorf("caching %s: %w", description, err)}
		}
		return entities, nil
	})
	if err != nil {
		return listFallback[T](ctx, cached, description, err)
	}

	return Result[[]T]{Value: v.([]T), Source: SourceNetwork}, nil
}

// FetchIncremental is FetchList for queries whose fetcher can return
// just the entities changed since a high-water mark. On refresh the
// delta is merged into the cached result instead of replacing it:
// changed entities keep their position, new ones are prepended. An
// empty delta re-stamps the cached result as fresh without refetching
// its contents.
func FetchIncremental[T Cacheable](ctx context.Context, l *Layer, queryKey, description string, fetch func(ctx context.Context, since string) ([]T, error)) (Result[[]T], error) {
	cached := l.readQuery(ctx, queryKey)
	if cached != nil && l.fresh(cached.CachedAt) {
		return Result[[]T]{
			Value:    unmarshalRecords[T](cached.Records),
			Source:   SourceCacheFresh,
			CachedAt: cached.CachedAt,
		}, nil
	}

	v, err, _ := l.group.Do(queryKey, func() (any, error) {
		if cached == nil {
			// Nothing to merge into: full fetch, full store.
			entities, err := fetch(ctx, "")
			if err != nil {
				return nil, err
			}
			records, err := marshalRecords(entities)
			if err != nil {
				return nil, &writeError{err: err}
			}
			if err := l.storage.StoreQueryResult(ctx, queryKey, description, entityType[T](), records, maxUpdatedOf(records)); err != nil {
				return nil, &writeError{err: fmt.Errorf("caching %s: %w", description, err)}
			}
			return Result[[]T]{Value: entities, Source: SourceNetwork}, nil
		}

		since, err := l.storage.GetMaxUpdated(ctx, queryKey)
		if err != nil {
			log.FromContext(ctx).Debug("high-water mark read failed", "query", queryKey, "err", err)
			since = ""
		}

		delta, err := fetch(ctx, since)
		if err != nil {
			return nil, err
		}

		if len(delta) == 0 {
			// Nothing changed server-side. Re-store the cached set so
			// cached_at moves forward and the next read is fresh again.
			if err := l.storage.StoreQueryResult(ctx, queryKey, description, entityType[T](), cached.Records, cached.MaxUpdated); err != nil {
				return nil, &writeError{err: fmt.Errorf("refreshing %s: %w", description, err)}
			}
			return Result[[]T]{
				Value:    unmarshalRecords[T](cached.Records),
				Source:   SourceCacheFresh,
				CachedAt: l.now(),
			}, nil
		}

		records, err := marshalRecords(delta)
		if err != nil {
			return nil, &writeError{err: err}
		}
		if err := l.storage.MergeQueryResult(ctx, queryKey, description, entityType[T](), records, maxUpdatedOf(records)); err != nil {
			return nil, &writeError{err: fmt.Errorf("caching %s: %w", description, err)}
		}

		merged, err := l.storage.GetQueryResult(ctx, queryKey)
		if err != nil || merged == nil {
			// The merge landed but the read-back didn't. Hand the caller
			// the delta we do have rather than failing.
			log.FromContext(ctx).Debug("merged result read-back missed", "query", queryKey, "err", err)
			return Result[[]T]{Value: delta, Source: SourceNetwork}, nil
		}
		return Result[[]T]{Value: unmarshalRecords[T](merged.Records), Source: SourceNetwork}, nil
	})
	if err != nil {
		return listFallback[T](ctx, cached, description, err)
	}

	return v.(Result[[]T]), nil
}

// listFallback serves the stale cached result when a fetch failed, or
// propagates the error on a cold miss or failed write.
func listFallback[T Cacheable](ctx context.Context, cached *QueryResult, description string, err error) (Result[[]T], error) {
	var we *writeError
	if errors.As(err, &we) {
		return Result[[]T]{}, we.err
	}
	if cached == nil {
		return Result[[]T]{}, err
	}
	log.FromContext(ctx).Debug("fetch failed, serving cached result", "query", description, "err", err)
	return Result[[]T]{
		Value:    unmarshalRecords[T](cached.Records),
		Source:   SourceOffline,
		CachedAt: cached.CachedAt,
	}, nil
}

// FetchOne returns a single entity, cache-first, with the same
// staleness and offline rules as FetchList.
func FetchOne[T Cacheable](ctx context.Context, l *Layer, key string, fetch func(context.Context) (T, error)) (Result[T], error) {
	et := entityType[T]()

	record, cachedAt, err := l.storage.GetEntity(ctx, et, key)
	if err != nil {
		log.FromContext(ctx).Debug("cache read failed, treating as miss", "entity", key, "err", err)
		record = nil
	}

	var cachedValue *T
	if record != nil {
		var v T
		if err := json.Unmarshal(record.Data, &v); err == nil {
			cachedValue = &v
		}
	}

	if cachedValue != nil && l.fresh(cachedAt) {
		return Result[T]{Value: *cachedValue, Source: SourceCacheFresh, CachedAt: cachedAt}, nil
	}

	v, err, _ := l.group.Do(et+"\x00"+key, func() (any, error) {
		entity, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(entity)
		if err != nil {
			return nil, &writeError{err: fmt.Errorf("marshal %s %q: %w", et, key, err)}
		}
		rec := Record{Key: entity.CacheKey(), Updated: entity.UpdatedAt(), Data: data}
		if err := l.storage.StoreEntity(ctx, et, rec); err != nil {
			return nil, &writeError{err: fmt.Errorf("caching %s %q: %w", et, key, err)}
		}
		return entity, nil
	})
	if err != nil {
		var we *writeError
		if errors.As(err, &we) {
			return Result[T]{}, we.err
		}
		if cachedValue != nil {
			log.FromContext(ctx).Debug("fetch failed, serving cached entity", "entity", key, "err", err)
			return Result[T]{Value: *cachedValue, Source: SourceOffline, CachedAt: cachedAt}, nil
		}
		return Result[T]{}, err
	}

	return Result[T]{Value: v.(T), Source: SourceNetwork}, nil
}
