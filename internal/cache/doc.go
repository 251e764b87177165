// Package cache is jt's offline-first store for server data.
//
// It has two halves: a [Storage] that persists serialized entities and
// ordered query results (SQLite on disk, or [Noop] when caching is
// off), and a [Layer] that decides when to serve the cache and when to
// hit the network.
//
// # Entities and Queries
//
// Anything stored implements [Cacheable]: a key unique within its
// entity type, an optional server-side updated timestamp, and a
// type-level entity type. Entities are stored once in entity_cache and
// shared between query results, so an issue fetched via a board and
// via a JQL search is one row.
//
// Query results are ordered key lists under a hashed query key (see
// [QueryKey]) with a description for debugging, a cached-at stamp, and
// the largest updated timestamp in the result (the high-water mark).
//
// # Fetch Policies
//
//   - [FetchList]: serve cache while fresh; otherwise fetch and replace.
//   - [FetchIncremental]: serve cache while fresh; otherwise fetch only
//     entities changed since the high-water mark and merge them in.
//   - [FetchOne]: the same, for a single entity.
//
// Every result carries a [Source]: network, fresh cache, or offline
// (the fetch failed and stale cache was served instead). Offline is
// what makes jt usable on a train: a dead network serves the last
// good result instead of an error, as long as one exists.
//
// # Failure Handling
//
// Storage read errors are logged and treated as a miss, so a corrupted
// database heals itself on the next successful fetch. Storage write
// errors fail the fetch. Fetcher errors are swallowed only when stale
// cache exists to fall back on.
//
// # Concurrency
//
// The layer coalesces concurrent fetches per query key with
// singleflight; the SQLite backend serializes writers via WAL and a
// busy timeout, and performs merges in a single transaction.
package cache
