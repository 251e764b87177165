package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// schema is executed on every open. All statements are idempotent so
// opening an existing database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS entity_cache (
    entity_type TEXT NOT NULL,
    entity_key  TEXT NOT NULL,
    data        BLOB NOT NULL,
    updated_at  TEXT,
    cached_at   TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_key)
);

CREATE INDEX IF NOT EXISTS idx_entity_cache_updated
    ON entity_cache(entity_type, updated_at);

CREATE TABLE IF NOT EXISTS query_cache (
    query_hash        TEXT PRIMARY KEY,
    query_description TEXT NOT NULL,
    entity_type       TEXT NOT NULL,
    max_updated       TEXT,
    cached_at         TEXT NOT NULL,
    result_count      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS query_results (
    query_hash TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (query_hash, entity_key),
    FOREIGN KEY (query_hash) REFERENCES query_cache(query_hash)
        ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_query_results_hash
    ON query_results(query_hash);
`

// SQLite is a Storage backed by a local SQLite database.
type SQLite struct {
	sqlDB *sql.DB
	path  string
	now   func() time.Time
}

var _ Storage = (*SQLite)(nil)

// OpenSQLite opens the cache database at path, creating the file and
// schema as needed.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// SQLite allows a single writer; funnel all connections through one
	// handle so concurrent background fetches queue instead of racing
	// into SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, path: path, now: time.Now}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.sqlDB.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) timestamp() string {
	return s.now().UTC().Format(TimeFormat)
}

// StoreQueryResult replaces the stored result for queryKey in a single
// transaction.
func (s *SQLite) StoreQueryResult(ctx context.Context, queryKey, description, entityType string, records []Record, maxUpdated string) error {
	now := s.timestamp()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin store: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEntities(ctx, tx, entityType, records, now); err != nil {
		return err
	}
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	if err := writeQuery(ctx, tx, queryKey, description, entityType, keys, maxUpdated, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit store: %w", err)
	}
	return nil
}

// GetQueryResult returns the stored result for queryKey in stored
// order, or nil when the query has never been cached. Result rows whose
// entity has vanished from entity_cache are skipped.
func (s *SQLite) GetQueryResult(ctx context.Context, queryKey string) (*QueryResult, error) {
	var (
		cachedAt string
		maxU     sql.NullString
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT cached_at, max_updated FROM query_cache WHERE query_hash = ?`,
		queryKey).Scan(&cachedAt, &maxU)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT e.entity_key, COALESCE(e.updated_at, ''), e.data
		FROM query_cache q
		JOIN query_results r ON r.query_hash = q.query_hash
		JOIN entity_cache e ON e.entity_type = q.entity_type AND e.entity_key = r.entity_key
		WHERE q.query_hash = ?
		ORDER BY r.position`, queryKey)
	if err != nil {
		return nil, fmt.Errorf("read query rows: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Key, &r.Updated, &r.Data); err != nil {
			return nil, fmt.Errorf("scan query row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query rows: %w", err)
	}

	at, err := time.ParseInLocation(TimeFormat, cachedAt, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse cached_at %q: %w", cachedAt, err)
	}

	return &QueryResult{Records: records, CachedAt: at, MaxUpdated: maxU.String}, nil
}

// MergeQueryResult folds records into the stored result for queryKey.
// Read, merge, and write happen inside one transaction so concurrent
// merges cannot lose each other's rows.
func (s *SQLite) MergeQueryResult(ctx context.Context, queryKey, description, entityType string, records []Record, maxUpdated string) error {
	now := s.timestamp()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	existing, prevMax, err := readOrderedKeys(ctx, tx, queryKey)
	if err != nil {
		return err
	}

	if err := upsertEntities(ctx, tx, entityType, records, now); err != nil {
		return err
	}

	known := make(map[string]bool, len(existing))
	for _, k := range existing {
		known[k] = true
	}

	// Entities already in the result keep their position (their data was
	// refreshed above). Genuinely new ones are prepended, most recently
	// updated first, matching how the server orders fresh results.
	var fresh []Record
	for _, r := range records {
		if !known[r.Key] {
			fresh = append(fresh, r)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Updated > fresh[j].Updated })

	merged := make([]string, 0, len(fresh)+len(existing))
	for _, r := range fresh {
		merged = append(merged, r.Key)
	}
	merged = append(merged, existing...)

	newMax := maxUpdated
	if prevMax > newMax {
		newMax = prevMax
	}

	if err := writeQuery(ctx, tx, queryKey, description, entityType, merged, newMax, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// GetMaxUpdated returns the high-water mark stored for queryKey, "" when
// the query has never been cached or its entities carry no timestamps.
func (s *SQLite) GetMaxUpdated(ctx context.Context, queryKey string) (string, error) {
	var maxU sql.NullString
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT max_updated FROM query_cache WHERE query_hash = ?`,
		queryKey).Scan(&maxU)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read max_updated: %w", err)
	}
	return maxU.String, nil
}

// StoreEntity upserts a single entity.
func (s *SQLite) StoreEntity(ctx context.Context, entityType string, record Record) error {
	updated := sql.NullString{String: record.Updated, Valid: record.Updated != ""}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO entity_cache (entity_type, entity_key, data, updated_at, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_key)
		DO UPDATE SET data = excluded.data,
			updated_at = excluded.updated_at,
			cached_at = excluded.cached_at`,
		entityType, record.Key, record.Data, updated, s.timestamp())
	if err != nil {
		return fmt.Errorf("store %s %q: %w", entityType, record.Key, err)
	}
	return nil
}

// GetEntity returns one entity and when it was cached, nil on miss.
func (s *SQLite) GetEntity(ctx context.Context, entityType, key string) (*Record, time.Time, error) {
	r := Record{Key: key}
	var cachedAt string
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT COALESCE(updated_at, ''), data, cached_at
		FROM entity_cache
		WHERE entity_type = ? AND entity_key = ?`,
		entityType, key).Scan(&r.Updated, &r.Data, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s %q: %w", entityType, key, err)
	}

	at, err := time.ParseInLocation(TimeFormat, cachedAt, time.UTC)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse cached_at %q: %w", cachedAt, err)
	}
	return &r, at, nil
}

// Clear deletes every cached row.
func (s *SQLite) Clear(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM query_results`,
		`DELETE FROM query_cache`,
		`DELETE FROM entity_cache`,
	} {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// Stats describes cache contents for "jt cache stats".
type Stats struct {
	Entities map[string]int // entity type -> row count
	Queries  int
	Size     int64 // database file size in bytes
}

// Stats reports row counts per entity type, the number of cached
// queries, and the database file size.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Entities: make(map[string]int)}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT entity_type, COUNT(*) FROM entity_cache GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan entity count: %w", err)
		}
		stats.Entities[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity counts: %w", err)
	}

	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM query_cache`).Scan(&stats.Queries); err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.Size = info.Size()
	}

	return stats, nil
}

// upsertEntities writes records into entity_cache inside tx.
func upsertEntities(ctx context.Context, tx *sql.Tx, entityType string, records []Record, now string) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entity_cache (entity_type, entity_key, data, updated_at, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_key)
		DO UPDATE SET data = excluded.data,
			updated_at = excluded.updated_at,
			cached_at = excluded.cached_at`)
	if err != nil {
		return fmt.Errorf("prepare entity upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		updated := sql.NullString{String: r.Updated, Valid: r.Updated != ""}
		if _, err := stmt.ExecContext(ctx, entityType, r.Key, r.Data, updated, now); err != nil {
			return fmt.Errorf("upsert entity %q: %w", r.Key, err)
		}
	}
	return nil
}

// writeQuery rebuilds the query_cache row and ordered key list inside tx.
func writeQuery(ctx context.Context, tx *sql.Tx, queryKey, description, entityType string, keys []string, maxUpdated, now string) error {
	maxU := sql.NullString{String: maxUpdated, Valid: maxUpdated != ""}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO query_cache (query_hash, query_description, entity_type, max_updated, cached_at, result_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (query_hash)
		DO UPDATE SET query_description = excluded.query_description,
			entity_type = excluded.entity_type,
			max_updated = excluded.max_updated,
			cached_at = excluded.cached_at,
			result_count = excluded.result_count`,
		queryKey, description, entityType, maxU, now, len(keys)); err != nil {
		return fmt.Errorf("upsert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM query_results WHERE query_hash = ?`, queryKey); err != nil {
		return fmt.Errorf("clear query rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO query_results (query_hash, entity_key, position)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, key := range keys {
		if _, err := stmt.ExecContext(ctx, queryKey, key, i); err != nil {
			return fmt.Errorf("insert row %q: %w", key, err)
		}
	}
	return nil
}

// readOrderedKeys returns the stored key order and high-water mark for
// queryKey inside tx. A missing query yields nil keys.
func readOrderedKeys(ctx context.Context, tx *sql.Tx, queryKey string) ([]string, string, error) {
	var maxU sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT max_updated FROM query_cache WHERE query_hash = ?`,
		queryKey).Scan(&maxU)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read query: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT entity_key FROM query_results WHERE query_hash = ? ORDER BY position`,
		queryKey)
	if err != nil {
		return nil, "", fmt.Errorf("read query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, "", fmt.Errorf("scan query key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate query keys: %w", err)
	}
	return keys, maxU.String, nil
}
