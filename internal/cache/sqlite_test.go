package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(key, updated, data string) Record {
	return Record{Key: key, Updated: updated, Data: []byte(data)}
}

func TestSQLite_QueryResultRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	records := []Record{
		record("PROJ-2", "2025-01-02 10:00:00", `{"id":"PROJ-2"}`),
		record("PROJ-1", "2025-01-03 09:00:00", `{"id":"PROJ-1"}`),
		record("PROJ-3", "", `{"id":"PROJ-3"}`),
	}
	if err := s.StoreQueryResult(ctx, "q1", "test query", "issue", records, "2025-01-03 09:00:00"); err != nil {
		t.Fatalf("StoreQueryResult() error: %v", err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQueryResult() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetQueryResult() = nil, want a hit")
	}
	if got.MaxUpdated != "2025-01-03 09:00:00" {
		t.Errorf("MaxUpdated = %q, want %q", got.MaxUpdated, "2025-01-03 09:00:00")
	}
	if got.CachedAt.IsZero() {
		t.Error("CachedAt is zero")
	}
	if len(got.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(got.Records))
	}
	// Stored order is preserved, independent of updated_at.
	for i, want := range []string{"PROJ-2", "PROJ-1", "PROJ-3"} {
		if got.Records[i].Key != want {
			t.Errorf("position %d = %q, want %q", i, got.Records[i].Key, want)
		}
	}
	if string(got.Records[0].Data) != `{"id":"PROJ-2"}` {
		t.Errorf("payload = %s", got.Records[0].Data)
	}
	if got.Records[2].Updated != "" {
		t.Errorf("empty updated_at came back as %q", got.Records[2].Updated)
	}
}

func TestSQLite_GetQueryResult_Miss(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	got, err := s.GetQueryResult(context.Background(), "never-stored")
	if err != nil {
		t.Fatalf("GetQueryResult() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetQueryResult() = %+v, want nil miss", got)
	}
}

func TestSQLite_StoreQueryResult_ReplacesWholesale(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	first := []Record{record("A", "", `{}`), record("B", "", `{}`)}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", first, ""); err != nil {
		t.Fatal(err)
	}
	second := []Record{record("C", "", `{}`)}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", second, ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 1 || got.Records[0].Key != "C" {
		t.Errorf("records after replace = %+v, want just C", got.Records)
	}

	// The old entities survive the membership replace; only the query's
	// row list is rebuilt.
	entity, _, err := s.GetEntity(ctx, "issue", "A")
	if err != nil {
		t.Fatal(err)
	}
	if entity == nil {
		t.Error("entity A deleted by a query replace, want it kept")
	}
}

func TestSQLite_MergeQueryResult_PrependsNewEntities(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	existing := []Record{record("A", "2025-01-01 08:00:00", `{"v":1}`)}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", existing, "2025-01-01 08:00:00"); err != nil {
		t.Fatal(err)
	}

	// Two new entities, deliberately out of recency order.
	delta := []Record{
		record("B", "2025-01-01 09:00:00", `{"v":1}`),
		record("C", "2025-01-01 10:00:00", `{"v":1}`),
	}
	if err := s.MergeQueryResult(ctx, "q1", "test", "issue", delta, "2025-01-01 10:00:00"); err != nil {
		t.Fatalf("MergeQueryResult() error: %v", err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"C", "B", "A"} { // newest prepended first
		if got.Records[i].Key != want {
			t.Errorf("position %d = %q, want %q", i, got.Records[i].Key, want)
		}
	}
	if got.MaxUpdated != "2025-01-01 10:00:00" {
		t.Errorf("MaxUpdated = %q, want the delta's newer mark", got.MaxUpdated)
	}
}

func TestSQLite_MergeQueryResult_UpdatesInPlace(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	existing := []Record{
		record("A", "2025-01-01 08:00:00", `{"v":1}`),
		record("B", "2025-01-01 07:00:00", `{"v":1}`),
	}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", existing, "2025-01-01 08:00:00"); err != nil {
		t.Fatal(err)
	}

	delta := []Record{record("A", "2025-01-01 09:00:00", `{"v":2}`)}
	if err := s.MergeQueryResult(ctx, "q1", "test", "issue", delta, "2025-01-01 09:00:00"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(got.Records))
	}
	if got.Records[0].Key != "A" || got.Records[1].Key != "B" {
		t.Errorf("order = [%s %s], want [A B] (update keeps position)",
			got.Records[0].Key, got.Records[1].Key)
	}
	if string(got.Records[0].Data) != `{"v":2}` {
		t.Errorf("A's payload = %s, want the merged update", got.Records[0].Data)
	}
}

func TestSQLite_MergeQueryResult_KeepsLargerMark(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	if err := s.StoreQueryResult(ctx, "q1", "test", "issue",
		[]Record{record("A", "2025-01-02 00:00:00", `{}`)}, "2025-01-02 00:00:00"); err != nil {
		t.Fatal(err)
	}
	// A delta carrying an older mark must not move the high-water mark
	// backwards.
	if err := s.MergeQueryResult(ctx, "q1", "test", "issue",
		[]Record{record("B", "2025-01-01 00:00:00", `{}`)}, "2025-01-01 00:00:00"); err != nil {
		t.Fatal(err)
	}

	mark, err := s.GetMaxUpdated(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if mark != "2025-01-02 00:00:00" {
		t.Errorf("GetMaxUpdated() = %q, want the older, larger mark kept", mark)
	}
}

func TestSQLite_MergeQueryResult_WithoutExistingStores(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	if err := s.MergeQueryResult(ctx, "q1", "test", "issue",
		[]Record{record("A", "", `{}`)}, ""); err != nil {
		t.Fatalf("MergeQueryResult() on empty error: %v", err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got.Records) != 1 || got.Records[0].Key != "A" {
		t.Errorf("merge into empty = %+v, want stored result [A]", got)
	}
}

func TestSQLite_GetMaxUpdated_Miss(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	mark, err := s.GetMaxUpdated(context.Background(), "never-stored")
	if err != nil {
		t.Fatalf("GetMaxUpdated() error: %v", err)
	}
	if mark != "" {
		t.Errorf("GetMaxUpdated() = %q, want empty on miss", mark)
	}
}

func TestSQLite_EntityRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	if err := s.StoreEntity(ctx, "issue", record("PROJ-1", "2025-01-01 00:00:00", `{"v":1}`)); err != nil {
		t.Fatalf("StoreEntity() error: %v", err)
	}

	got, cachedAt, err := s.GetEntity(ctx, "issue", "PROJ-1")
	if err != nil {
		t.Fatalf("GetEntity() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetEntity() = nil, want a hit")
	}
	if string(got.Data) != `{"v":1}` || got.Updated != "2025-01-01 00:00:00" {
		t.Errorf("GetEntity() = %+v", got)
	}
	if cachedAt.IsZero() {
		t.Error("cachedAt is zero")
	}

	// Upsert replaces in place.
	if err := s.StoreEntity(ctx, "issue", record("PROJ-1", "2025-01-02 00:00:00", `{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	got, _, err = s.GetEntity(ctx, "issue", "PROJ-1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != `{"v":2}` {
		t.Errorf("payload after upsert = %s, want v2", got.Data)
	}

	// Same key under another entity type is a different row.
	other, _, err := s.GetEntity(ctx, "board", "PROJ-1")
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Errorf("GetEntity(board, PROJ-1) = %+v, want miss", other)
	}
}

func TestSQLite_GetQueryResult_SkipsVanishedEntities(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	records := []Record{record("A", "", `{}`), record("B", "", `{}`)}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", records, ""); err != nil {
		t.Fatal(err)
	}

	// Simulate a corrupt or manually vacuumed entity row.
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM entity_cache WHERE entity_key = 'A'`); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQueryResult() error: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].Key != "B" {
		t.Errorf("records = %+v, want the surviving entity only", got.Records)
	}
}

func TestSQLite_CachedAtBumpsOnRestore(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	records := []Record{record("A", "", `{}`)}
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", records, ""); err != nil {
		t.Fatal(err)
	}

	now = now.Add(10 * time.Minute)
	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", records, ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)
	if !got.CachedAt.Equal(want) {
		t.Errorf("CachedAt = %v, want %v (bumped by the re-store)", got.CachedAt, want)
	}
}

func TestSQLite_ClearAndStats(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	if err := s.StoreQueryResult(ctx, "q1", "test", "issue",
		[]Record{record("A", "", `{}`), record("B", "", `{}`)}, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreEntity(ctx, "board", record("1", "", `{}`)); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Entities["issue"] != 2 || stats.Entities["board"] != 1 {
		t.Errorf("Stats().Entities = %v", stats.Entities)
	}
	if stats.Queries != 1 {
		t.Errorf("Stats().Queries = %d, want 1", stats.Queries)
	}
	if stats.Size <= 0 {
		t.Errorf("Stats().Size = %d, want > 0", stats.Size)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Entities) != 0 || stats.Queries != 0 {
		t.Errorf("Stats() after Clear = %+v, want empty", stats)
	}
}

func TestNoop_MissesAndDiscards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var s Noop

	if err := s.StoreQueryResult(ctx, "q1", "test", "issue", []Record{record("A", "", `{}`)}, ""); err != nil {
		t.Fatalf("StoreQueryResult() error: %v", err)
	}
	got, err := s.GetQueryResult(ctx, "q1")
	if err != nil || got != nil {
		t.Errorf("GetQueryResult() = %+v, %v, want nil miss", got, err)
	}

	if err := s.StoreEntity(ctx, "issue", record("A", "", `{}`)); err != nil {
		t.Fatal(err)
	}
	rec, _, err := s.GetEntity(ctx, "issue", "A")
	if err != nil || rec != nil {
		t.Errorf("GetEntity() = %+v, %v, want nil miss", rec, err)
	}

	mark, err := s.GetMaxUpdated(ctx, "q1")
	if err != nil || mark != "" {
		t.Errorf("GetMaxUpdated() = %q, %v, want empty miss", mark, err)
	}
}

func TestSQLite_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	s := openTestStorage(t)
	ctx := context.Background()

	// Several background fetches writing distinct query keys at once must
	// all succeed; none may fail with SQLITE_BUSY.
	const (
		writers = 4
		rounds  = 50
	)
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				key := fmt.Sprintf("q-%d-%d", w, i)
				recs := []Record{record(fmt.Sprintf("PROJ-%d", w*rounds+i), "2025-01-01 00:00:00", `{}`)}
				if err := s.StoreQueryResult(ctx, key, "concurrent", "issue", recs, ""); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("StoreQueryResult() error: %v", err)
	}

	got, err := s.GetQueryResult(ctx, "q-0-0")
	if err != nil {
		t.Fatalf("GetQueryResult() error: %v", err)
	}
	if got == nil || len(got.Records) != 1 {
		t.Fatalf("GetQueryResult() = %+v, want one record", got)
	}
}
