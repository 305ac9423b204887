package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"academy/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestTimedDB_RecordsEachCall(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, DialectSQLite, collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	if collector.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", collector.TotalRecorded())
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	labels := map[string]bool{}
	for _, s := range snap.SlowestQueries {
		labels[s.Path] = true
	}
	for _, want := range []string{"INSERT test", "SELECT test"} {
		if !labels[want] {
			t.Errorf("missing label %q in %v", want, labels)
		}
	}
}

func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, DialectSQLite, collector, 0)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL")
	}
	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "missing").Scan(&val)
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2 (errors are timed too)", collector.TotalRecorded())
	}
}

func TestTimedDB_CancelledContext(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, DialectSQLite, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestTimedDB_RawDBAndDialect(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, DialectPostgres, nil, time.Second)
	if tdb.RawDB() != db {
		t.Error("RawDB should return the wrapped *sql.DB")
	}
	if tdb.Rebind("a = ?") != "a = $1" {
		t.Errorf("Rebind = %q", tdb.Rebind("a = ?"))
	}
}

func TestQueryLabel(t *testing.T) {
	tests := map[string]string{
		"SELECT a FROM console_session WHERE id = ?":       "SELECT console_session",
		"\n\t\tINSERT INTO console_session (id) VALUES (?)": "INSERT console_session",
		"DELETE FROM console_session WHERE expires_at < ?":  "DELETE console_session",
		"UPDATE console_session SET x = ?":                  "UPDATE console_session",
		"BEGIN":                                             "BEGIN",
		"":                                                  "EMPTY",
	}
	for in, want := range tests {
		if got := queryLabel(in); got != want {
			t.Errorf("queryLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimedDB_ConcurrentMixedOps(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(db, DialectSQLite, collector, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = tdb.ExecContext(ctx, "INSERT OR REPLACE INTO test (id, val) VALUES (?, ?)", string(rune('a'+n)), "v")
			var c int
			_ = tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&c)
		}(i)
	}
	wg.Wait()
	if collector.TotalRecorded() != 40 {
		t.Errorf("TotalRecorded = %d, want 40", collector.TotalRecorded())
	}
}
