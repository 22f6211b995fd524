package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openBareDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func TestMigrateFSAppliesOnce(t *testing.T) {
	t.Parallel()
	db := openBareDB(t)
	fsys := fstest.MapFS{
		"002_more.sql":   {Data: []byte("CREATE TABLE b(id INTEGER);")},
		"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a(id INTEGER);\n-- +migrate Down\nDROP TABLE a;")},
		"README.md":      {Data: []byte("not a migration")},
	}
	for i := 0; i < 2; i++ {
		if err := MigrateFS(context.Background(), db, fsys); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 2 {
		t.Fatalf("recorded migrations = %d, want 2", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('a','b')"); n != 2 {
		t.Fatalf("tables created = %d, want 2", n)
	}
}

func TestMigrateFSDoesNotRecordFailure(t *testing.T) {
	t.Parallel()
	db := openBareDB(t)
	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("CREAT TABLE a(id INTEGER);")}}
	if err := MigrateFS(context.Background(), db, bad); err == nil {
		t.Fatal("bad migration applied")
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 0 {
		t.Fatalf("failed migration recorded: %d rows", n)
	}

	good := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE a(id INTEGER);")}}
	if err := MigrateFS(context.Background(), db, good); err != nil {
		t.Fatalf("fixed migration: %v", err)
	}
}

func TestUpSection(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"CREATE TABLE x(a);":                           "CREATE TABLE x(a);",
		"-- +migrate Up\nUP;\n-- +migrate Down\nDOWN;": "\nUP;\n",
		"-- header\n-- +migrate Up\nUP;":               "\nUP;",
	}
	for in, want := range cases {
		if got := upSection(in); got != want {
			t.Errorf("upSection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrationsCreateSchema(t *testing.T) {
	t.Parallel()
	db := openTempDB(t)
	for _, table := range []string{"daily_words", "daily_results", "game_states", "player_stats", "valid_words"} {
		q := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='" + table + "'"
		if countRows(t, db, q) != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}
