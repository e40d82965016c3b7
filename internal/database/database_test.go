package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "memory.db")
	db, err := Open(ctx, SQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db, SQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Second run is a no-op.
	if err := Migrate(ctx, db, SQLite); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("applied migrations = %d, want 1", n)
	}
	if _, err := db.Exec(`INSERT INTO scores (seconds, created_ms) VALUES (42, 1)`); err != nil {
		t.Fatalf("scores table missing: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := Migrate(ctx, db, "postgres"); err == nil {
		t.Fatal("expected error for missing migrations")
	}
}

func TestSplitStatements(t *testing.T) {
	src := "-- header\nCREATE TABLE a (x INT);\n\n-- next\nCREATE INDEX i ON a (x);\n"
	got := splitStatements(src)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[1] != "CREATE INDEX i ON a (x)" {
		t.Errorf("second = %q", got[1])
	}
}
