package sqlite

import (
	"context"
	"os"
	"testing"
)

// TestDB wraps an open handle with helpers for tests.
type TestDB struct {
	DB   *DB
	Path string // database file path, ":memory:" for in-memory
}

// NewTestDBInMemory opens an in-memory database for a test.
// The handle is closed automatically when the test finishes.
func NewTestDBInMemory(t *testing.T) *TestDB {
	t.Helper()

	opts := DefaultOptions()
	opts.WALMode = false // not supported for in-memory databases
	// The database lives and dies with its connection: never recycle it.
	opts.ConnMaxLifetime = 0
	opts.ConnMaxIdleTime = 0

	db, err := OpenWithOptions(context.Background(), ":memory:", opts)
	if err != nil {
		t.Fatalf("Failed to open in-memory test DB: %v", err)
	}

	t.Cleanup(func() {
		if db.IsOpen() {
			_ = db.Close()
		}
	})

	return &TestDB{DB: db, Path: ":memory:"}
}

// NewTestDBFile opens a file-backed database in a temporary directory.
// The file lives in t.TempDir, so it is removed when the test finishes.
func NewTestDBFile(t *testing.T) *TestDB {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "test_db_*.sqlite")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	path := tmpFile.Name()
	_ = tmpFile.Close() // work through the handle from here on

	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to open file test DB: %v", err)
	}

	t.Cleanup(func() {
		if db.IsOpen() {
			_ = db.Close()
		}
	})

	return &TestDB{DB: db, Path: path}
}

// Exec runs a statement and fails the test on error.
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) RunResult {
	t.Helper()

	res, err := tdb.DB.Run(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("Failed to execute query: %v", err)
	}
	return res
}

// MustSeedData runs the given statements and fails the test on error.
func (tdb *TestDB) MustSeedData(t *testing.T, queries ...string) {
	t.Helper()

	for _, query := range queries {
		tdb.Exec(t, query)
	}
}

// CountRows returns the number of rows in a table.
func (tdb *TestDB) CountRows(t *testing.T, tableName string) int {
	t.Helper()

	row, err := tdb.DB.Get(context.Background(), "SELECT COUNT(*) AS count FROM "+tableName)
	if err != nil {
		t.Fatalf("Failed to count rows in table %s: %v", tableName, err)
	}
	return int(row["count"].(int64))
}

// TableExists reports whether a table is present in the schema.
func (tdb *TestDB) TableExists(t *testing.T, tableName string) bool {
	t.Helper()

	row, err := tdb.DB.Get(context.Background(),
		"SELECT COUNT(*) AS count FROM sqlite_master WHERE type='table' AND name=?", tableName)
	if err != nil {
		t.Fatalf("Failed to check table existence: %v", err)
	}
	return row["count"].(int64) > 0
}
