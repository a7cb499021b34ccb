// Package memdb provides a reduced database handle for ephemeral and
// shared-memory databases. Its mutating convenience methods are
// fire-and-forget: driver failures are logged, not returned, so callers get
// no programmatic failure signal outside of Query. Use pkg/sqlite directly
// when errors must be observable.
package memdb

import (
	"context"
	"fmt"
	"log/slog"

	"sqlitekit/internal/platform/logger"
	"sqlitekit/pkg/sqlite"
)

// Option customizes a handle.
type Option func(*DB)

// WithLogger sets the logger the fire-and-forget methods report through.
func WithLogger(l *slog.Logger) Option {
	return func(m *DB) { m.log = l }
}

// DB is a handle to an in-memory database.
type DB struct {
	db  *sqlite.DB
	log *slog.Logger
}

// New opens a private in-memory database.
func New(ctx context.Context, opts ...Option) (*DB, error) {
	return open(ctx, ":memory:", opts)
}

// NewShared opens (or attaches to) a named shared-cache in-memory database.
// Handles opened with the same name see the same data for as long as at
// least one of them stays open.
func NewShared(ctx context.Context, name string, opts ...Option) (*DB, error) {
	if name == "" {
		return nil, fmt.Errorf("memdb: shared database name required")
	}
	return open(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), opts)
}

func open(ctx context.Context, path string, opts []Option) (*DB, error) {
	dbOpts := sqlite.DefaultOptions()
	dbOpts.WALMode = false // not supported for in-memory databases
	// The database lives and dies with its connection: never recycle it.
	dbOpts.ConnMaxLifetime = 0
	dbOpts.ConnMaxIdleTime = 0

	db, err := sqlite.OpenWithOptions(ctx, path, dbOpts)
	if err != nil {
		return nil, err
	}

	m := &DB{db: db}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.New(logger.Options{App: "memdb"})
	}
	return m, nil
}

// Handle exposes the underlying database handle for operations this
// variant does not cover.
func (m *DB) Handle() *sqlite.DB {
	return m.db
}

// CreateTable creates a table, logging instead of returning on failure.
func (m *DB) CreateTable(ctx context.Context, table, schema string) {
	if err := m.db.CreateTable(ctx, table, schema); err != nil {
		m.log.Error("create table failed", "table", table, "error", err)
	}
}

// Insert adds a row, logging instead of returning on failure.
func (m *DB) Insert(ctx context.Context, table string, row sqlite.Row) {
	if _, err := m.db.Insert(ctx, table, row); err != nil {
		m.log.Error("insert failed", "table", table, "error", err)
	}
}

// Update modifies the row identified by id, logging instead of returning
// on failure.
func (m *DB) Update(ctx context.Context, table string, row sqlite.Row, id string) {
	if _, err := m.db.Update(ctx, table, row, id); err != nil {
		m.log.Error("update failed", "table", table, "id", id, "error", err)
	}
}

// Delete removes the rows in the comma-separated id list, logging instead
// of returning on failure.
func (m *DB) Delete(ctx context.Context, id, table string) {
	if _, err := m.db.Delete(ctx, id, table); err != nil {
		m.log.Error("delete failed", "table", table, "id", id, "error", err)
	}
}

// Query returns all matching rows. This is the only data operation with an
// error channel.
func (m *DB) Query(ctx context.Context, query string, args ...any) ([]sqlite.Row, error) {
	return m.db.All(ctx, query, args...)
}

// Close releases the connection once the driver confirms closure, dropping
// the database contents. A close failure is logged and the connection stays
// attached.
func (m *DB) Close() {
	if err := m.db.Close(); err != nil {
		m.log.Error("close failed", "error", err)
	}
}
