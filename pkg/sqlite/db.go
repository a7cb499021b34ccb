package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"sqlitekit/pkg/dberr"
)

// OpenMode is the bitmask controlling how Open attaches the database file.
// The flags mirror the engine's open flags and can be combined, with the
// usual restrictions: OpenCreate requires OpenReadWrite, and OpenReadOnly
// excludes both write flags.
type OpenMode int

const (
	// OpenReadOnly opens an existing database for reading only.
	OpenReadOnly OpenMode = 0x1
	// OpenReadWrite opens an existing database for reading and writing.
	OpenReadWrite OpenMode = 0x2
	// OpenCreate creates the database file if it does not exist.
	OpenCreate OpenMode = 0x4
)

// DefaultOpenMode is used when Open is called without a mode.
const DefaultOpenMode = OpenReadWrite | OpenCreate

const openModeMask = OpenReadOnly | OpenReadWrite | OpenCreate

// accessMode is the DSN access mode the engine understands.
type accessMode string

const (
	accessModeReadOnly        accessMode = "ro"
	accessModeReadWrite       accessMode = "rw"
	accessModeReadWriteCreate accessMode = "rwc"
)

func (m OpenMode) validate() error {
	switch {
	case m == 0:
		return dberr.Wrap(dberr.ErrInvalidArgument, "open mode must not be zero")
	case m&^openModeMask != 0:
		return dberr.Wrapf(dberr.ErrInvalidArgument, "open mode %#x has unknown bits", int(m))
	case m&OpenReadOnly != 0 && m&(OpenReadWrite|OpenCreate) != 0:
		return dberr.Wrap(dberr.ErrInvalidArgument, "open mode combines read-only with write flags")
	case m&OpenCreate != 0 && m&OpenReadWrite == 0:
		return dberr.Wrap(dberr.ErrInvalidArgument, "open mode OpenCreate requires OpenReadWrite")
	}
	return nil
}

func (m OpenMode) access() accessMode {
	switch {
	case m&OpenReadOnly != 0:
		return accessModeReadOnly
	case m&OpenCreate != 0:
		return accessModeReadWriteCreate
	default:
		return accessModeReadWrite
	}
}

// RunResult carries the out-of-band execution state the engine reports for
// a mutating statement.
type RunResult struct {
	// LastID is the row id of the most recent successful insert.
	LastID int64
	// Changes is the number of rows affected by the statement.
	Changes int64
}

// DB is a handle owning zero or one connection to an SQLite database.
// A handle is created closed; Open attaches the connection and Close
// releases it. A closed handle may be re-opened.
//
// The handle adds no locking of its own: concurrent calls are safe to issue
// and the engine serializes them on the single underlying connection in
// submission order.
type DB struct {
	conn *sql.DB
	path string
	opts Options
}

// New returns a closed handle for the database at path with default options.
// Path may be ":memory:" or a file: URI.
func New(path string) *DB {
	return NewWithOptions(path, DefaultOptions())
}

// NewWithOptions returns a closed handle with the given options.
func NewWithOptions(path string, opts Options) *DB {
	return &DB{path: path, opts: opts}
}

// Open creates a handle for path and opens it in one step.
func Open(ctx context.Context, path string, mode ...OpenMode) (*DB, error) {
	db := New(path)
	if err := db.Open(ctx, mode...); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenWithOptions creates a handle with the given options and opens it.
func OpenWithOptions(ctx context.Context, path string, opts Options, mode ...OpenMode) (*DB, error) {
	db := NewWithOptions(path, opts)
	if err := db.Open(ctx, mode...); err != nil {
		return nil, err
	}
	return db, nil
}

// Open attaches the underlying connection. Mode defaults to DefaultOpenMode
// (read-write, create if missing); an invalid mode fails with
// dberr.ErrInvalidArgument and opening an already-open handle fails with
// dberr.ErrAlreadyOpen. On any failure the handle remains closed.
func (db *DB) Open(ctx context.Context, mode ...OpenMode) error {
	if db.conn != nil {
		return dberr.Wrapf(dberr.ErrAlreadyOpen, "open %s", db.path)
	}

	m := DefaultOpenMode
	if len(mode) > 0 {
		if len(mode) > 1 {
			return dberr.Wrap(dberr.ErrInvalidArgument, "open accepts at most one mode")
		}
		m = mode[0]
	}
	if err := m.validate(); err != nil {
		return err
	}

	conn, err := sql.Open("sqlite", buildDSN(db.path, m, db.opts))
	if err != nil {
		return dberr.Wrapf(dberr.Driver(err), "open %s", db.path)
	}

	// One logical connection per handle: the engine serializes statements
	// in submission order and manual transaction statements stay on the
	// connection that issued BEGIN.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(db.opts.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(db.opts.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, db.opts.PingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return dberr.Wrapf(dberr.Driver(err), "ping %s", db.path)
	}

	db.conn = conn
	return nil
}

// buildDSN renders the driver DSN for path. Pragmas ride along as _pragma
// query parameters so every physical connection the pool hands out gets
// them, not just the first one. A non-default access mode forces the
// file: URI form because the engine only honors mode= on URIs.
func buildDSN(path string, mode OpenMode, opts Options) string {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	params := make([]string, 0, 5)
	access := mode.access()
	if access != accessModeReadWriteCreate && !memory {
		params = append(params, fmt.Sprintf("mode=%s", access))
		if !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
	}

	if opts.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	// Journal pragmas write to the database, so they are skipped for
	// read-only and in-memory attachments.
	if opts.WALMode && access != accessModeReadOnly && !memory {
		params = append(params, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}

	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Path returns the database location this handle was created for.
func (db *DB) Path() string {
	return db.path
}

// IsOpen reports whether the handle currently owns a connection.
func (db *DB) IsOpen() bool {
	return db.conn != nil
}

// Close releases the underlying connection and fails with dberr.ErrNotOpen
// when there is none. If the driver reports a close failure the connection
// stays attached so the caller may retry.
func (db *DB) Close() error {
	if db.conn == nil {
		return dberr.Wrap(dberr.ErrNotOpen, "close")
	}
	if err := db.conn.Close(); err != nil {
		return dberr.Wrapf(dberr.Driver(err), "close %s", db.path)
	}
	db.conn = nil
	return nil
}

// CloseWith runs fn against the open handle and closes the connection on
// every exit path from fn, including panics. When fn fails its error is
// returned with any close failure attached; when only the close fails, the
// close error is returned.
func (db *DB) CloseWith(fn func(db *DB) error) (err error) {
	if db.conn == nil {
		return dberr.Wrap(dberr.ErrNotOpen, "close")
	}
	if fn == nil {
		return dberr.Wrap(dberr.ErrInvalidArgument, "close: scoped function required")
	}

	defer func() {
		closeErr := db.Close()
		if err == nil {
			err = closeErr
			return
		}
		if closeErr != nil {
			err = fmt.Errorf("%w (also: %v)", err, closeErr)
		}
	}()

	return fn(db)
}

// Run executes a single mutating statement with positional parameters and
// reports the engine's LastID/Changes for it.
func (db *DB) Run(ctx context.Context, query string, args ...any) (RunResult, error) {
	if db.conn == nil {
		return RunResult{}, dberr.Wrap(dberr.ErrNotOpen, "run")
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return RunResult{}, dberr.Wrap(dberr.Driver(err), "run")
	}
	return runResult(res)
}

func runResult(res sql.Result) (RunResult, error) {
	lastID, err := res.LastInsertId()
	if err != nil {
		return RunResult{}, dberr.Wrap(dberr.Driver(err), "last insert id")
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return RunResult{}, dberr.Wrap(dberr.Driver(err), "rows affected")
	}
	return RunResult{LastID: lastID, Changes: changes}, nil
}

// Get executes a query and returns its first row, or (nil, nil) when no row
// matched.
func (db *DB) Get(ctx context.Context, query string, args ...any) (Row, error) {
	if db.conn == nil {
		return nil, dberr.Wrap(dberr.ErrNotOpen, "get")
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "get")
	}
	return firstRow(rows)
}

// All executes a query and returns every matching row in order.
func (db *DB) All(ctx context.Context, query string, args ...any) ([]Row, error) {
	if db.conn == nil {
		return nil, dberr.Wrap(dberr.ErrNotOpen, "all")
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "all")
	}
	return collectRows(rows)
}

// Each executes a query, invokes fn for every row in order, and returns the
// number of rows iterated. A nil fn fails with dberr.ErrInvalidArgument
// before the statement reaches the engine; an error from fn stops the
// iteration and is returned along with the count so far.
func (db *DB) Each(ctx context.Context, query string, fn func(Row) error, args ...any) (int, error) {
	if fn == nil {
		return 0, dberr.Wrap(dberr.ErrInvalidArgument, "each: row callback required")
	}
	if db.conn == nil {
		return 0, dberr.Wrap(dberr.ErrNotOpen, "each")
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, dberr.Wrap(dberr.Driver(err), "each")
	}
	return eachRow(rows, fn)
}

// Exec runs a script of one or more statements that produce no rows.
func (db *DB) Exec(ctx context.Context, script string) error {
	if db.conn == nil {
		return dberr.Wrap(dberr.ErrNotOpen, "exec")
	}

	// No bind parameters: the driver only executes multi-statement text on
	// the unparameterized path.
	if _, err := db.conn.ExecContext(ctx, script); err != nil {
		return dberr.Wrap(dberr.Driver(err), "exec")
	}
	return nil
}

// Prepare compiles a statement and wraps it in a Stmt handle. Initial bind
// parameters, if any, are stored on the handle and used by executions that
// pass no parameters of their own.
func (db *DB) Prepare(ctx context.Context, query string, args ...any) (*Stmt, error) {
	if db.conn == nil {
		return nil, dberr.Wrap(dberr.ErrNotOpen, "prepare")
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "prepare")
	}
	return &Stmt{stmt: stmt, query: query, bound: args}, nil
}
