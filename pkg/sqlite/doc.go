// Package sqlite wraps the embedded SQLite engine behind handle types with
// linear, error-returning operations: a DB handle owning at most one logical
// connection, a Stmt handle owning one prepared statement, all-or-nothing
// transactions, and a small list-view query helper (keyword search plus
// pagination) with table CRUD convenience methods on top.
//
// The package pins the connection pool to a single connection, so statements
// issued through one handle are serialized by the engine in submission order
// and manual BEGIN/END/ROLLBACK TRANSACTION statements all land on the same
// connection.
//
// Lifecycle errors (use before Open, double Open, double Close) and boundary
// validation errors carry the sentinels from sqlitekit/pkg/dberr; engine
// errors pass through wrapped with dberr.ErrDriver, original error intact.
package sqlite
