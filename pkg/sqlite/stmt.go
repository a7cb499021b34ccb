package sqlite

import (
	"context"
	"database/sql"

	"sqlitekit/pkg/dberr"
)

// Stmt is a handle owning one prepared statement. It is created by
// DB.Prepare and destroyed by Finalize; using a finalized handle is a
// caller error reported by the driver, not guarded here.
//
// Parameters passed directly to Run/Get/All/Each take precedence over
// parameters stored with Bind (or at Prepare time); with none supplied,
// the bound parameters apply. Bind itself performs no driver call, so
// mismatched parameters surface on the next execution.
type Stmt struct {
	stmt  *sql.Stmt
	query string
	bound []any
}

// Bind replaces the stored bind parameters and returns the handle.
func (s *Stmt) Bind(args ...any) *Stmt {
	s.bound = args
	return s
}

// Reset clears the stored bind parameters and returns the handle.
func (s *Stmt) Reset() *Stmt {
	s.bound = nil
	return s
}

// Query returns the SQL text this statement was compiled from.
func (s *Stmt) Query() string {
	return s.query
}

// Run executes the statement and reports the engine's LastID/Changes.
func (s *Stmt) Run(ctx context.Context, args ...any) (RunResult, error) {
	res, err := s.stmt.ExecContext(ctx, s.args(args)...)
	if err != nil {
		return RunResult{}, dberr.Wrap(dberr.Driver(err), "stmt run")
	}
	return runResult(res)
}

// Get executes the statement and returns its first row, or (nil, nil) when
// no row matched.
func (s *Stmt) Get(ctx context.Context, args ...any) (Row, error) {
	rows, err := s.stmt.QueryContext(ctx, s.args(args)...)
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "stmt get")
	}
	return firstRow(rows)
}

// All executes the statement and returns every matching row in order.
func (s *Stmt) All(ctx context.Context, args ...any) ([]Row, error) {
	rows, err := s.stmt.QueryContext(ctx, s.args(args)...)
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "stmt all")
	}
	return collectRows(rows)
}

// Each executes the statement, invokes fn per row, and returns the row
// count. A nil fn fails with dberr.ErrInvalidArgument before execution.
func (s *Stmt) Each(ctx context.Context, fn func(Row) error, args ...any) (int, error) {
	if fn == nil {
		return 0, dberr.Wrap(dberr.ErrInvalidArgument, "stmt each: row callback required")
	}

	rows, err := s.stmt.QueryContext(ctx, s.args(args)...)
	if err != nil {
		return 0, dberr.Wrap(dberr.Driver(err), "stmt each")
	}
	return eachRow(rows, fn)
}

// Finalize releases the prepared statement. The handle must not be used
// afterward.
func (s *Stmt) Finalize() error {
	if err := s.stmt.Close(); err != nil {
		return dberr.Wrap(dberr.Driver(err), "finalize")
	}
	return nil
}

func (s *Stmt) args(args []any) []any {
	if len(args) > 0 {
		return args
	}
	return s.bound
}
