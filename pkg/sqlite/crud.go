package sqlite

import (
	"context"
	"sort"
	"strings"

	"sqlitekit/pkg/dberr"
)

// idColumn is the primary key column the convenience methods address rows by.
const idColumn = "_id"

// CreateTable creates table with the given column definitions if it does
// not exist yet.
func (db *DB) CreateTable(ctx context.Context, table, schema string) error {
	if strings.TrimSpace(schema) == "" {
		return dberr.Wrap(dberr.ErrInvalidArgument, "create table: schema required")
	}
	return db.Exec(ctx, "CREATE TABLE IF NOT EXISTS "+table+" ("+schema+")")
}

// Insert adds one row to table. Columns are emitted in sorted order so the
// generated statement is deterministic for a given row shape.
func (db *DB) Insert(ctx context.Context, table string, row Row) (RunResult, error) {
	if len(row) == 0 {
		return RunResult{}, dberr.Wrap(dberr.ErrInvalidArgument, "insert: empty row")
	}

	cols := sortedColumns(row)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args[i] = row[col]
	}

	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	return db.Run(ctx, query, args...)
}

// Update sets the given columns on the row identified by id.
func (db *DB) Update(ctx context.Context, table string, row Row, id string) (RunResult, error) {
	if len(row) == 0 {
		return RunResult{}, dberr.Wrap(dberr.ErrInvalidArgument, "update: empty row")
	}

	cols := sortedColumns(row)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, row[col])
	}
	args = append(args, id)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + idColumn + " = ?"
	return db.Run(ctx, query, args...)
}

// Delete removes the rows whose ids appear in the comma-separated id list.
// Every id is bound as a statement parameter.
func (db *DB) Delete(ctx context.Context, id, table string) (RunResult, error) {
	var args []any
	for _, part := range strings.Split(id, ",") {
		if part = strings.TrimSpace(part); part != "" {
			args = append(args, part)
		}
	}
	if len(args) == 0 {
		return RunResult{}, dberr.Wrap(dberr.ErrInvalidArgument, "delete: no ids")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := "DELETE FROM " + table + " WHERE " + idColumn + " IN (" + placeholders + ")"
	return db.Run(ctx, query, args...)
}

func sortedColumns(row Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
