package sqlite

import (
	"database/sql"

	"sqlitekit/pkg/dberr"
)

// Row is one result row keyed by column name. Values carry the driver's
// native Go types (int64, float64, string, []byte, nil).
type Row map[string]any

// collectRows drains rows into Row maps and closes them.
func collectRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "columns")
	}

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "rows")
	}
	return out, nil
}

// firstRow returns the first row and closes rows; nil when there is none.
func firstRow(rows *sql.Rows) (Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "columns")
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dberr.Wrap(dberr.Driver(err), "rows")
		}
		return nil, nil
	}
	return scanRow(rows, cols)
}

// eachRow feeds rows to fn one at a time, closing rows on every path.
func eachRow(rows *sql.Rows, fn func(Row) error) (int, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, dberr.Wrap(dberr.Driver(err), "columns")
	}

	count := 0
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return count, err
		}
		if err := fn(row); err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, dberr.Wrap(dberr.Driver(err), "rows")
	}
	return count, nil
}

func scanRow(rows *sql.Rows, cols []string) (Row, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, dberr.Wrap(dberr.Driver(err), "scan")
	}

	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = values[i]
	}
	return row, nil
}
