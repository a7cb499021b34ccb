package sqlite

import (
	"context"
	"strconv"
	"strings"

	"sqlitekit/pkg/dberr"
)

// defaultPageCap is the page size used when pagination is requested
// without an explicit pagecap.
const defaultPageCap = 10

// countFallbackFilter stands in for the condition in the companion COUNT
// statement when no condition was built. Inherited from the tile-serving
// application this helper originated in.
const countFallbackFilter = "tile_data IS NOT NULL"

// QueryOptions is the input of the list-view helper. All fields are
// optional; Page and PageCap arrive as numeric strings the way list UIs
// submit them.
type QueryOptions struct {
	// Key is matched with LIKE against every searchable column.
	Key string
	// Condition is raw SQL appended to the WHERE clause. It is trusted
	// input: never build it from user data.
	Condition string
	// Page is the 1-based page number; pagination fields are produced only
	// when it is set.
	Page string `validate:"omitempty,numeric"`
	// PageCap is the page size (default 10).
	PageCap string `validate:"omitempty,numeric"`
}

// Pagination describes the page window a query result was cut to.
type Pagination struct {
	AllCount  int
	Page      int
	PageCap   int
	PageCount int
}

// QueryResult is one list-view response. Pagination is nil unless the
// request asked for a page.
type QueryResult struct {
	Rows       []Row
	Pagination *Pagination
}

// Query runs the list-view helper projecting all columns.
func (db *DB) Query(ctx context.Context, opts QueryOptions, table string, keys []string) (*QueryResult, error) {
	return db.QueryWithSelect(ctx, opts, table, keys, "*")
}

// QueryWithSelect builds and runs a SELECT over table: an OR-chain of LIKE
// filters over keys when opts.Key is set, the raw opts.Condition appended
// with AND/WHERE, and LIMIT/OFFSET plus a companion COUNT(*) statement when
// opts.Page is set.
func (db *DB) QueryWithSelect(ctx context.Context, opts QueryOptions, table string, keys []string, sel string) (*QueryResult, error) {
	if db.conn == nil {
		return nil, dberr.Wrap(dberr.ErrNotOpen, "query")
	}
	if err := validate.Struct(opts); err != nil {
		return nil, dberr.MarkKind(dberr.Wrap(err, "query options"), dberr.KindInvalidArgument)
	}

	cond, condArgs := buildCondition(opts, keys)

	query := "SELECT " + sel + " FROM " + table
	if cond != "" {
		query += " WHERE " + cond
	}
	args := condArgs

	res := &QueryResult{}
	if opts.Page != "" {
		page, _ := strconv.Atoi(opts.Page) // validated numeric above
		pageCap := defaultPageCap
		if opts.PageCap != "" {
			pageCap, _ = strconv.Atoi(opts.PageCap)
		}
		if pageCap <= 0 {
			return nil, dberr.Wrap(dberr.ErrInvalidArgument, "query: pagecap must be positive")
		}

		allCount, err := db.countAll(ctx, table, cond, condArgs)
		if err != nil {
			return nil, err
		}

		offset := (page - 1) * pageCap
		query += " LIMIT ? OFFSET ?"
		args = append(append([]any{}, condArgs...), pageCap, offset)

		res.Pagination = &Pagination{
			AllCount:  allCount,
			Page:      page,
			PageCap:   pageCap,
			PageCount: (allCount + pageCap - 1) / pageCap,
		}
	}

	rows, err := db.All(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	res.Rows = rows
	return res, nil
}

// buildCondition assembles the WHERE body: the parenthesized LIKE chain
// first, then the raw condition joined with AND. Key values are bound, not
// interpolated.
func buildCondition(opts QueryOptions, keys []string) (string, []any) {
	var parts []string
	var args []any

	if opts.Key != "" && len(keys) > 0 {
		likes := make([]string, len(keys))
		for i, col := range keys {
			likes[i] = col + " LIKE ?"
			args = append(args, "%"+opts.Key+"%")
		}
		parts = append(parts, "("+strings.Join(likes, " OR ")+")")
	}
	if opts.Condition != "" {
		parts = append(parts, opts.Condition)
	}

	return strings.Join(parts, " AND "), args
}

// countAll runs the companion COUNT statement for a paginated query.
func (db *DB) countAll(ctx context.Context, table, cond string, args []any) (int, error) {
	if cond == "" {
		cond = countFallbackFilter
		args = nil
	}

	row, err := db.Get(ctx, "SELECT COUNT(*) AS count FROM "+table+" WHERE "+cond, args...)
	if err != nil {
		return 0, err
	}
	count, ok := row["count"].(int64)
	if !ok {
		return 0, dberr.Wrapf(dberr.ErrDriver, "count: unexpected value %v", row["count"])
	}
	return int(count), nil
}
