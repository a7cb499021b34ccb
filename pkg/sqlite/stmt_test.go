package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlitekit/pkg/dberr"
)

func seedItems(t *testing.T) *TestDB {
	t.Helper()

	tdb := NewTestDBInMemory(t)
	tdb.MustSeedData(t,
		"CREATE TABLE items (_id INTEGER PRIMARY KEY, name TEXT)",
		`INSERT INTO items (name) VALUES ('one'), ('two'), ('three')`,
	)
	return tdb
}

func TestStmt_RunMatchesDirectRun(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	// The same parameterized insert through a prepared statement and
	// directly must report identical results.
	direct, err := tdb.DB.Run(ctx, "INSERT INTO items (name) VALUES (?)", "direct")
	require.NoError(t, err)

	stmt, err := tdb.DB.Prepare(ctx, "INSERT INTO items (name) VALUES (?)")
	require.NoError(t, err)

	prepared, err := stmt.Bind("prepared").Run(ctx)
	require.NoError(t, err)
	require.NoError(t, stmt.Finalize())

	assert.Equal(t, direct.Changes, prepared.Changes)
	assert.Equal(t, direct.LastID+1, prepared.LastID)
}

func TestStmt_PrepareWithInitialParams(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	stmt, err := tdb.DB.Prepare(ctx, "SELECT name FROM items WHERE _id = ?", 2)
	require.NoError(t, err)
	defer func() { _ = stmt.Finalize() }()

	row, err := stmt.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "two", row["name"])

	// Explicit parameters override the bound ones.
	row, err = stmt.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "three", row["name"])
}

func TestStmt_BindAndReset(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	stmt, err := tdb.DB.Prepare(ctx, "SELECT name FROM items WHERE _id = ?")
	require.NoError(t, err)
	defer func() { _ = stmt.Finalize() }()

	row, err := stmt.Bind(1).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", row["name"])

	// Re-bind replaces the previous parameters.
	row, err = stmt.Bind(2).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", row["name"])

	// After Reset the statement has no parameters and execution fails.
	_, err = stmt.Reset().Get(ctx)
	require.Error(t, err)
	assert.True(t, dberr.IsDriver(err))
}

func TestStmt_All(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	stmt, err := tdb.DB.Prepare(ctx, "SELECT name FROM items WHERE _id >= ? ORDER BY _id")
	require.NoError(t, err)
	defer func() { _ = stmt.Finalize() }()

	rows, err := stmt.All(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "two", rows[0]["name"])
	assert.Equal(t, "three", rows[1]["name"])
}

func TestStmt_Each(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	stmt, err := tdb.DB.Prepare(ctx, "SELECT name FROM items ORDER BY _id")
	require.NoError(t, err)
	defer func() { _ = stmt.Finalize() }()

	var names []string
	count, err := stmt.Each(ctx, func(row Row) error {
		names = append(names, row["name"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"one", "two", "three"}, names)

	// Missing callback is rejected before execution.
	_, err = stmt.Each(ctx, nil)
	assert.True(t, dberr.IsInvalidArgument(err))
}

func TestStmt_UseAfterFinalize(t *testing.T) {
	tdb := seedItems(t)
	ctx := context.Background()

	stmt, err := tdb.DB.Prepare(ctx, "SELECT name FROM items WHERE _id = ?")
	require.NoError(t, err)
	require.NoError(t, stmt.Finalize())

	_, err = stmt.Get(ctx, 1)
	require.Error(t, err)
	assert.True(t, dberr.IsDriver(err))
}

func TestStmt_Query(t *testing.T) {
	tdb := seedItems(t)

	stmt, err := tdb.DB.Prepare(context.Background(), "SELECT 1")
	require.NoError(t, err)
	defer func() { _ = stmt.Finalize() }()

	assert.Equal(t, "SELECT 1", stmt.Query())
}
