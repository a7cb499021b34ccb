package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlitekit/pkg/dberr"
)

func TestDB_TransactionCommit(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t, "CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT)")

	err := tdb.DB.Transaction(ctx, func(ctx context.Context) error {
		if _, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "a"); err != nil {
			return err
		}
		_, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "b")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, tdb.CountRows(t, "test"))
}

func TestDB_TransactionRollback(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t, "CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT)")

	boom := errors.New("business rule violated")
	err := tdb.DB.Transaction(ctx, func(ctx context.Context) error {
		if _, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "a"); err != nil {
			return err
		}
		return boom
	})

	// The original error comes back and the insert is gone.
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, tdb.CountRows(t, "test"))
}

func TestDB_TransactionRollbackOnDriverError(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t,
		"CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT UNIQUE)",
		`INSERT INTO test (value) VALUES ('taken')`,
	)

	err := tdb.DB.Transaction(ctx, func(ctx context.Context) error {
		if _, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "fresh"); err != nil {
			return err
		}
		_, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "taken")
		return err
	})

	require.Error(t, err)
	assert.True(t, dberr.IsDriver(err))
	assert.Equal(t, 1, tdb.CountRows(t, "test"), "partial work rolled back")
}

func TestDB_TransactionRequiresFunction(t *testing.T) {
	tdb := NewTestDBInMemory(t)

	err := tdb.DB.Transaction(context.Background(), nil)
	assert.True(t, dberr.IsInvalidArgument(err))
}

func TestDB_TransactionNotOpen(t *testing.T) {
	db := New(":memory:")

	err := db.Transaction(context.Background(), func(context.Context) error { return nil })
	assert.True(t, dberr.IsNotOpen(err))
}

func TestTransact_ReturnsResult(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t, "CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT)")

	id, err := Transact(ctx, tdb.DB, func(ctx context.Context) (int64, error) {
		res, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "a")
		if err != nil {
			return 0, err
		}
		return res.LastID, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestTransact_DiscardsResultOnRollback(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t, "CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT)")

	boom := errors.New("give up")
	id, err := Transact(ctx, tdb.DB, func(ctx context.Context) (int64, error) {
		if _, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "a"); err != nil {
			return 0, err
		}
		return 42, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, id)
	assert.Equal(t, 0, tdb.CountRows(t, "test"))
}

func TestDB_TransactionStatementOrder(t *testing.T) {
	tdb := NewTestDBInMemory(t)
	ctx := context.Background()

	tdb.MustSeedData(t, "CREATE TABLE test (_id INTEGER PRIMARY KEY, value TEXT)")

	// Work done inside fn is visible through the same handle before commit,
	// which holds only if fn's statements run between BEGIN and END on the
	// one shared connection.
	err := tdb.DB.Transaction(ctx, func(ctx context.Context) error {
		if _, err := tdb.DB.Run(ctx, "INSERT INTO test (value) VALUES (?)", "a"); err != nil {
			return err
		}
		row, err := tdb.DB.Get(ctx, "SELECT COUNT(*) AS count FROM test")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), row["count"])
		return nil
	})
	require.NoError(t, err)
}
