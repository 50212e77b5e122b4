package driver

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dsnCounter atomic.Int64

func openTestDB(t *testing.T) (*sql.DB, *Connector) {
	t.Helper()

	dsn := fmt.Sprintf("file:driver-test-%d?mode=memory&cache=shared", dsnCounter.Add(1))
	connector := NewConnector(dsn)
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, connector
}

func TestConnector_BeforeSeal(t *testing.T) {
	t.Parallel()

	db, connector := openTestDB(t)
	ctx := context.Background()

	assert.False(t, connector.Sealed())
	_, err := db.ExecContext(ctx, "CREATE TABLE items (name TEXT, qty INTEGER)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO items VALUES (?, ?)", "mug", 3)
	require.NoError(t, err)

	var qty int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT qty FROM items WHERE name = ?", "mug").Scan(&qty))
	assert.Equal(t, 3, qty)
}

func TestConnector_AfterSeal(t *testing.T) {
	t.Parallel()

	db, connector := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE items (name TEXT, qty INTEGER)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO items VALUES ('mug', 3), ('cup', 5)")
	require.NoError(t, err)

	connector.Seal()
	require.True(t, connector.Sealed())

	t.Run("select is allowed", func(t *testing.T) {
		var total int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT SUM(qty) FROM items").Scan(&total))
		assert.Equal(t, 8, total)
	})

	t.Run("view lifecycle is allowed", func(t *testing.T) {
		_, err := db.ExecContext(ctx, "DROP VIEW IF EXISTS big_items")
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, "CREATE VIEW big_items AS SELECT name FROM items WHERE qty > 4")
		require.NoError(t, err)

		var name string
		require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM big_items").Scan(&name))
		assert.Equal(t, "cup", name)
	})

	t.Run("writes are rejected", func(t *testing.T) {
		for _, stmt := range []string{
			"INSERT INTO items VALUES ('plate', 1)",
			"UPDATE items SET qty = 0",
			"DELETE FROM items",
			"DROP TABLE items",
			"CREATE TABLE other (id INTEGER)",
			"SELECT 1; DELETE FROM items",
		} {
			_, err := db.ExecContext(ctx, stmt)
			require.ErrorIs(t, err, ErrStatementRejected, stmt)
		}

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("prepare is checked", func(t *testing.T) {
		_, err := db.PrepareContext(ctx, "DELETE FROM items WHERE name = ?")
		require.ErrorIs(t, err, ErrStatementRejected)
	})
}

func TestDriver_OpenConnector(t *testing.T) {
	t.Parallel()

	d := NewDriver()
	connector, err := d.OpenConnector("file:driver-open?mode=memory")
	require.NoError(t, err)
	assert.Equal(t, d, connector.Driver())
}
