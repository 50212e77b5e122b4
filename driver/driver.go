package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync/atomic"

	"modernc.org/sqlite"
)

// Driver implements database/sql/driver.Driver interface for the dataset store.
type Driver struct{}

// Connector implements database/sql/driver.Connector interface.
// It holds the SQLite DSN and the seal state shared by every connection it creates.
type Connector struct {
	driver *Driver
	dsn    string
	sealed atomic.Bool
}

// Connection implements database/sql/driver.Conn interface.
// It wraps an underlying SQLite connection and applies the connector's statement policy.
type Connection struct {
	conn      driver.Conn
	connector *Connector
}

// Transaction implements database/sql/driver.Tx interface.
type Transaction struct {
	tx driver.Tx
}

// NewDriver creates a new dataset driver
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	return &Connector{driver: d, dsn: dsn}, nil
}

// NewConnector creates a connector for the given SQLite DSN.
func NewConnector(dsn string) *Connector {
	return &Connector{driver: NewDriver(), dsn: dsn}
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(_ context.Context) (driver.Conn, error) {
	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	return &Connection{conn: conn, connector: c}, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Seal switches every connection of this connector to read-only mode.
// It cannot be undone.
func (c *Connector) Seal() {
	c.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (c *Connector) Sealed() bool {
	return c.sealed.Load()
}

// check applies the statement policy to query
func (conn *Connection) check(query string) error {
	if !conn.connector.Sealed() {
		return nil
	}
	return CheckReadOnly(query)
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface (deprecated, use BeginTx instead)
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx interface
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		tx, err := connBeginTx.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Transaction{tx: tx}, nil
	}
	return nil, ErrBeginTxNotSupported
}

// Commit implements driver.Tx interface
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback implements driver.Tx interface
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := conn.check(query); err != nil {
		return nil, err
	}
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}

// ExecContext implements driver.ExecerContext interface
func (conn *Connection) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := conn.check(query); err != nil {
		return nil, err
	}
	if execer, ok := conn.conn.(driver.ExecerContext); ok {
		return execer.ExecContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

// QueryContext implements driver.QueryerContext interface
func (conn *Connection) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := conn.check(query); err != nil {
		return nil, err
	}
	if queryer, ok := conn.conn.(driver.QueryerContext); ok {
		return queryer.QueryContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

// Ping implements driver.Pinger interface
func (conn *Connection) Ping(ctx context.Context) error {
	if pinger, ok := conn.conn.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
