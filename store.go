package retailsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nao1215/retailsql/driver"
	"github.com/rs/zerolog"
)

// Store is the in-memory relational copy of the cleaned dataset.
// After loading it accepts only reads and view statements.
type Store struct {
	db        *sql.DB
	connector *driver.Connector
	tableName string
	columns   []columnInfo
	stats     CleaningStats
	logger    zerolog.Logger
}

// indexedColumns speed up the co-occurrence self join and the per-customer lookups
var indexedColumns = []string{"InvoiceNo", "Description", "CustomerID"}

// openMemoryDB creates a uniquely named in-memory database behind a sealing connector.
// The pool holds exactly one connection so the database lives as long as the Store.
func openMemoryDB(ctx context.Context) (*sql.DB, *driver.Connector, error) {
	dsn := fmt.Sprintf("file:retailsql-%s?mode=memory&cache=shared", uuid.NewString())
	connector := driver.NewConnector(dsn)
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, nil, errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
		return nil, nil, err
	}
	return db, connector, nil
}

// createTable creates the dataset table from the inferred columns
func createTable(ctx context.Context, db *sql.DB, tableName string, columns []columnInfo) error {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf(`"%s" %s`, col.Name, col.Type.String()))
	}

	query := fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tableName, strings.Join(defs, ", "))
	_, err := db.ExecContext(ctx, query)
	return err
}

// insertRecords inserts records in chunks, one transaction per chunk
func insertRecords(ctx context.Context, db *sql.DB, tableName string, width int, records []Record, chunkSize ChunkSize) error {
	placeholders := make([]string, width)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, tableName, strings.Join(placeholders, ", "))

	for start := 0; start < len(records); start += chunkSize.Int() {
		end := min(start+chunkSize.Int(), len(records))
		if err := insertChunk(ctx, db, query, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertChunk(ctx context.Context, db *sql.DB, query string, chunk []Record) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to rollback: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range chunk {
		values := make([]any, len(record))
		for i, value := range record {
			if value == "" {
				values[i] = nil
				continue
			}
			values[i] = value
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}
	return tx.Commit()
}

// createIndexes indexes the columns the catalog joins and filters on
func createIndexes(ctx context.Context, db *sql.DB, tableName string, columns []columnInfo) error {
	for _, name := range indexedColumns {
		found := false
		for _, col := range columns {
			if col.Name == name {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		query := fmt.Sprintf(`CREATE INDEX "idx_%s_%s" ON "%s" ("%s")`, tableName, strings.ToLower(name), tableName, name)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

// Query runs a read statement and returns all rows
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResult(rows)
}

// Exec runs a statement that returns no rows, such as CREATE VIEW
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Count returns the number of rows in the dataset table
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, s.tableName)).Scan(&count)
	return count, err
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// TableName returns the name of the dataset table
func (s *Store) TableName() string {
	return s.tableName
}

// Stats returns the cleaning statistics recorded while loading
func (s *Store) Stats() CleaningStats {
	return s.stats
}

// Columns returns the dataset table columns with their SQL types
func (s *Store) Columns() []Column {
	out := make([]Column, len(s.columns))
	for i, c := range s.columns {
		out[i] = Column{Name: c.Name, Type: c.Type.String()}
	}
	return out
}

// Sealed reports whether the store rejects writes. It is true for every opened Store.
func (s *Store) Sealed() bool {
	return s.connector.Sealed()
}

// Close releases the database; the in-memory data is gone afterwards
func (s *Store) Close() error {
	s.logger.Debug().Str("table", s.tableName).Msg("closing dataset store")
	return s.db.Close()
}
