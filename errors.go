package retailsql

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Load errors are terminal: the dashboard cannot be served without a dataset and a catalog.
var (
	// ErrFileNotFound indicates the dataset file does not exist
	ErrFileNotFound = errors.New("retailsql: dataset file not found")

	// ErrDatasetParse indicates the dataset could not be read, decoded or parsed
	ErrDatasetParse = errors.New("retailsql: failed to parse dataset")

	// ErrInvalidDate indicates an InvoiceDate value that matches none of the supported layouts
	ErrInvalidDate = errors.New("retailsql: invalid invoice date")

	// ErrCatalogNotFound indicates the query catalog file does not exist
	ErrCatalogNotFound = errors.New("retailsql: query catalog not found")

	// ErrEmptyCatalog indicates the query catalog contains no queries
	ErrEmptyCatalog = errors.New("retailsql: query catalog is empty")

	// ErrMissingQuery indicates the catalog lacks a query the dashboard requires
	ErrMissingQuery = errors.New("retailsql: required query missing from catalog")

	// ErrUnsupportedFormat indicates an input file type that cannot be loaded
	ErrUnsupportedFormat = errors.New("retailsql: unsupported file format")

	// ErrNoInput indicates Build was called without any dataset input
	ErrNoInput = errors.New("retailsql: no dataset input configured")

	// errDuplicateColumnName is returned when a dataset header contains duplicate column names
	errDuplicateColumnName = errors.New("duplicate column name")
)

// Query errors are not terminal: the failing section shows a notice and rendering continues.
var (
	// ErrQueryNotFound indicates the requested query name is not in the catalog
	ErrQueryNotFound = errors.New("retailsql: query not found")

	// ErrMissingParameter indicates a template placeholder without a value
	ErrMissingParameter = errors.New("retailsql: missing query parameter")

	// ErrQueryExecution indicates the database rejected or failed a query
	ErrQueryExecution = errors.New("retailsql: query execution failed")
)

// IsTerminal reports whether err prevents the dashboard from starting.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{
		ErrFileNotFound,
		ErrDatasetParse,
		ErrInvalidDate,
		ErrCatalogNotFound,
		ErrEmptyCatalog,
		ErrMissingQuery,
		ErrUnsupportedFormat,
		ErrNoInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MissingParameterError names every placeholder of a query that had no value.
type MissingParameterError struct {
	Query   string
	Missing []string
}

// Error implements the error interface
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter for query %s: %s", e.Query, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrMissingParameter) match
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// newMissingParameterError sorts and deduplicates the missing names
func newMissingParameterError(query string, missing []string) *MissingParameterError {
	seen := make(map[string]struct{}, len(missing))
	names := make([]string, 0, len(missing))
	for _, name := range missing {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return &MissingParameterError{Query: query, Missing: names}
}

// QueryError carries the failing query name and the bound SQL text.
type QueryError struct {
	Query string
	SQL   string
	Err   error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	return fmt.Sprintf("error executing query %s: %v (query: %s)", e.Query, e.Err, e.SQL)
}

// Unwrap returns the underlying database error
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrQueryExecution) match
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryExecution
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("retailsql: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
