package driver

import "errors"

// Predefined errors
var (
	// ErrStatementRejected is returned when a sealed connection receives a write statement
	ErrStatementRejected = errors.New("retailsql driver: statement rejected on read-only dataset")

	// ErrBeginTxNotSupported is returned when underlying connection does not support BeginTx
	ErrBeginTxNotSupported = errors.New("retailsql driver: underlying connection does not support BeginTx")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("retailsql driver: underlying connection does not support PrepareContext")
)
