package model

import "errors"

var (
	// ErrUnknownOutputFormat is returned when an export format name is not recognized
	ErrUnknownOutputFormat = errors.New("unknown output format")

	// ErrUnknownCompression is returned when a compression name is not recognized
	ErrUnknownCompression = errors.New("unknown compression type")

	// ErrInvalidTransaction is returned when a transaction violates a retention invariant
	ErrInvalidTransaction = errors.New("invalid transaction")
)
