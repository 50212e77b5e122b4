package retailsql

import (
	"fmt"
	"strconv"
	"strings"
)

// Processing constants (rows-based)
const (
	// DefaultChunkSize is the default number of rows inserted per prepared statement batch
	DefaultChunkSize = 1000
	// MinChunkSize is the minimum allowed rows per chunk
	MinChunkSize = 1
)

// header is the dataset header.
type header []string

// newHeader creates a header with surrounding whitespace trimmed from every name.
func newHeader(h []string) header {
	out := make(header, len(h))
	for i, name := range h {
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// indexOf returns the position of name in the header, or -1.
func (h header) indexOf(name string) int {
	for i, v := range h {
		if v == name {
			return i
		}
	}
	return -1
}

// missing returns the names in required that the header lacks
func (h header) missing(required []string) []string {
	var out []string
	for _, name := range required {
		if h.indexOf(name) < 0 {
			out = append(out, name)
		}
	}
	return out
}

// Record represents one dataset row as a slice of string fields.
type Record []string

// newRecord pads or truncates r to width fields.
func newRecord(r []string, width int) Record {
	rec := make(Record, width)
	copy(rec, r)
	return rec
}

// columnType represents the SQL column type
type columnType int

const (
	// columnTypeText represents TEXT column type
	columnTypeText columnType = iota
	// columnTypeInteger represents INTEGER column type
	columnTypeInteger
	// columnTypeReal represents REAL column type
	columnTypeReal
	// columnTypeDatetime represents datetime stored as TEXT in "2006-01-02 15:04:05" form
	columnTypeDatetime
)

const (
	// sqlTypeText is the SQL TEXT type string
	sqlTypeText = "TEXT"
	// sqlTypeInteger is the SQL INTEGER type string
	sqlTypeInteger = "INTEGER"
	// sqlTypeReal is the SQL REAL type string
	sqlTypeReal = "REAL"
)

// String returns the SQL column type string
func (ct columnType) String() string {
	switch ct {
	case columnTypeInteger:
		return sqlTypeInteger
	case columnTypeReal:
		return sqlTypeReal
	default:
		// SQLite stores datetime as TEXT
		return sqlTypeText
	}
}

// columnInfo represents column information with name and inferred type
type columnInfo struct {
	Name string
	Type columnType
}

// validateColumnNames checks for empty and duplicate column names.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool)
	for i, col := range columns {
		trimmedCol := strings.TrimSpace(col)
		if trimmedCol == "" {
			return fmt.Errorf("column %d has an empty name", i+1)
		}
		if columnsSeen[trimmedCol] {
			return fmt.Errorf("%w: %s", errDuplicateColumnName, col)
		}
		columnsSeen[trimmedCol] = true
	}
	return nil
}

// ChunkSize represents a chunk size with validation
type ChunkSize int

// NewChunkSize creates a new ChunkSize; values below MinChunkSize select DefaultChunkSize
func NewChunkSize(size int) ChunkSize {
	if size < MinChunkSize {
		return ChunkSize(DefaultChunkSize)
	}
	return ChunkSize(size)
}

// Int returns the int value of ChunkSize
func (cs ChunkSize) Int() int {
	return int(cs)
}

// String returns the string representation of ChunkSize
func (cs ChunkSize) String() string {
	return strconv.Itoa(int(cs))
}
