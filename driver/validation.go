package driver

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxColumnCount defines the maximum number of columns allowed in the dataset table
const MaxColumnCount = 2000

// MaxValueLength defines the maximum length of a single field value
const MaxValueLength = 65536

var (
	// ErrTooManyColumns is returned when a dataset has too many columns
	ErrTooManyColumns = errors.New("too many columns")

	// ErrInvalidPath is returned when a path is empty or contains a NUL byte
	ErrInvalidPath = errors.New("invalid path")
)

// ValidatePath rejects paths that can never name a dataset file.
// The dataset path comes from the operator's configuration, so only malformed input is rejected.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}
	if strings.Contains(path, "\x00") {
		return ErrInvalidPath
	}
	return nil
}

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return ErrTooManyColumns
	}
	return nil
}

// ValidateFieldValue truncates extremely long values on a rune boundary and removes NUL bytes
func ValidateFieldValue(value string) string {
	value = truncate(value, MaxValueLength)
	return strings.ReplaceAll(value, "\x00", "")
}

// SanitizeForLog shortens SQL text and parameter values before they are logged
func SanitizeForLog(input string) string {
	const maxLogLength = 200
	result := strings.Join(strings.Fields(input), " ")
	if len(result) > maxLogLength {
		result = truncate(result, maxLogLength) + "..."
	}
	return result
}

// truncate shortens s to at most n bytes without splitting a multi-byte character
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
