package driver

import (
	"fmt"
	"strings"
)

// StatementKind classifies a SQL statement for the read-only policy.
type StatementKind int

const (
	// StatementWrite is any statement that may modify data or schema other than views
	StatementWrite StatementKind = iota
	// StatementRead is a statement that only reads data
	StatementRead
	// StatementView creates or drops a view
	StatementView
)

// String returns the string representation of StatementKind
func (k StatementKind) String() string {
	switch k {
	case StatementRead:
		return "read"
	case StatementView:
		return "view"
	default:
		return "write"
	}
}

// CheckReadOnly returns ErrStatementRejected unless query is a read or a view statement.
func CheckReadOnly(query string) error {
	if Classify(query) == StatementWrite {
		return fmt.Errorf("%w: %s", ErrStatementRejected, SanitizeForLog(query))
	}
	return nil
}

// Classify reports the kind of a single SQL statement.
// String literals, quoted identifiers and comments are ignored. Batches of more than one
// statement are classified as writes.
func Classify(query string) StatementKind {
	code, multiple := stripLiterals(query)
	if multiple {
		return StatementWrite
	}
	words := strings.Fields(strings.ToUpper(code))
	if len(words) == 0 {
		return StatementWrite
	}

	switch words[0] {
	case "SELECT", "VALUES", "EXPLAIN":
		return StatementRead
	case "WITH":
		for _, w := range words[1:] {
			switch trimPunct(w) {
			case "INSERT", "UPDATE", "DELETE", "REPLACE":
				return StatementWrite
			}
		}
		return StatementRead
	case "PRAGMA":
		if strings.Contains(code, "=") {
			return StatementWrite
		}
		return StatementRead
	case "CREATE":
		rest := words[1:]
		if len(rest) > 0 && (rest[0] == "TEMP" || rest[0] == "TEMPORARY") {
			rest = rest[1:]
		}
		if len(rest) > 0 && rest[0] == "VIEW" {
			return StatementView
		}
	case "DROP":
		if len(words) > 1 && words[1] == "VIEW" {
			return StatementView
		}
	}
	return StatementWrite
}

// stripLiterals blanks string literals, quoted identifiers and comments out of query.
// The second result reports whether a statement follows a top level semicolon.
func stripLiterals(query string) (string, bool) {
	var b strings.Builder
	b.Grow(len(query))

	afterSemicolon := false
	multiple := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 3
			}
			b.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			i++
			for i < len(query) {
				if query[i] == closing {
					// doubled quote is an escaped quote
					if closing != ']' && i+1 < len(query) && query[i+1] == closing {
						i += 2
						continue
					}
					break
				}
				i++
			}
			if afterSemicolon {
				multiple = true
			}
			b.WriteString(" _ ")
		case c == ';':
			afterSemicolon = true
			b.WriteByte(' ')
		default:
			if afterSemicolon && !isSpace(c) {
				multiple = true
			}
			b.WriteByte(c)
		}
	}
	return b.String(), multiple
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func trimPunct(word string) string {
	return strings.Trim(word, "(),")
}
