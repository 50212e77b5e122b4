package driver

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  StatementKind
	}{
		{name: "select", query: "SELECT * FROM onlineretail", want: StatementRead},
		{name: "lower case select with comment", query: "-- top products\n  select 1", want: StatementRead},
		{name: "block comment", query: "/* drop table x */ SELECT 1", want: StatementRead},
		{name: "trailing semicolon", query: "SELECT 1;  \n", want: StatementRead},
		{name: "cte", query: "WITH t AS (SELECT 1) SELECT * FROM t", want: StatementRead},
		{name: "cte with delete", query: "WITH t AS (SELECT 1) DELETE FROM x", want: StatementWrite},
		{name: "keyword inside literal", query: "SELECT 'DELETE FROM x; DROP TABLE y'", want: StatementRead},
		{name: "escaped quote", query: "SELECT 'it''s'", want: StatementRead},
		{name: "pragma read", query: "PRAGMA table_info(onlineretail)", want: StatementRead},
		{name: "pragma write", query: "PRAGMA journal_mode = WAL", want: StatementWrite},
		{name: "create view", query: "CREATE VIEW IF NOT EXISTS v AS SELECT 1", want: StatementView},
		{name: "create temp view", query: "CREATE TEMP VIEW v AS SELECT 1", want: StatementView},
		{name: "drop view", query: "DROP VIEW IF EXISTS v", want: StatementView},
		{name: "create table", query: "CREATE TABLE t (a INTEGER)", want: StatementWrite},
		{name: "drop table", query: "DROP TABLE t", want: StatementWrite},
		{name: "insert", query: "INSERT INTO t VALUES (1)", want: StatementWrite},
		{name: "batch", query: "SELECT 1; DROP TABLE t", want: StatementWrite},
		{name: "empty", query: "   ", want: StatementWrite},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.query), tt.want.String())
		})
	}
}

func TestCheckReadOnly(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckReadOnly("SELECT 1"))
	assert.ErrorIs(t, CheckReadOnly("DELETE FROM t"), ErrStatementRejected)
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePath("data/OnlineRetail.csv"))
	assert.ErrorIs(t, ValidatePath(" "), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("a\x00b.csv"), ErrInvalidPath)
}

func TestValidateFieldValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab", ValidateFieldValue("a\x00b"))
	long := make([]byte, MaxValueLength+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, ValidateFieldValue(string(long)), MaxValueLength)

	// "é" is two bytes; the one straddling the limit is dropped whole
	accented := strings.Repeat("x", MaxValueLength-1) + "éé"
	got := ValidateFieldValue(accented)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("x", MaxValueLength-1), got)
	assert.ErrorIs(t, ValidateColumnCount(MaxColumnCount+1), ErrTooManyColumns)
	assert.NoError(t, ValidateColumnCount(8))
}

func TestSanitizeForLog(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SELECT 1 FROM t", SanitizeForLog("SELECT 1\n  FROM t"))
}
