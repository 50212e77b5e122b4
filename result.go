package retailsql

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/retailsql/domain/model"
)

// Column describes one column of a query result.
type Column struct {
	Name string `json:"name"`
	// Type is the database type name (INTEGER, REAL, TEXT) or the type of the first value
	// when the database reports none, as it does for expressions.
	Type string `json:"type"`
}

// Result is the tabular outcome of a query. Runner methods never return a nil Result.
type Result struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// EmptyResult returns a result without columns or rows
func EmptyResult() *Result {
	return &Result{Columns: []Column{}, Rows: [][]any{}}
}

// Len returns the number of rows
func (r *Result) Len() int {
	return len(r.Rows)
}

// Empty reports whether the result has no rows
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// ColumnNames returns the column names in order
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Strings returns the named column formatted as text, or nil if the column does not exist
func (r *Result) Strings(name string) []string {
	i := r.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(r.Rows))
	for n, row := range r.Rows {
		out[n] = FormatValue(row[i])
	}
	return out
}

// Float64s returns the named column as numbers. Non-numeric cells become 0.
func (r *Result) Float64s(name string) []float64 {
	i := r.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]float64, len(r.Rows))
	for n, row := range r.Rows {
		out[n] = toFloat64(row[i])
	}
	return out
}

// StringRows returns every cell formatted as text, row by row
func (r *Result) StringRows() [][]string {
	out := make([][]string, len(r.Rows))
	for n, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatValue(v)
		}
		out[n] = cells
	}
	return out
}

// FormatValue renders a result cell the way tables and exports show it
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(model.InvoiceDateLayout)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// valueTypeName maps a scanned Go value to the SQL type name it came from
func valueTypeName(v any) string {
	switch v.(type) {
	case int64, bool:
		return sqlTypeInteger
	case float64:
		return sqlTypeReal
	default:
		return sqlTypeText
	}
}

// scanResult reads every row of rows into a Result
func scanResult(rows *sql.Rows) (*Result, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	result := EmptyResult()
	for _, ct := range columnTypes {
		result.Columns = append(result.Columns, Column{Name: ct.Name(), Type: ct.DatabaseTypeName()})
	}

	for rows.Next() {
		values := make([]any, len(columnTypes))
		ptrs := make([]any, len(columnTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	// expressions such as SUM(...) have no declared type
	for i := range result.Columns {
		if result.Columns[i].Type != "" {
			continue
		}
		result.Columns[i].Type = sqlTypeText
		for _, row := range result.Rows {
			if row[i] != nil {
				result.Columns[i].Type = valueTypeName(row[i])
				break
			}
		}
	}
	return result, nil
}
