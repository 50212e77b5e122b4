package retailsql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/retailsql/domain/model"
)

// datetimePattern pairs a cheap shape check with the layouts that can parse it
type datetimePattern struct {
	pattern *regexp.Regexp
	formats []string
}

// Supported InvoiceDate layouts. The Online Retail CSV export uses "12/1/2010 8:26".
var datetimePatterns = []datetimePattern{
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}$`),
		[]string{"1/2/2006 15:04"},
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM"},
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2}(\.\d+)?)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999", "2006-01-02 15:04"},
	},
	{
		// arrow renders parquet timestamps this way
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{4})$`),
		[]string{"2006-01-02 15:04:05.999999999Z0700"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
}

// parseDatetime parses value with the supported layouts
func parseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		for _, format := range dp.formats {
			if t, err := time.Parse(format, value); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// formatDatetime renders t in the stored InvoiceDate layout
func formatDatetime(t time.Time) string {
	return t.Format(model.InvoiceDateLayout)
}

// isDatetime checks if a string value represents a datetime
func isDatetime(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	_, err := parseDatetime(value)
	return err == nil
}

// classifyValue returns the narrowest type that can hold value
func classifyValue(value string) columnType {
	if isDatetime(value) {
		return columnTypeDatetime
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return columnTypeInteger
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return columnTypeReal
	}
	return columnTypeText
}

// inferColumnType infers the SQL column type from a slice of string values.
// Priority: TEXT > DATETIME > REAL > INTEGER. Mixing datetimes with numbers yields TEXT.
func inferColumnType(values []string) columnType {
	hasDatetime := false
	hasReal := false
	hasInteger := false

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch classifyValue(value) {
		case columnTypeText:
			return columnTypeText
		case columnTypeDatetime:
			hasDatetime = true
		case columnTypeReal:
			hasReal = true
		case columnTypeInteger:
			hasInteger = true
		}
	}

	switch {
	case hasDatetime && (hasReal || hasInteger):
		return columnTypeText
	case hasDatetime:
		return columnTypeDatetime
	case hasReal:
		return columnTypeReal
	case hasInteger:
		return columnTypeInteger
	default:
		return columnTypeText
	}
}

// inferColumnsInfo infers column information from header and data records
func inferColumnsInfo(h header, records []Record) []columnInfo {
	columns := make([]columnInfo, len(h))
	values := make([]string, 0, len(records))
	for i, name := range h {
		values = values[:0]
		for _, record := range records {
			if i < len(record) {
				values = append(values, record[i])
			}
		}
		columns[i] = columnInfo{Name: name, Type: inferColumnType(values)}
	}
	return columns
}
