package retailsql

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/retailsql/domain/model"
	"github.com/nao1215/retailsql/driver"
)

// CleaningStats counts what happened to the dataset rows during loading.
type CleaningStats struct {
	// Read is the number of data rows in the input
	Read int `json:"read"`
	// DroppedMissing is the number of rows without CustomerID or Description
	DroppedMissing int `json:"dropped_missing"`
	// DroppedQuantity is the number of rows with Quantity <= 0
	DroppedQuantity int `json:"dropped_quantity"`
	// Kept is the number of rows loaded into the table
	Kept int `json:"kept"`
}

// add accumulates the counts of another input
func (s *CleaningStats) add(o CleaningStats) {
	s.Read += o.Read
	s.DroppedMissing += o.DroppedMissing
	s.DroppedQuantity += o.DroppedQuantity
	s.Kept += o.Kept
}

// columnIndex holds the positions of the dataset columns the cleaner reads
type columnIndex struct {
	invoiceNo, stockCode, description, quantity, invoiceDate, unitPrice, customerID, country int
}

func newColumnIndex(h header) columnIndex {
	return columnIndex{
		invoiceNo:   h.indexOf(model.ColumnInvoiceNo),
		stockCode:   h.indexOf(model.ColumnStockCode),
		description: h.indexOf(model.ColumnDescription),
		quantity:    h.indexOf(model.ColumnQuantity),
		invoiceDate: h.indexOf(model.ColumnInvoiceDate),
		unitPrice:   h.indexOf(model.ColumnUnitPrice),
		customerID:  h.indexOf(model.ColumnCustomerID),
		country:     h.indexOf(model.ColumnCountry),
	}
}

// missingMarkers are the cell values read as missing, the same set pandas.read_csv uses by default
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// isMissing reports whether a trimmed cell value is a missing marker
func isMissing(value string) bool {
	_, ok := missingMarkers[value]
	return ok
}

func field(rec Record, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// cleanTable applies the row filters in order and rewrites InvoiceDate and CustomerID in place.
// Every source column is kept; only rows are removed.
func cleanTable(raw *rawTable) ([]Record, CleaningStats, error) {
	stats := CleaningStats{Read: len(raw.records)}

	if missing := raw.header.missing(model.RequiredColumns); len(missing) > 0 {
		return nil, stats, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	idx := newColumnIndex(raw.header)

	kept := make([]Record, 0, len(raw.records))
	for n, rec := range raw.records {
		for i := range rec {
			rec[i] = driver.ValidateFieldValue(rec[i])
		}

		rec[idx.customerID] = normalizeCustomerID(field(rec, idx.customerID))
		rec[idx.description] = strings.TrimSpace(field(rec, idx.description))
		if isMissing(rec[idx.customerID]) || isMissing(rec[idx.description]) {
			stats.DroppedMissing++
			continue
		}

		tx, err := toTransaction(rec, idx)
		if err != nil {
			// header is line 1
			return nil, stats, fmt.Errorf("line %d: %w", n+2, err)
		}
		if tx.Quantity <= 0 {
			stats.DroppedQuantity++
			continue
		}
		if err := tx.Validate(); err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", n+2, err)
		}

		rec[idx.quantity] = strconv.FormatInt(tx.Quantity, 10)
		rec[idx.invoiceDate] = formatDatetime(tx.InvoiceDate)
		kept = append(kept, rec)
	}

	stats.Kept = len(kept)
	return kept, stats, nil
}

// toTransaction converts a row with a present CustomerID and Description.
// Quantity is parsed before InvoiceDate so rows dropped for quantity never need a valid date.
func toTransaction(rec Record, idx columnIndex) (model.Transaction, error) {
	tx := model.Transaction{
		InvoiceNo:   strings.TrimSpace(field(rec, idx.invoiceNo)),
		StockCode:   strings.TrimSpace(field(rec, idx.stockCode)),
		Description: field(rec, idx.description),
		CustomerID:  field(rec, idx.customerID),
		Country:     strings.TrimSpace(field(rec, idx.country)),
	}

	quantity, err := parseQuantity(field(rec, idx.quantity))
	if err != nil {
		return tx, err
	}
	tx.Quantity = quantity
	if quantity <= 0 {
		return tx, nil
	}

	if price := strings.TrimSpace(field(rec, idx.unitPrice)); price != "" {
		tx.UnitPrice, err = strconv.ParseFloat(price, 64)
		if err != nil {
			return tx, fmt.Errorf("invalid UnitPrice %q", price)
		}
	}

	tx.InvoiceDate, err = parseDatetime(field(rec, idx.invoiceDate))
	if err != nil {
		return tx, err
	}
	return tx, nil
}

// parseQuantity accepts integers and integral floats such as "6.0" (spreadsheet exports).
// A missing quantity parses as 0 so the row is dropped with the non-positive ones.
func parseQuantity(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if isMissing(value) {
		return 0, nil
	}
	if q, err := strconv.ParseInt(value, 10, 64); err == nil {
		return q, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid Quantity %q", value)
	}
	return int64(f), nil
}

// normalizeCustomerID turns the float rendering of an integer id ("17850.0") into "17850".
func normalizeCustomerID(value string) string {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, ".") {
		return value
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return value
	}
	return strconv.FormatInt(int64(f), 10)
}
