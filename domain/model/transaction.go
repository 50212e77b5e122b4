package model

import (
	"fmt"
	"strings"
	"time"
)

// Column names of the retail transactions dataset.
const (
	ColumnInvoiceNo   = "InvoiceNo"
	ColumnStockCode   = "StockCode"
	ColumnDescription = "Description"
	ColumnQuantity    = "Quantity"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnUnitPrice   = "UnitPrice"
	ColumnCustomerID  = "CustomerID"
	ColumnCountry     = "Country"
)

// RequiredColumns lists the header columns a dataset must provide.
var RequiredColumns = []string{
	ColumnCustomerID,
	ColumnDescription,
	ColumnQuantity,
	ColumnInvoiceDate,
	ColumnInvoiceNo,
	ColumnUnitPrice,
}

// InvoiceDateLayout is the layout InvoiceDate values are stored with.
// SQLite date and time functions understand it directly.
const InvoiceDateLayout = "2006-01-02 15:04:05"

// Transaction is one retained row of the retail dataset.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int64
	UnitPrice   float64
	InvoiceDate time.Time
	CustomerID  string
	Country     string
}

// Revenue returns Quantity * UnitPrice.
func (t Transaction) Revenue() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// Validate checks the invariants every retained transaction satisfies.
func (t Transaction) Validate() error {
	switch {
	case strings.TrimSpace(t.CustomerID) == "":
		return fmt.Errorf("%w: invoice %s has no customer id", ErrInvalidTransaction, t.InvoiceNo)
	case strings.TrimSpace(t.Description) == "":
		return fmt.Errorf("%w: invoice %s has no description", ErrInvalidTransaction, t.InvoiceNo)
	case t.Quantity <= 0:
		return fmt.Errorf("%w: invoice %s has quantity %d", ErrInvalidTransaction, t.InvoiceNo, t.Quantity)
	case t.InvoiceDate.IsZero():
		return fmt.Errorf("%w: invoice %s has no invoice date", ErrInvalidTransaction, t.InvoiceNo)
	}
	return nil
}
