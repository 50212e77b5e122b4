package retailsql

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleHeader = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"

// openCSV loads UTF-8 CSV text into a new store
func openCSV(t *testing.T, csvText string) *Store {
	t.Helper()

	ctx := context.Background()
	builder, err := NewBuilder().
		AddReader(strings.NewReader(csvText), "retail.csv", FileTypeCSV).
		WithEncoding(EncodingUTF8).
		Build(ctx)
	require.NoError(t, err)

	store, err := builder.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// baskets returns count invoices, each holding one line per product, bought by customer
func baskets(invoicePrefix string, count int, customer string, products ...string) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		for j, product := range products {
			fmt.Fprintf(&b, "%s%04d,SC%d,%s,1,12/1/2010 8:26,2.5,%s,United Kingdom\n", invoicePrefix, i, j, product, customer)
		}
	}
	return b.String()
}

// thresholdDataset has 51 invoices with A and B, 50 invoices with A and C,
// and customer 3 who bought only A.
func thresholdDataset() string {
	return sampleHeader +
		baskets("AB", 51, "1", "PRODUCT A", "PRODUCT B") +
		baskets("AC", 50, "2", "PRODUCT A", "PRODUCT C") +
		baskets("A", 1, "3", "PRODUCT A")
}

// newTestRunner returns a runner over the embedded catalog
func newTestRunner(t *testing.T, store *Store, opts ...RunnerOption) *Runner {
	t.Helper()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	return NewRunner(store, catalog, opts...)
}
