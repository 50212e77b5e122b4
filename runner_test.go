package retailsql

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/retailsql/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedQuery struct {
	name string
	rows int
	err  error
}

type recordingObserver struct {
	mu      sync.Mutex
	queries []observedQuery
}

func (o *recordingObserver) ObserveQuery(name string, _ time.Duration, rows int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, observedQuery{name: name, rows: rows, err: err})
}

func (o *recordingObserver) last() observedQuery {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queries[len(o.queries)-1]
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := openCSV(t, sampleHeader+
		baskets("A", 3, "17850", "MUG", "CUP")+
		baskets("B", 1, "13047", "PLATE"))
	observer := &recordingObserver{}
	runner := newTestRunner(t, store, WithObserver(observer))

	t.Run("top products", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryTopProducts, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Description", "TotalSold"}, result.ColumnNames())
		assert.Equal(t, []string{"CUP", "MUG", "PLATE"}, result.Strings("Description"))
		assert.Equal(t, []float64{3, 3, 1}, result.Float64s("TotalSold"))
		assert.Equal(t, observedQuery{name: QueryTopProducts, rows: 3}, observer.last())
	})

	t.Run("revenue is rounded", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryRevenuePerProduct, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{7.5, 7.5, 2.5}, result.Float64s("Revenue"))
	})

	t.Run("top customers", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryTopCustomers, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"17850", "6"}, {"13047", "1"}}, result.StringRows())
	})

	t.Run("dataset summary", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryDatasetSummary, nil)
		require.NoError(t, err)
		require.Equal(t, 1, result.Len())
		assert.Equal(t, []string{"Transactions", "Invoices", "Customers", "Products", "Revenue", "FirstInvoice", "LastInvoice"}, result.ColumnNames())
		assert.Equal(t, []string{"7", "4", "2", "3", "17.5", "2010-12-01 08:26:00", "2010-12-01 08:26:00"}, result.StringRows()[0])
	})

	t.Run("unknown query", func(t *testing.T) {
		result, err := runner.Run(ctx, "NO_SUCH_QUERY", nil)
		require.ErrorIs(t, err, ErrQueryNotFound)
		require.NotNil(t, result)
		assert.True(t, result.Empty())
		assert.Equal(t, UnknownQueryName, observer.last().name)
		require.ErrorIs(t, observer.last().err, ErrQueryNotFound)
	})

	t.Run("missing parameter", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryFrequentlyBoughtTogether, nil)
		var missing *MissingParameterError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{ParamProductDescription}, missing.Missing)
		assert.True(t, result.Empty())
	})
}

func TestRunner_QueryError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := openCSV(t, sampleHeader+baskets("A", 1, "1", "MUG"))
	catalog, err := ParseCatalog(strings.NewReader("-- broken\nSELECT nope FROM missing_table\n-- write\nDELETE FROM onlineretail\n"))
	require.NoError(t, err)
	runner := NewRunner(store, catalog)

	result, err := runner.Run(ctx, "BROKEN", nil)
	require.ErrorIs(t, err, ErrQueryExecution)
	assert.True(t, result.Empty())

	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "BROKEN", qerr.Query)
	assert.Equal(t, "SELECT nope FROM missing_table", qerr.SQL)
	assert.Contains(t, err.Error(), "error executing query BROKEN")
	assert.False(t, IsTerminal(err))

	err = runner.Exec(ctx, "WRITE", nil)
	require.ErrorIs(t, err, ErrQueryExecution)
	require.ErrorIs(t, err, driver.ErrStatementRejected)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRunner_Defaults(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, Params{ParamMinFrequency: DefaultMinFrequency}, NewRunner(nil, catalog).Defaults())
	assert.Equal(t, Params{ParamMinFrequency: 3, "x": "y"},
		NewRunner(nil, catalog, WithMinFrequency(3), WithDefaults(Params{"x": "y"})).Defaults())

	runner := NewRunner(nil, catalog)
	defaults := runner.Defaults()
	defaults[ParamMinFrequency] = 1
	assert.Equal(t, DefaultMinFrequency, runner.Defaults()[ParamMinFrequency], "Defaults returns a copy")
	assert.Same(t, catalog, runner.Catalog())
}

func TestRunner_FrequentlyBoughtTogether(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// a duplicate line inside one invoice must not inflate the count
	dup := "X0000,SC0,KEYRING,1,12/1/2010 8:26,2.5,17850,United Kingdom\n"
	store := openCSV(t, sampleHeader+baskets("X", 2, "17850", "KEYRING", "LANTERN")+dup)
	runner := newTestRunner(t, store, WithMinFrequency(0))

	require.NoError(t, runner.DropView(ctx, CooccurrenceView))
	require.NoError(t, runner.Exec(ctx, QueryCreateCooccurrenceView, nil))

	result, err := runner.Run(ctx, QueryFrequentlyBoughtTogether, Params{ParamProductDescription: "KEYRING"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"LANTERN", "2"}}, result.StringRows())

	t.Run("pairs are symmetric", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryFrequentlyBoughtTogether, Params{ParamProductDescription: "LANTERN"})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"KEYRING", "2"}}, result.StringRows())
	})

	t.Run("threshold is strictly greater", func(t *testing.T) {
		result, err := runner.Run(ctx, QueryFrequentlyBoughtTogether, Params{
			ParamProductDescription: "KEYRING",
			ParamMinFrequency:       2,
		})
		require.NoError(t, err)
		assert.True(t, result.Empty())
	})

	t.Run("view is recreated", func(t *testing.T) {
		err := runner.Exec(ctx, QueryCreateCooccurrenceView, nil)
		require.ErrorIs(t, err, ErrQueryExecution, "view already exists")
		require.NoError(t, runner.DropView(ctx, CooccurrenceView))
		require.NoError(t, runner.Exec(ctx, QueryCreateCooccurrenceView, nil))
	})
}
