// Package retailsql is an analytics dashboard over a static retail transactions dataset.
//
// It loads the dataset into an in-memory SQLite table, runs named SQL templates from a
// query catalog with bound parameters, and builds three dashboard screens from the
// results: Overview, Customer Insights and Product Recommendations.
//
// # Features
//
//   - CSV (ISO-8859-1 by default), TSV, Excel (XLSX) and Parquet datasets
//   - Automatic handling of compressed files (gzip, bzip2, xz, zstandard)
//   - Row cleaning: rows without CustomerID or Description and rows with Quantity <= 0 are dropped
//   - A read-only store: after loading, only queries and view definitions are accepted
//   - Query results exported as CSV, TSV, LTSV, XLSX or Parquet
//
// # Basic Usage
//
//	builder, err := retailsql.NewBuilder().AddPath("OnlineRetail.csv").Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := builder.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	catalog, err := retailsql.DefaultCatalog()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := retailsql.NewRunner(store, catalog)
//	top, err := runner.Run(ctx, retailsql.QueryTopProducts, nil)
//
// # Query Catalog
//
// A catalog file holds SQL templates separated by marker lines:
//
//	-- GET FREQUENTLY BOUGHT TOGETHER FOR PRODUCT
//	SELECT ProductB, Frequency
//	FROM FrequentlyBoughtTogether
//	WHERE ProductA = '{product_description}' AND Frequency > {min_frequency}
//
// The marker text becomes the query name (GET_FREQUENTLY_BOUGHT_TOGETHER_FOR_PRODUCT).
// Placeholders are replaced by bound parameters; a quoted placeholder such as
// '{product_description}' is bound as a whole, so values are never spliced into SQL.
//
// # Errors
//
// Dataset and catalog load failures are terminal (see IsTerminal). Query failures are
// not: the runner returns an empty Result together with ErrQueryNotFound, a
// *MissingParameterError or a *QueryError, and the dashboard shows an inline notice.
package retailsql
