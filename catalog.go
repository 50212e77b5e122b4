package retailsql

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
)

//go:embed queries.sql
var defaultQueries string

// Query names the dashboard runs.
const (
	QueryTopProducts              = "TOP_10_MOST_PURCHASED_PRODUCTS"
	QueryRevenuePerProduct        = "TOTAL_REVENUE_PER_PRODUCT"
	QueryTopCustomers             = "TOP_CUSTOMERS_BY_PURCHASE_VOLUME"
	QueryCreateCooccurrenceView   = "CREATE_FREQUENTLY_BOUGHT_TOGETHER_VIEW"
	QueryProductDescriptions      = "GET_ALL_PRODUCT_DESCRIPTIONS"
	QueryFrequentlyBoughtTogether = "GET_FREQUENTLY_BOUGHT_TOGETHER_FOR_PRODUCT"
	QueryCustomerIDs              = "GET_ALL_CUSTOMER_IDS"
	QueryCustomerRecommendations  = "GET_PRODUCT_RECOMMENDATIONS_FOR_CUSTOMER"
	QueryDatasetSummary           = "DATASET_SUMMARY"
)

// RequiredQueries are the names a catalog must define for the dashboard to start.
// QueryDatasetSummary is optional; the overview skips it when absent.
var RequiredQueries = []string{
	QueryTopProducts,
	QueryRevenuePerProduct,
	QueryTopCustomers,
	QueryCreateCooccurrenceView,
	QueryProductDescriptions,
	QueryFrequentlyBoughtTogether,
	QueryCustomerIDs,
	QueryCustomerRecommendations,
}

// markerPrefix starts a line that names the following query
const markerPrefix = "-- "

// Catalog maps query names to templates. It is read-only after parsing.
type Catalog struct {
	queries map[string]QueryTemplate
	order   []string
}

// ParseCatalog reads "-- NAME" delimited SQL templates.
//
// A trimmed line starting with "-- " names the query that follows; the name is trimmed,
// spaces become underscores and it is uppercased. Other non-blank lines are trimmed and
// belong to the most recent marker. Lines before the first marker are ignored, a marker
// without lines is not recorded, and a repeated name replaces the earlier query.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	c := &Catalog{queries: make(map[string]QueryTemplate)}

	var (
		current string
		lines   []string
	)
	flush := func() {
		if current == "" || len(lines) == 0 {
			return
		}
		if _, exists := c.queries[current]; !exists {
			c.order = append(c.order, current)
		}
		c.queries[current] = newQueryTemplate(current, strings.TrimSpace(strings.Join(lines, "\n")))
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, markerPrefix):
			flush()
			current = normalizeQueryName(line[len(markerPrefix):])
			lines = nil
		case line != "":
			if current != "" {
				lines = append(lines, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query catalog: %w", err)
	}
	flush()
	return c, nil
}

// normalizeQueryName turns "top 10 most purchased products" into "TOP_10_MOST_PURCHASED_PRODUCTS"
func normalizeQueryName(marker string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(marker), " ", "_"))
}

// LoadCatalog parses the catalog file at path.
// A missing file yields ErrCatalogNotFound and a file without queries yields ErrEmptyCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // catalog path comes from the operator's configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewErrorContext("load catalog", path).Error(ErrCatalogNotFound)
		}
		return nil, NewErrorContext("load catalog", path).Error(err)
	}
	defer f.Close()
	return parseNonEmpty(f, path)
}

// LoadCatalogFS parses the named catalog file of fsys
func LoadCatalogFS(fsys fs.FS, name string) (*Catalog, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewErrorContext("load catalog", name).Error(ErrCatalogNotFound)
		}
		return nil, NewErrorContext("load catalog", name).Error(err)
	}
	defer f.Close()
	return parseNonEmpty(f, name)
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() (*Catalog, error) {
	return parseNonEmpty(strings.NewReader(defaultQueries), "queries.sql (embedded)")
}

func parseNonEmpty(r io.Reader, name string) (*Catalog, error) {
	c, err := ParseCatalog(r)
	if err != nil {
		return nil, NewErrorContext("load catalog", name).Error(err)
	}
	if c.Len() == 0 {
		return nil, NewErrorContext("load catalog", name).Error(ErrEmptyCatalog)
	}
	return c, nil
}

// Get returns the named template
func (c *Catalog) Get(name string) (QueryTemplate, bool) {
	t, ok := c.queries[name]
	return t, ok
}

// Len returns the number of queries
func (c *Catalog) Len() int {
	return len(c.queries)
}

// Names returns the query names in file order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Templates returns every template in file order
func (c *Catalog) Templates() []QueryTemplate {
	out := make([]QueryTemplate, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.queries[name])
	}
	return out
}

// Require returns an ErrMissingQuery error listing every name the catalog lacks
func (c *Catalog) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := c.queries[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingQuery, strings.Join(missing, ", "))
}
