package retailsql

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ScreenKind identifies one of the dashboard's navigation tabs
type ScreenKind string

const (
	// ScreenOverview shows the dataset summary and the top products
	ScreenOverview ScreenKind = "overview"
	// ScreenCustomers shows the top customers
	ScreenCustomers ScreenKind = "customers"
	// ScreenRecommendations shows co-occurrence and per-customer recommendations
	ScreenRecommendations ScreenKind = "recommendations"
)

// Screens lists the navigation tabs in display order
var Screens = []ScreenKind{ScreenOverview, ScreenCustomers, ScreenRecommendations}

// Title returns the navigation label of the screen
func (k ScreenKind) Title() string {
	switch k {
	case ScreenCustomers:
		return "Customer Insights"
	case ScreenRecommendations:
		return "Product Recommendations"
	default:
		return "Overview & Top Products"
	}
}

// ParseScreenKind converts a navigation value to ScreenKind. An empty value selects the overview.
func ParseScreenKind(value string) (ScreenKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ScreenOverview):
		return ScreenOverview, nil
	case string(ScreenCustomers), "customer-insights":
		return ScreenCustomers, nil
	case string(ScreenRecommendations), "recommendation":
		return ScreenRecommendations, nil
	default:
		return ScreenOverview, fmt.Errorf("unknown screen %q", value)
	}
}

// NoticeLevel is the severity of an inline notice
type NoticeLevel string

const (
	// NoticeError reports a failed query; the section table is empty
	NoticeError NoticeLevel = "error"
	// NoticeWarning reports missing selection data or a rejected selection
	NoticeWarning NoticeLevel = "warning"
	// NoticeInfo reports a successful query without rows
	NoticeInfo NoticeLevel = "info"
)

// Notice is a message rendered inline in a section
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Selector is a drop-down whose options come from the dataset
type Selector struct {
	// Name is the request parameter carrying the selection
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// Section is one titled block of a screen
type Section struct {
	Title    string    `json:"title"`
	Caption  string    `json:"caption,omitempty"`
	Selector *Selector `json:"selector,omitempty"`
	Result   *Result   `json:"result"`
	Chart    *BarChart `json:"chart,omitempty"`
	Notices  []Notice  `json:"notices,omitempty"`
}

func (s *Section) notify(level NoticeLevel, format string, args ...any) {
	s.Notices = append(s.Notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Screen is a fully built dashboard tab
type Screen struct {
	Kind     ScreenKind `json:"kind"`
	Title    string     `json:"title"`
	Sections []Section  `json:"sections"`
}

// HasErrors reports whether any section carries an error notice
func (s *Screen) HasErrors() bool {
	for _, section := range s.Sections {
		for _, n := range section.Notices {
			if n.Level == NoticeError {
				return true
			}
		}
	}
	return false
}

// Selection carries the user's choices on the recommendations screen.
// Empty fields select the first option.
type Selection struct {
	Product  string
	Customer string
}

// Selection parameter names
const (
	SelectProduct  = "product"
	SelectCustomer = "customer"
)

// Dashboard builds screens from catalog queries. Query failures become notices on the
// affected section and never abort the screen.
type Dashboard struct {
	runner *Runner
	logger zerolog.Logger
	// viewMu serializes the drop, recreate and read sequence of the co-occurrence view
	viewMu sync.Mutex
}

// NewDashboard creates a dashboard over runner
func NewDashboard(runner *Runner, logger zerolog.Logger) *Dashboard {
	return &Dashboard{runner: runner, logger: logger}
}

// Build builds the screen of the given kind
func (d *Dashboard) Build(ctx context.Context, kind ScreenKind, sel Selection) (*Screen, error) {
	switch kind {
	case ScreenOverview:
		return d.Overview(ctx), nil
	case ScreenCustomers:
		return d.CustomerInsights(ctx), nil
	case ScreenRecommendations:
		return d.Recommendations(ctx, sel), nil
	default:
		return nil, fmt.Errorf("unknown screen %q", kind)
	}
}

// Overview builds the dataset summary and the top products by quantity and revenue
func (d *Dashboard) Overview(ctx context.Context) *Screen {
	screen := &Screen{Kind: ScreenOverview, Title: "Online Retail Data Analysis"}

	if _, ok := d.runner.Catalog().Get(QueryDatasetSummary); ok {
		screen.Sections = append(screen.Sections, d.tableSection(ctx, "Dataset Summary", QueryDatasetSummary, nil, nil))
	}
	screen.Sections = append(screen.Sections,
		d.tableSection(ctx, "Top 10 Most Purchased Products", QueryTopProducts, nil, &ChartSpec{
			Title: "Top 10 Products by Quantity Sold", X: "Description", Y: "TotalSold",
			XLabel: "Product", YLabel: "Total Quantity Sold",
		}),
		d.tableSection(ctx, "Top 10 Products by Revenue", QueryRevenuePerProduct, nil, &ChartSpec{
			Title: "Top 10 Products by Revenue", X: "Description", Y: "Revenue",
			XLabel: "Product", YLabel: "Total Revenue",
		}),
	)
	return screen
}

// CustomerInsights builds the top customers by units purchased
func (d *Dashboard) CustomerInsights(ctx context.Context) *Screen {
	return &Screen{
		Kind:  ScreenCustomers,
		Title: "Customer Insights",
		Sections: []Section{
			d.tableSection(ctx, "Top 10 Customers by Purchase Volume", QueryTopCustomers, nil, &ChartSpec{
				Title: "Top 10 Customers by Total Units Purchased", X: "CustomerID", Y: "TotalUnits",
				XLabel: "Customer ID", YLabel: "Total Units Purchased",
			}),
		},
	}
}

// Recommendations recreates the co-occurrence view, then builds the frequently bought
// together section for the selected product and the recommendations for the selected customer.
func (d *Dashboard) Recommendations(ctx context.Context, sel Selection) *Screen {
	d.viewMu.Lock()
	defer d.viewMu.Unlock()

	screen := &Screen{Kind: ScreenRecommendations, Title: "Product Recommendation Engine"}

	fbt := Section{Title: "Frequently Bought Together (by Product)", Result: EmptyResult()}
	if err := d.recreateView(ctx); err != nil {
		fbt.notify(NoticeError, "Error creating view: %v", err)
	}
	d.productSection(ctx, &fbt, sel.Product)

	recs := Section{Title: "Product Recommendations for a Specific Customer", Result: EmptyResult()}
	d.customerSection(ctx, &recs, sel.Customer)

	screen.Sections = []Section{fbt, recs}
	return screen
}

// RunQuery runs a catalog query by name. Queries that read the co-occurrence view get
// a freshly created view, under the same lock the recommendations screen takes.
func (d *Dashboard) RunQuery(ctx context.Context, name string, params Params) (*Result, error) {
	if !d.readsView(name) {
		return d.runner.Run(ctx, name, params)
	}

	d.viewMu.Lock()
	defer d.viewMu.Unlock()
	if err := d.recreateView(ctx); err != nil {
		return EmptyResult(), err
	}
	return d.runner.Run(ctx, name, params)
}

// readsView reports whether the named query selects from the co-occurrence view
func (d *Dashboard) readsView(name string) bool {
	if name == QueryCreateCooccurrenceView {
		return false
	}
	tmpl, ok := d.runner.Catalog().Get(name)
	return ok && strings.Contains(tmpl.SQL, CooccurrenceView)
}

// recreateView drops and recreates the co-occurrence view
func (d *Dashboard) recreateView(ctx context.Context) error {
	if err := d.runner.DropView(ctx, CooccurrenceView); err != nil {
		return err
	}
	return d.runner.Exec(ctx, QueryCreateCooccurrenceView, nil)
}

func (d *Dashboard) productSection(ctx context.Context, section *Section, requested string) {
	products, err := d.runner.Run(ctx, QueryProductDescriptions, nil)
	if err != nil {
		section.notify(NoticeError, "%v", err)
		return
	}
	options := products.Strings("Description")
	if len(options) == 0 {
		section.notify(NoticeWarning, "No product descriptions available for selection.")
		return
	}

	selected := d.choose(section, options, requested, "product")
	section.Selector = &Selector{
		Name:     SelectProduct,
		Label:    "Select a Product to see what's frequently bought with it:",
		Options:  options,
		Selected: selected,
	}

	result, err := d.runner.Run(ctx, QueryFrequentlyBoughtTogether, Params{ParamProductDescription: selected})
	section.Result = result
	switch {
	case err != nil:
		section.notify(NoticeError, "%v", err)
	case result.Empty():
		section.notify(NoticeInfo, "No frequently bought together products found for '%s' (frequency > %v).", selected, d.threshold())
	default:
		section.Caption = fmt.Sprintf("Products frequently bought with %s:", selected)
		section.Chart = BuildChart(ChartSpec{
			Title: "Products Frequently Bought with " + selected, X: "ProductB", Y: "Frequency",
			XLabel: "Frequently Bought Product", YLabel: "Frequency",
		}, result)
	}
}

func (d *Dashboard) customerSection(ctx context.Context, section *Section, requested string) {
	customers, err := d.runner.Run(ctx, QueryCustomerIDs, nil)
	if err != nil {
		section.notify(NoticeError, "%v", err)
		return
	}
	options := customers.Strings("CustomerID")
	if len(options) == 0 {
		section.notify(NoticeWarning, "No customer IDs available for selection.")
		return
	}

	selected := d.choose(section, options, requested, "customer")
	section.Selector = &Selector{
		Name:     SelectCustomer,
		Label:    "Select a Customer ID to get recommendations:",
		Options:  options,
		Selected: selected,
	}

	result, err := d.runner.Run(ctx, QueryCustomerRecommendations, Params{ParamCustomerID: selected})
	section.Result = result
	switch {
	case err != nil:
		section.notify(NoticeError, "%v", err)
	case result.Empty():
		section.notify(NoticeInfo, "No recommendations found for Customer ID %s. This might be because the customer hasn't "+
			"purchased products that frequently appear with others above the frequency threshold, or the customer "+
			"hasn't made any purchases.", selected)
	default:
		section.Caption = fmt.Sprintf("Recommended products for Customer ID %s:", selected)
		section.Chart = BuildChart(ChartSpec{
			Title: "Recommended Products for Customer " + selected, X: "RecommendedProduct", Y: "Strength",
			XLabel: "Recommended Product", YLabel: "Recommendation Strength",
		}, result)
	}
}

// choose returns requested if it is one of options and the first option otherwise.
// A non-empty requested value that is not an option adds a warning.
func (d *Dashboard) choose(section *Section, options []string, requested, what string) string {
	if requested == "" {
		return options[0]
	}
	if slices.Contains(options, requested) {
		return requested
	}
	d.logger.Warn().Str(what, requested).Msg("rejected selection not present in dataset")
	section.notify(NoticeWarning, "Unknown %s %q; showing %q instead.", what, requested, options[0])
	return options[0]
}

func (d *Dashboard) threshold() any {
	return d.runner.Defaults()[ParamMinFrequency]
}

// tableSection runs a query and turns it into a section with an optional chart
func (d *Dashboard) tableSection(ctx context.Context, title, query string, params Params, chart *ChartSpec) Section {
	section := Section{Title: title}
	result, err := d.runner.Run(ctx, query, params)
	section.Result = result
	if err != nil {
		section.notify(NoticeError, "%v", err)
		return section
	}
	if chart != nil {
		section.Chart = BuildChart(*chart, result)
	}
	return section
}
