package retailsql

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThresholdDashboard(t *testing.T) *Dashboard {
	t.Helper()
	store := openCSV(t, thresholdDataset())
	return NewDashboard(newTestRunner(t, store), zerolog.Nop())
}

func TestParseScreenKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    ScreenKind
		wantErr bool
	}{
		{input: "", want: ScreenOverview},
		{input: "overview", want: ScreenOverview},
		{input: " Customers ", want: ScreenCustomers},
		{input: "customer-insights", want: ScreenCustomers},
		{input: "recommendations", want: ScreenRecommendations},
		{input: "settings", want: ScreenOverview, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseScreenKind(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}

	assert.Equal(t, "Overview & Top Products", ScreenOverview.Title())
	assert.Equal(t, "Customer Insights", ScreenCustomers.Title())
	assert.Equal(t, "Product Recommendations", ScreenRecommendations.Title())
}

func TestDashboard_Overview(t *testing.T) {
	t.Parallel()

	dashboard := newThresholdDashboard(t)
	screen := dashboard.Overview(context.Background())

	assert.Equal(t, ScreenOverview, screen.Kind)
	assert.False(t, screen.HasErrors())
	require.Len(t, screen.Sections, 3)
	assert.Equal(t, "Dataset Summary", screen.Sections[0].Title)
	assert.Nil(t, screen.Sections[0].Chart)

	top := screen.Sections[1]
	assert.Equal(t, "Top 10 Most Purchased Products", top.Title)
	assert.Equal(t, []string{"PRODUCT A", "PRODUCT B", "PRODUCT C"}, top.Result.Strings("Description"))
	require.NotNil(t, top.Chart)
	assert.Equal(t, "Total Quantity Sold", top.Chart.YAxis)
	assert.Equal(t, ChartPoint{Label: "PRODUCT A", Value: 102}, top.Chart.Points[0])

	revenue := screen.Sections[2]
	require.NotNil(t, revenue.Chart)
	assert.Equal(t, 255.0, revenue.Chart.Points[0].Value)
}

func TestDashboard_OverviewWithoutSummary(t *testing.T) {
	t.Parallel()

	store := openCSV(t, thresholdDataset())
	catalog, err := ParseCatalog(strings.NewReader(
		"-- TOP 10 MOST PURCHASED PRODUCTS\nSELECT Description, SUM(Quantity) AS TotalSold FROM onlineretail GROUP BY Description\n" +
			"-- TOTAL REVENUE PER PRODUCT\nSELECT nope FROM onlineretail\n"))
	require.NoError(t, err)
	dashboard := NewDashboard(NewRunner(store, catalog), zerolog.Nop())

	screen := dashboard.Overview(context.Background())
	require.Len(t, screen.Sections, 2, "the summary is skipped when the catalog lacks it")
	assert.Empty(t, screen.Sections[0].Notices)

	failed := screen.Sections[1]
	assert.True(t, screen.HasErrors())
	require.Len(t, failed.Notices, 1)
	assert.Equal(t, NoticeError, failed.Notices[0].Level)
	assert.Contains(t, failed.Notices[0].Message, "error executing query TOTAL_REVENUE_PER_PRODUCT")
	assert.True(t, failed.Result.Empty())
	assert.Nil(t, failed.Chart)
}

func TestDashboard_CustomerInsights(t *testing.T) {
	t.Parallel()

	screen := newThresholdDashboard(t).CustomerInsights(context.Background())
	require.Len(t, screen.Sections, 1)
	section := screen.Sections[0]
	assert.Equal(t, [][]string{{"1", "102"}, {"2", "100"}, {"3", "1"}}, section.Result.StringRows())
	require.NotNil(t, section.Chart)
	assert.Equal(t, "Customer ID", section.Chart.XAxis)
}

func TestDashboard_Recommendations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dashboard := newThresholdDashboard(t)

	t.Run("defaults select the first options", func(t *testing.T) {
		screen := dashboard.Recommendations(ctx, Selection{})
		require.Len(t, screen.Sections, 2)

		fbt := screen.Sections[0]
		require.NotNil(t, fbt.Selector)
		assert.Equal(t, SelectProduct, fbt.Selector.Name)
		assert.Equal(t, []string{"PRODUCT A", "PRODUCT B", "PRODUCT C"}, fbt.Selector.Options)
		assert.Equal(t, "PRODUCT A", fbt.Selector.Selected)
		// 51 co-occurrences pass the threshold, 50 do not
		assert.Equal(t, [][]string{{"PRODUCT B", "51"}}, fbt.Result.StringRows())
		assert.Empty(t, fbt.Notices)
		assert.Equal(t, "Products frequently bought with PRODUCT A:", fbt.Caption)
		require.NotNil(t, fbt.Chart)

		recs := screen.Sections[1]
		require.NotNil(t, recs.Selector)
		assert.Equal(t, []string{"1", "2", "3"}, recs.Selector.Options)
		assert.Equal(t, "1", recs.Selector.Selected)
		assert.True(t, recs.Result.Empty(), "customer 1 already bought everything above the threshold")
		require.Len(t, recs.Notices, 1)
		assert.Equal(t, NoticeInfo, recs.Notices[0].Level)
		assert.True(t, strings.HasPrefix(recs.Notices[0].Message, "No recommendations found for Customer ID 1."))
	})

	t.Run("selected customer gets recommendations", func(t *testing.T) {
		screen := dashboard.Recommendations(ctx, Selection{Customer: "3"})
		recs := screen.Sections[1]
		assert.Equal(t, "3", recs.Selector.Selected)
		assert.Equal(t, [][]string{{"PRODUCT B", "51"}}, recs.Result.StringRows())
		assert.Empty(t, recs.Notices)
	})

	t.Run("product below the threshold", func(t *testing.T) {
		screen := dashboard.Recommendations(ctx, Selection{Product: "PRODUCT C"})
		fbt := screen.Sections[0]
		assert.True(t, fbt.Result.Empty())
		require.Len(t, fbt.Notices, 1)
		assert.Equal(t, Notice{
			Level:   NoticeInfo,
			Message: "No frequently bought together products found for 'PRODUCT C' (frequency > 50).",
		}, fbt.Notices[0])
		assert.Nil(t, fbt.Chart)
	})

	t.Run("unknown selection falls back with a warning", func(t *testing.T) {
		screen := dashboard.Recommendations(ctx, Selection{Product: "'; DROP VIEW FrequentlyBoughtTogether; --", Customer: "99"})
		fbt := screen.Sections[0]
		assert.Equal(t, "PRODUCT A", fbt.Selector.Selected)
		require.NotEmpty(t, fbt.Notices)
		assert.Equal(t, NoticeWarning, fbt.Notices[0].Level)
		assert.Contains(t, fbt.Notices[0].Message, `showing "PRODUCT A" instead`)

		recs := screen.Sections[1]
		assert.Equal(t, "1", recs.Selector.Selected)
		assert.Equal(t, NoticeWarning, recs.Notices[0].Level)
	})

	t.Run("concurrent screens share the view", func(t *testing.T) {
		var wg sync.WaitGroup
		screens := make([]*Screen, 8)
		for i := range screens {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				screens[i] = dashboard.Recommendations(ctx, Selection{Customer: "3"})
			}(i)
		}
		wg.Wait()
		for _, screen := range screens {
			assert.False(t, screen.HasErrors())
			assert.Equal(t, [][]string{{"PRODUCT B", "51"}}, screen.Sections[1].Result.StringRows())
		}
	})
}

func TestDashboard_RecommendationsViewFailure(t *testing.T) {
	t.Parallel()

	store := openCSV(t, thresholdDataset())
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	broken, err := ParseCatalog(strings.NewReader(
		"-- CREATE FREQUENTLY BOUGHT TOGETHER VIEW\nCREATE VIEW FrequentlyBoughtTogether AS SELEC 1\n"))
	require.NoError(t, err)
	for _, tmpl := range catalog.Templates() {
		if tmpl.Name == QueryCreateCooccurrenceView {
			continue
		}
		broken.queries[tmpl.Name] = tmpl
		broken.order = append(broken.order, tmpl.Name)
	}

	screen := NewDashboard(NewRunner(store, broken), zerolog.Nop()).Recommendations(context.Background(), Selection{})
	fbt := screen.Sections[0]
	require.NotEmpty(t, fbt.Notices)
	assert.Equal(t, NoticeError, fbt.Notices[0].Level)
	assert.True(t, strings.HasPrefix(fbt.Notices[0].Message, "Error creating view: "))
	assert.True(t, screen.HasErrors())
}

func TestDashboard_RunQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("view is created for queries that read it", func(t *testing.T) {
		t.Parallel()
		dashboard := newThresholdDashboard(t)

		result, err := dashboard.RunQuery(ctx, QueryFrequentlyBoughtTogether, Params{"product_description": "PRODUCT A"})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"PRODUCT B", "51"}}, result.StringRows())

		result, err = dashboard.RunQuery(ctx, QueryCustomerRecommendations, Params{"customer_id": int64(3)})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"PRODUCT B", "51"}}, result.StringRows())
	})

	t.Run("other queries run unchanged", func(t *testing.T) {
		t.Parallel()
		dashboard := newThresholdDashboard(t)

		result, err := dashboard.RunQuery(ctx, QueryTopCustomers, nil)
		require.NoError(t, err)
		assert.False(t, result.Empty())

		_, err = dashboard.RunQuery(ctx, "NOPE", nil)
		require.ErrorIs(t, err, ErrQueryNotFound)
	})

	t.Run("concurrent with the recommendations screen", func(t *testing.T) {
		t.Parallel()
		dashboard := newThresholdDashboard(t)

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = dashboard.RunQuery(ctx, QueryFrequentlyBoughtTogether, Params{"product_description": "PRODUCT A"})
			}(i)
			go func() {
				defer wg.Done()
				dashboard.Recommendations(ctx, Selection{})
			}()
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})
}

func TestDashboard_Build(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dashboard := newThresholdDashboard(t)

	for _, kind := range Screens {
		screen, err := dashboard.Build(ctx, kind, Selection{})
		require.NoError(t, err)
		assert.Equal(t, kind, screen.Kind)
	}

	_, err := dashboard.Build(ctx, ScreenKind("settings"), Selection{})
	require.Error(t, err)
}
