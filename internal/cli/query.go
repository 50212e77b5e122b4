package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/nao1215/retailsql"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newQueryCommand(opts *globalOptions) *cobra.Command {
	var (
		params  []string
		asJSON  bool
		timeout = defaultTimeout
	)
	cmd := &cobra.Command{
		Use:   "query NAME",
		Short: "Run a catalog query",
		Long: `Run a named query from the query catalog and print the result.

Placeholders are bound from -p key=value flags. min_frequency defaults to the
configured threshold.

Examples:
  retailsql query TOP_10_MOST_PURCHASED_PRODUCTS
  retailsql query GET_PRODUCT_RECOMMENDATIONS_FOR_CUSTOMER -p customer_id=17850
  retailsql query TOP_CUSTOMERS_BY_PURCHASE_VOLUME --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			app, err := opts.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			dashboard, err := app.Dashboard(ctx)
			if err != nil {
				return err
			}
			result, err := dashboard.RunQuery(ctx, args[0], p)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "Maximum time to load the dataset and run the query")
	return cmd
}

// printResult renders a result as a bordered table followed by the row count
func printResult(w io.Writer, result *retailsql.Result) error {
	if result.Empty() {
		_, err := fmt.Fprintln(w, dimStyle.Render("No rows."))
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(result.ColumnNames()...).
		Rows(result.StringRows()...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d row(s)", result.Len())))
	return err
}
