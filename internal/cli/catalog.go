package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newCatalogCommand(opts *globalOptions) *cobra.Command {
	var showSQL bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the queries of the query catalog",
		Long: `List the named queries of the configured catalog with their placeholders.

Examples:
  retailsql catalog
  retailsql catalog --sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.newApp()
			if err != nil {
				return err
			}
			catalog, err := app.Catalog()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "PARAMETERS"}
			if showSQL {
				headers = append(headers, "SQL")
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(borderStyle).
				Headers(headers...).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, q := range catalog.Templates() {
				row := []string{q.Name, strings.Join(q.Params, ", ")}
				if showSQL {
					row = append(row, q.SQL)
				}
				t.Row(row...)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", false, "Include the SQL text")
	return cmd
}
