package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nao1215/retailsql"
	"github.com/spf13/cobra"
)

const defaultTimeout = 5 * time.Minute

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		params      []string
		output      string
		format      string
		compression string
		timeout     = defaultTimeout
	)
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Export the result of a catalog query",
		Long: `Run a named query and write its result as CSV, TSV, LTSV, XLSX or Parquet.

Without -o the result is written to standard output.

Examples:
  retailsql export TOTAL_REVENUE_PER_PRODUCT -o revenue.csv
  retailsql export TOP_CUSTOMERS_BY_PURCHASE_VOLUME -o customers.xlsx --format xlsx
  retailsql export GET_ALL_CUSTOMER_IDS --format tsv --compression zstd -o ids.tsv.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			outputFormat, err := retailsql.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			compressionType, err := retailsql.ParseCompressionType(compression)
			if err != nil {
				return err
			}
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

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, createErr := os.Create(output) //nolint:gosec // output path is chosen by the user
				if createErr != nil {
					return fmt.Errorf("failed to create %s: %w", output, createErr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil {
						err = errors.Join(err, fmt.Errorf("failed to close %s: %w", output, cerr))
					}
				}()
				w = f
			}
			dump := retailsql.NewDumpOptions().WithFormat(outputFormat).WithCompression(compressionType)
			return result.Export(w, dump)
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: standard output)")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, tsv, ltsv, xlsx or parquet")
	cmd.Flags().StringVar(&compression, "compression", "none", "Output compression: none, gz, xz or zstd")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "Maximum time to load the dataset and run the query")
	return cmd
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
