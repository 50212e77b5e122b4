package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/metrics"
	"github.com/nao1215/retailsql/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Load the dataset and the query catalog, then serve the dashboard.

The dataset and the catalog are read once at startup. A missing or malformed
dataset, or a catalog without the required queries, stops the server before
it listens.

Examples:
  retailsql serve                         # listen on 127.0.0.1:8501
  retailsql serve --port 8080             # listen on another port
  retailsql serve --config retailsql.yaml # use a config file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				opts.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port = port
			}
			if err := opts.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen address (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "P", 0, "Listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions) error {
	m := metrics.New()

	app, err := opts.newApp(retailsql.WithQueryObserver(m))
	if err != nil {
		return err
	}
	if err := app.Init(ctx); err != nil {
		_ = app.Close()
		return err
	}
	store, err := app.Store(ctx)
	if err != nil {
		return err
	}
	m.SetDataset(store.Stats())

	srv, err := server.New(app, m, opts.cfg.Server)
	if err != nil {
		_ = app.Close()
		return err
	}
	return srv.Run(ctx)
}
