// Package cli implements the retailsql command line: the dashboard server and
// one-shot catalog queries and exports against the same dataset.
package cli

import (
	"fmt"
	"strings"

	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/config"
	"github.com/nao1215/retailsql/internal/logging"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand builds the retailsql command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "retailsql",
		Short: "Retail transaction analytics dashboard",
		Long: `retailsql - retail transaction analytics
  - loads an online retail transaction export into an in-memory SQL store
  - serves top products, top customers and product recommendations
  - runs and exports the named queries of the query catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Config file (default: $"+config.ConfigPathEnvVar+", then ./retailsql.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newQueryCommand(opts),
		newCatalogCommand(opts),
		newExportCommand(opts),
	)
	return root
}

// Execute runs the command tree with the process arguments
func Execute() error {
	return NewRootCommand().Execute()
}

// newApp creates the app described by the loaded configuration
func (o *globalOptions) newApp(appOpts ...retailsql.AppOption) (*retailsql.App, error) {
	appCfg, err := o.cfg.AppConfig()
	if err != nil {
		return nil, err
	}
	appOpts = append([]retailsql.AppOption{retailsql.WithAppLogger(logging.WithComponent("retailsql"))}, appOpts...)
	return retailsql.NewApp(appCfg, appOpts...), nil
}

// parseParams converts repeated key=value flags to query parameters
func parseParams(pairs []string) (retailsql.Params, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", pair)
		}
		values[key] = value
	}
	return retailsql.ParamsFromStrings(values), nil
}
