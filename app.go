package retailsql

import (
	"context"

	"github.com/rs/zerolog"
)

// AppConfig selects the dataset, the catalog and the query defaults of an App
type AppConfig struct {
	// DatasetPaths are loaded into one table; empty selects DefaultDatasetPath
	DatasetPaths []string
	// CatalogPath is the query catalog file; empty selects the embedded catalog
	CatalogPath string
	// Encoding is the text encoding of CSV and TSV datasets
	Encoding Encoding
	// ChunkSize is the number of rows inserted per transaction
	ChunkSize int
	// MinFrequency is the co-occurrence threshold; 0 selects DefaultMinFrequency
	MinFrequency int
}

// AppOption configures an App via functional options.
type AppOption func(*App)

// WithAppLogger sets the logger passed to the store, the runner and the dashboard
func WithAppLogger(logger zerolog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithQueryObserver sets the observer the runner reports to
func WithQueryObserver(observer QueryObserver) AppOption {
	return func(a *App) {
		a.observer = observer
	}
}

// App holds the process-wide dataset store and query catalog. Both are loaded at most
// once; a load failure is memoized too, so a broken dataset is not re-read per request.
type App struct {
	cfg      AppConfig
	logger   zerolog.Logger
	observer QueryObserver

	store     *Once[*Store]
	catalog   *Once[*Catalog]
	dashboard *Once[*Dashboard]
}

// NewApp creates an App. Nothing is loaded until Init or the first accessor call.
func NewApp(cfg AppConfig, opts ...AppOption) *App {
	if len(cfg.DatasetPaths) == 0 {
		cfg.DatasetPaths = []string{DefaultDatasetPath}
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = DefaultMinFrequency
	}

	a := &App{cfg: cfg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}

	a.store = NewOnce(a.loadStore)
	a.catalog = NewOnce(func(context.Context) (*Catalog, error) { return a.loadCatalog() })
	a.dashboard = NewOnce(a.newDashboard)
	return a
}

func (a *App) loadStore(ctx context.Context) (*Store, error) {
	builder, err := NewBuilder().
		AddPaths(a.cfg.DatasetPaths...).
		WithEncoding(a.cfg.Encoding).
		WithChunkSize(a.cfg.ChunkSize).
		WithLogger(a.logger).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	return builder.Open(ctx)
}

func (a *App) loadCatalog() (*Catalog, error) {
	var (
		catalog *Catalog
		err     error
	)
	if a.cfg.CatalogPath == "" {
		catalog, err = DefaultCatalog()
	} else {
		catalog, err = LoadCatalog(a.cfg.CatalogPath)
	}
	if err != nil {
		return nil, err
	}
	if err := catalog.Require(RequiredQueries...); err != nil {
		return nil, err
	}
	a.logger.Info().Int("queries", catalog.Len()).Str("path", a.cfg.CatalogPath).Msg("query catalog loaded")
	return catalog, nil
}

func (a *App) newDashboard(ctx context.Context) (*Dashboard, error) {
	runner, err := a.Runner(ctx)
	if err != nil {
		return nil, err
	}
	return NewDashboard(runner, a.logger), nil
}

// Init loads the store and the catalog eagerly and returns the first terminal error
func (a *App) Init(ctx context.Context) error {
	if _, err := a.Catalog(); err != nil {
		return err
	}
	if _, err := a.Store(ctx); err != nil {
		return err
	}
	_, err := a.Dashboard(ctx)
	return err
}

// Store returns the dataset store, loading it on first use
func (a *App) Store(ctx context.Context) (*Store, error) {
	return a.store.Get(ctx)
}

// Catalog returns the query catalog, loading it on first use
func (a *App) Catalog() (*Catalog, error) {
	return a.catalog.Get(context.Background())
}

// Runner returns a query runner over the store and the catalog
func (a *App) Runner(ctx context.Context) (*Runner, error) {
	catalog, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return NewRunner(store, catalog,
		WithMinFrequency(a.cfg.MinFrequency),
		WithRunnerLogger(a.logger),
		WithObserver(a.observer),
	), nil
}

// Dashboard returns the shared dashboard
func (a *App) Dashboard(ctx context.Context) (*Dashboard, error) {
	return a.dashboard.Get(ctx)
}

// Close closes the store if it was loaded
func (a *App) Close() error {
	if !a.store.Loaded() {
		return nil
	}
	store, err := a.store.Get(context.Background())
	if err != nil || store == nil {
		return nil
	}
	return store.Close()
}
