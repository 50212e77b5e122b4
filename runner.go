package retailsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Querier is the part of Store the runner needs
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*Result, error)
	Exec(ctx context.Context, query string, args ...any) error
}

// UnknownQueryName is the name observers see for a query missing from the catalog
const UnknownQueryName = "unknown"

// QueryObserver is told about every catalog query the runner executes.
// err is nil on success; rows is 0 for statements. Names not in the catalog are
// reported as UnknownQueryName.
type QueryObserver interface {
	ObserveQuery(name string, duration time.Duration, rows int, err error)
}

// RunnerOption configures a Runner via functional options.
type RunnerOption func(*Runner)

// WithDefaults sets parameter values used when the caller does not pass them
func WithDefaults(defaults Params) RunnerOption {
	return func(r *Runner) {
		for k, v := range defaults {
			r.defaults[k] = v
		}
	}
}

// WithMinFrequency sets the default co-occurrence threshold (min_frequency)
func WithMinFrequency(n int) RunnerOption {
	return func(r *Runner) {
		r.defaults[ParamMinFrequency] = n
	}
}

// WithRunnerLogger sets the logger failures are reported to
func WithRunnerLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver sets the observer every run is reported to
func WithObserver(observer QueryObserver) RunnerOption {
	return func(r *Runner) {
		r.observer = observer
	}
}

// Runner executes catalog queries with bound parameters.
type Runner struct {
	store    Querier
	catalog  *Catalog
	defaults Params
	logger   zerolog.Logger
	observer QueryObserver
}

// NewRunner creates a runner over store and catalog. min_frequency defaults to DefaultMinFrequency.
func NewRunner(store Querier, catalog *Catalog, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		catalog:  catalog,
		defaults: Params{ParamMinFrequency: DefaultMinFrequency},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the runner reads templates from
func (r *Runner) Catalog() *Catalog {
	return r.catalog
}

// Defaults returns a copy of the default parameters
func (r *Runner) Defaults() Params {
	return Params{}.merge(r.defaults)
}

// Run executes the named query. The result is never nil: on any failure it is empty
// and err is ErrQueryNotFound, a *MissingParameterError or a *QueryError.
func (r *Runner) Run(ctx context.Context, name string, params Params) (*Result, error) {
	started := time.Now()
	sql, args, err := r.bind(name, params)
	if err != nil {
		r.report(name, started, 0, err)
		return EmptyResult(), err
	}

	result, err := r.store.Query(ctx, sql, args...)
	if err != nil {
		qerr := &QueryError{Query: name, SQL: sql, Err: err}
		r.report(name, started, 0, qerr)
		return EmptyResult(), qerr
	}
	r.report(name, started, result.Len(), nil)
	return result, nil
}

// Exec executes the named statement, such as a view definition
func (r *Runner) Exec(ctx context.Context, name string, params Params) error {
	started := time.Now()
	sql, args, err := r.bind(name, params)
	if err != nil {
		r.report(name, started, 0, err)
		return err
	}

	if err := r.store.Exec(ctx, sql, args...); err != nil {
		qerr := &QueryError{Query: name, SQL: sql, Err: err}
		r.report(name, started, 0, qerr)
		return qerr
	}
	r.report(name, started, 0, nil)
	return nil
}

// DropView removes the named view if it exists
func (r *Runner) DropView(ctx context.Context, name string) error {
	started := time.Now()
	query := fmt.Sprintf(`DROP VIEW IF EXISTS "%s"`, name)
	if err := r.store.Exec(ctx, query); err != nil {
		qerr := &QueryError{Query: "DROP_VIEW", SQL: query, Err: err}
		r.report("DROP_VIEW", started, 0, qerr)
		return qerr
	}
	return nil
}

// bind looks the template up and binds params merged over the defaults
func (r *Runner) bind(name string, params Params) (string, []any, error) {
	tmpl, ok := r.catalog.Get(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrQueryNotFound, name)
	}
	return tmpl.Bind(params.merge(r.defaults))
}

func (r *Runner) report(name string, started time.Time, rows int, err error) {
	took := time.Since(started)
	if r.observer != nil {
		observed := name
		if errors.Is(err, ErrQueryNotFound) {
			observed = UnknownQueryName
		}
		r.observer.ObserveQuery(observed, took, rows, err)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("query", name).Dur("took", took).Msg("query failed")
		return
	}
	r.logger.Debug().Str("query", name).Int("rows", rows).Dur("took", took).Msg("query executed")
}
