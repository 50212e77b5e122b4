package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/logging"
)

// Query string keys the export endpoint reads itself; they are never bound as parameters
const (
	formatParam      = "format"
	compressionParam = "compression"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) (*retailsql.Dashboard, bool) {
	dashboard, err := s.app.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return nil, false
	}
	return dashboard, true
}

func (s *Server) runner(w http.ResponseWriter, r *http.Request) (*retailsql.Runner, bool) {
	runner, err := s.app.Runner(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return nil, false
	}
	return runner, true
}

// handleHealth reports whether the dataset is loaded and queryable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	store, err := s.app.Store(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return
	}
	if err := store.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return
	}
	rows, err := store.Count(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return
	}
	respondData(w, r, started, map[string]any{
		"status":   "ok",
		"table":    store.TableName(),
		"rows":     rows,
		"sealed":   store.Sealed(),
		"cleaning": store.Stats(),
	}, nil)
}

// handleScreen returns one dashboard screen as JSON. Section failures are carried as notices.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	kind, err := retailsql.ParseScreenKind(chi.URLParam(r, "screen"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "SCREEN_NOT_FOUND", err.Error(), map[string]any{"screens": retailsql.Screens})
		return
	}
	dashboard, err := s.app.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return
	}
	screen, err := dashboard.Build(r.Context(), kind, selection(r))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "SCREEN_NOT_FOUND", err.Error(), nil)
		return
	}
	respondData(w, r, started, screen, nil)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.respondOptions(w, r, retailsql.QueryProductDescriptions, "Description", "No product descriptions available for selection.")
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	s.respondOptions(w, r, retailsql.QueryCustomerIDs, "CustomerID", "No customer IDs available for selection.")
}

// respondOptions serves the selectable values of one dataset column
func (s *Server) respondOptions(w http.ResponseWriter, r *http.Request, query, column, emptyMessage string) {
	runner, ok := s.runner(w, r)
	if !ok {
		return
	}
	started := time.Now()
	result, err := runner.Run(r.Context(), query, nil)
	options := result.Strings(column)
	if options == nil {
		options = []string{}
	}

	var notices []retailsql.Notice
	switch {
	case err != nil:
		notices = append(notices, retailsql.Notice{Level: retailsql.NoticeError, Message: err.Error()})
	case len(options) == 0:
		notices = append(notices, retailsql.Notice{Level: retailsql.NoticeWarning, Message: emptyMessage})
	}
	respondData(w, r, started, map[string]any{"options": options}, notices)
}

// handleQueries lists the catalog with the parameters each query takes
func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.app.Catalog()
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
		return
	}
	runner, ok := s.runner(w, r)
	if !ok {
		return
	}
	respondData(w, r, time.Time{}, map[string]any{
		"queries":  catalog.Templates(),
		"defaults": runner.Defaults(),
	}, nil)
}

// handleQuery runs a catalog query with the query string bound as parameters
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	started := time.Now()
	name := chi.URLParam(r, "name")
	result, err := dashboard.RunQuery(r.Context(), name, queryParams(r))
	if err != nil {
		if respondQueryError(w, r, err) {
			return
		}
		respondData(w, r, started, result, []retailsql.Notice{{Level: retailsql.NoticeError, Message: err.Error()}})
		return
	}

	var notices []retailsql.Notice
	if result.Empty() {
		notices = append(notices, retailsql.Notice{Level: retailsql.NoticeInfo, Message: fmt.Sprintf("Query %s returned no rows.", name)})
	}
	respondData(w, r, started, result, notices)
}

// handleExport runs a catalog query and returns the result as a file download
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := retailsql.ParseOutputFormat(q.Get(formatParam))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_FORMAT", err.Error(), nil)
		return
	}
	compression, err := retailsql.ParseCompressionType(q.Get(compressionParam))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_COMPRESSION", err.Error(), nil)
		return
	}
	if compression == retailsql.CompressionBZ2 {
		respondError(w, r, http.StatusBadRequest, "INVALID_COMPRESSION", "bz2 is supported for dataset input only", nil)
		return
	}

	dashboard, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	result, err := dashboard.RunQuery(r.Context(), name, queryParams(r))
	if err != nil {
		if respondQueryError(w, r, err) {
			return
		}
		respondError(w, r, http.StatusUnprocessableEntity, "QUERY_FAILED", err.Error(), nil)
		return
	}

	opts := retailsql.NewDumpOptions().WithFormat(format).WithCompression(compression)
	var buf bytes.Buffer
	if err := result.Export(&buf, opts); err != nil {
		respondError(w, r, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), nil)
		return
	}

	contentType := format.ContentType()
	if compression != retailsql.CompressionNone {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ToLower(name)+opts.FileExtension()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("query", name).Msg("failed to write export")
	}
}

// respondQueryError answers request errors: an unknown query or a missing parameter.
// It returns false for execution failures, which the caller reports itself.
func respondQueryError(w http.ResponseWriter, r *http.Request, err error) bool {
	var missing *retailsql.MissingParameterError
	switch {
	case errors.Is(err, retailsql.ErrQueryNotFound):
		respondError(w, r, http.StatusNotFound, "QUERY_NOT_FOUND", err.Error(), nil)
		return true
	case errors.As(err, &missing):
		respondError(w, r, http.StatusBadRequest, "MISSING_PARAMETER", err.Error(), map[string]any{"missing": missing.Missing})
		return true
	default:
		return false
	}
}

// queryParams binds every query string value except the export options
func queryParams(r *http.Request) retailsql.Params {
	values := make(map[string]string)
	for key, v := range r.URL.Query() {
		if key == formatParam || key == compressionParam || len(v) == 0 {
			continue
		}
		values[key] = v[0]
	}
	return retailsql.ParamsFromStrings(values)
}

func selection(r *http.Request) retailsql.Selection {
	q := r.URL.Query()
	return retailsql.Selection{
		Product:  q.Get(retailsql.SelectProduct),
		Customer: q.Get(retailsql.SelectCustomer),
	}
}
