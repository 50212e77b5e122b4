package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/logging"
)

// apiResponse is the envelope of every JSON response
type apiResponse struct {
	Status   string             `json:"status"`
	Data     any                `json:"data"`
	Notices  []retailsql.Notice `json:"notices,omitempty"`
	Metadata metadata           `json:"metadata"`
	Error    *apiError          `json:"error,omitempty"`
}

type metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// apiError carries a machine readable code and a message
type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func newMetadata(r *http.Request, started time.Time) metadata {
	md := metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !started.IsZero() {
		md.QueryTimeMS = time.Since(started).Milliseconds()
	}
	return md
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *apiResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, r *http.Request, started time.Time, data any, notices []retailsql.Notice) {
	respondJSON(w, r, http.StatusOK, &apiResponse{
		Status:   "success",
		Data:     data,
		Notices:  notices,
		Metadata: newMetadata(r, started),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Str("code", code).Msg(message)
	}
	respondJSON(w, r, status, &apiResponse{
		Status:   "error",
		Metadata: newMetadata(r, time.Time{}),
		Error:    &apiError{Code: code, Message: message, Details: details},
	})
}
