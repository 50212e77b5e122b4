package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/nao1215/retailsql"
	"github.com/nao1215/retailsql/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// chartWidth is the drawing width of the longest bar in pixels
const chartWidth = 480

type navItem struct {
	Kind   retailsql.ScreenKind
	Title  string
	Active bool
}

type pageData struct {
	Nav     []navItem
	Screen  *retailsql.Screen
	Notices []retailsql.Notice
	// Selections holds the current selector values so that changing one keeps the others
	Selections map[string]string
}

func parsePage() (*template.Template, error) {
	return template.New("index.html").Funcs(template.FuncMap{
		"bars": func(c *retailsql.BarChart) []retailsql.Bar {
			return c.Bars(chartWidth)
		},
		"barY": func(i int) int {
			return i * 28
		},
		"chartHeight": func(c *retailsql.BarChart) int {
			return len(c.Points)*28 + 4
		},
		"value": func(v float64) string {
			return retailsql.FormatValue(v)
		},
	}).ParseFS(templateFS, "templates/index.html")
}

// handleIndex renders the selected screen as HTML
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{Selections: map[string]string{}}

	kind, err := retailsql.ParseScreenKind(q.Get("screen"))
	if err != nil {
		data.Notices = append(data.Notices, retailsql.Notice{
			Level:   retailsql.NoticeWarning,
			Message: fmt.Sprintf("Unknown screen %q; showing the overview.", q.Get("screen")),
		})
	}
	for _, k := range retailsql.Screens {
		data.Nav = append(data.Nav, navItem{Kind: k, Title: k.Title(), Active: k == kind})
	}

	status := http.StatusOK
	dashboard, err := s.app.Dashboard(r.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
		data.Notices = append(data.Notices, retailsql.Notice{Level: retailsql.NoticeError, Message: err.Error()})
	} else {
		screen, err := dashboard.Build(r.Context(), kind, selection(r))
		if err != nil {
			data.Notices = append(data.Notices, retailsql.Notice{Level: retailsql.NoticeError, Message: err.Error()})
		}
		data.Screen = screen
	}
	if data.Screen != nil {
		for _, section := range data.Screen.Sections {
			if section.Selector != nil {
				data.Selections[section.Selector.Name] = section.Selector.Selected
			}
		}
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write page")
	}
}
