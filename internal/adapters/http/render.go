package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/listutil"
	"academy/internal/application/workflow"
	"academy/internal/domain/attendance"
	"academy/internal/domain/ledger"
	"academy/internal/domain/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// staticFS serves /static/... from the embedded static directory.
//
//go:embed static
var staticFS embed.FS

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "request_id", middleware.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

var baseFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"decisionClass": func(d ledger.Decision) string {
		switch d {
		case ledger.Present:
			return "present"
		case ledger.Absent:
			return "absent"
		}
		return "unset"
	},
	"cellClass": func(c attendance.Cell) string {
		switch c {
		case attendance.CellPresent:
			return "present"
		case attendance.CellAbsent:
			return "absent"
		}
		return "none"
	},
	"money": func(v float64) string { return formatMoney(v) },
	// pageURL links to a roster page, keeping search and sort.
	"pageURL": func(path string, p listutil.ListParams, page int) template.URL {
		return withQuery(path, p.Query(page))
	},
	"withQuery": withQuery,
	// sortBy sorts on col, flipping the direction when col is already active.
	"sortBy": func(p listutil.ListParams, col string) listutil.ListParams {
		dir := "asc"
		if p.Sort == col && !p.Desc() {
			dir = "desc"
		}
		p.Sort, p.Dir = col, dir
		return p
	},
	"perPageOptions": func() []int { return listutil.PerPageOptions },
}

func withQuery(path, query string) template.URL {
	if query == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + query)
}

// page is the data every template receives.
type page struct {
	Title   string
	Session *session.Session
	Notices []workflow.Notice
	Data    any
}

// renderTemplate renders the named page inside the layout.
func renderTemplate(w http.ResponseWriter, r *http.Request, name, title string, data any, notices ...workflow.Notice) {
	renderStatus(w, r, http.StatusOK, name, title, data, notices...)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, notices ...workflow.Notice) {
	funcs := template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
	}
	tpl, err := template.New("layout.html").Funcs(baseFuncs).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		internalError(w, r, err)
		return
	}

	p := page{Title: title, Data: data, Notices: append(takeFlash(w, r), notices...)}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		p.Session = &sess
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func logWarn(r *http.Request, event string, err error) {
	slog.Warn(event, "request_id", middleware.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
