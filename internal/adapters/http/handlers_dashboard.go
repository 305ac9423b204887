package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/projections"
	"academy/internal/domain/session"
)

//go:embed help/*.md
var helpFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// currentSession returns the session RequireAuth guaranteed.
func currentSession(r *http.Request) session.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

// handleDashboard handles GET /dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	result := projections.QueryGetDashboard(projections.GetDashboardQuery{Operator: sess.Operator})
	renderTemplate(w, r, "dashboard.html", result.Title, result)
}

type helpTopic struct {
	Slug  string
	Title string
}

// helpTopics lists the embedded help pages, titled by their first heading.
func helpTopics() ([]helpTopic, error) {
	entries, err := fs.ReadDir(helpFS, "help")
	if err != nil {
		return nil, err
	}
	topics := make([]helpTopic, 0, len(entries))
	for _, e := range entries {
		slug := strings.TrimSuffix(e.Name(), ".md")
		raw, err := helpFS.ReadFile(path.Join("help", e.Name()))
		if err != nil {
			return nil, err
		}
		title, _, _ := strings.Cut(string(raw), "\n")
		topics = append(topics, helpTopic{Slug: slug, Title: strings.TrimSpace(strings.TrimLeft(title, "# "))})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Slug < topics[j].Slug })
	return topics, nil
}

// handleHelp handles GET /help and GET /help/{topic}
func handleHelp(w http.ResponseWriter, r *http.Request) {
	topics, err := helpTopics()
	if err != nil {
		internalError(w, r, err)
		return
	}
	slug := r.PathValue("topic")
	if slug == "" {
		renderTemplate(w, r, "help.html", "Help", map[string]any{"Topics": topics, "Active": ""})
		return
	}

	raw, err := helpFS.ReadFile(path.Join("help", path.Base(slug)+".md"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert(raw, &buf); err != nil {
		internalError(w, r, err)
		return
	}
	renderTemplate(w, r, "help.html", "Help", map[string]any{
		"Topics": topics,
		"Active": slug,
		"Body":   template.HTML(buf.String()),
	})
}

// handlePerf handles GET /api/admin/perf
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if services.Collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes := 15
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 && v <= 24*60 {
		minutes = v
	}
	since := services.Now().Add(-time.Duration(minutes) * time.Minute)
	snap := services.Collector.Snapshot(since, 10)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
