package webserver

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/gradestat/gradestat/internal/webapi"
)

// registerRoutes sets up the API routes and the index page on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	webapi.RegisterRoutes(mux, cfg.Store, cfg.Options, cfg.Confidence)
	mux.HandleFunc("GET /{$}", indexHandler(cfg.Store))
}

// indexHandler renders a minimal HTML index linking each subject to its
// rendered report.
func indexHandler(st webapi.SubjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries, err := st.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>gradestat</title></head>\n<body>\n")
		b.WriteString("<h1>Subjects</h1>\n<ul>\n")
		for _, e := range entries {
			label := e.Name
			if e.Level != "" {
				label += " " + e.Level
			}
			fmt.Fprintf(&b, "<li><a href=\"/api/subjects/%s/report\">%s</a> (%d grades)</li>\n",
				url.PathEscape(e.ID), html.EscapeString(label), e.Grades)
		}
		b.WriteString("</ul>\n</body>\n</html>\n")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(b.String())) //nolint:errcheck
	}
}
