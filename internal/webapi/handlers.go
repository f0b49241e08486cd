// Package webapi implements the REST API that serves derived subject
// statistics to the dashboard and to scripted clients.
package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gradestat/gradestat/internal/reporting"
	"github.com/gradestat/gradestat/internal/statistics"
	"github.com/gradestat/gradestat/internal/store"
	"github.com/gradestat/gradestat/internal/subject"
)

// Version is set at build time or defaults to dev.
var Version = "0.3.0"

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store      SubjectStore
	opts       statistics.Options
	confidence float64
}

// NewHandlers creates a new Handlers with the given store. The options are
// the sampler defaults that interval queries may override, and confidence is
// the default confidence level.
func NewHandlers(store SubjectStore, opts statistics.Options, confidence float64) *Handlers {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	return &Handlers{store: store, opts: opts, confidence: confidence}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleSubjects returns a list of all subjects with their scaled moments.
func (h *Handlers) HandleSubjects(w http.ResponseWriter, _ *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]SubjectSummary, 0, len(entries))
	for _, e := range entries {
		s, err := h.subjectByID(e.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summaries = append(summaries, summarize(s))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleSubjectDetail returns a single subject with its published tables and
// both scaled-mark and grade-domain moments.
func (h *Handlers) HandleSubjectDetail(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "subject id is required")
		return
	}

	f, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subject not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s, err := f.ToSubject()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d := s.GradeDistribution()
	writeJSON(w, http.StatusOK, SubjectDetail{
		SubjectSummary: summarize(s),
		Boundaries:     f.Boundaries,
		Distribution:   f.Distribution,
		GradeMean:      d.Mean(),
		GradeStdDev:    d.StdDev(),
	})
}

// HandleInterval returns a confidence interval for the average grade of a
// group of n candidates. Query parameters: n (required), confidence,
// replicates, seed, workers, precision, and method=normal to use the normal
// approximation instead of the bootstrap.
func (h *Handlers) HandleInterval(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "subject id is required")
		return
	}
	s, ok := h.loadSubject(w, id)
	if !ok {
		return
	}

	q := r.URL.Query()
	n, err := intParam(q, "n", 0)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "query parameter n must be a positive integer")
		return
	}
	confidence, err := floatParam(q, "confidence", h.confidence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := h.opts
	if opts.Replicates, err = intParam(q, "replicates", opts.Replicates); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Workers, err = intParam(q, "workers", opts.Workers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Precision, err = intParam(q, "precision", opts.Precision); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Seed, err = int64Param(q, "seed", opts.Seed); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ci statistics.ConfidenceInterval
	method := "bootstrap"
	if q.Get("method") == "normal" {
		method = "normal"
		ci, err = s.NormalApproxInterval(n, confidence, opts.Precision)
	} else {
		ci, err = s.AverageGradeIntervalWithOptions(r.Context(), n, confidence, opts)
	}
	if err != nil {
		if errors.Is(err, statistics.ErrInvalidGroupSize) || errors.Is(err, statistics.ErrInvalidConfidence) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, IntervalResponse{
		SubjectID:  id,
		GroupSize:  n,
		Method:     method,
		Interval:   ci,
		Commentary: reporting.InterpretInterval(ci, n),
	})
}

// HandleZScore standardizes a scaled mark against the subject's cohort.
// Query parameter mark is required.
func (h *Handlers) HandleZScore(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "subject id is required")
		return
	}
	s, ok := h.loadSubject(w, id)
	if !ok {
		return
	}

	mark, err := strconv.ParseFloat(r.URL.Query().Get("mark"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter mark must be a number")
		return
	}

	z, err := s.ZScore(mark)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ZScoreResponse{
		SubjectID:  id,
		Mark:       mark,
		Mean:       s.ScaledMean(),
		StdDev:     s.ScaledStdDev(),
		ZScore:     z,
		Commentary: reporting.InterpretZScore(z),
	})
}

// HandleReport renders the subject report as a standalone HTML page.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "subject id is required")
		return
	}
	s, ok := h.loadSubject(w, id)
	if !ok {
		return
	}

	page, err := reporting.HTMLReport(s, 0, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store SubjectStore, opts statistics.Options, confidence float64) {
	h := NewHandlers(store, opts, confidence)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/subjects", h.HandleSubjects)
	mux.HandleFunc("GET /api/subjects/{id}", h.HandleSubjectDetail)
	mux.HandleFunc("GET /api/subjects/{id}/interval", h.HandleInterval)
	mux.HandleFunc("GET /api/subjects/{id}/zscore", h.HandleZScore)
	mux.HandleFunc("GET /api/subjects/{id}/report", h.HandleReport)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// subjectID extracts the {id} path segment, with a fallback parse for
// handlers invoked outside the mux.
func subjectID(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/subjects/"), "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// subjectByID loads a bulletin from the store and compiles it.
func (h *Handlers) subjectByID(id string) (*subject.Subject, error) {
	f, err := h.store.Get(id)
	if err != nil {
		return nil, err
	}
	return f.ToSubject()
}

// loadSubject resolves an ID to a compiled subject, writing the appropriate
// error response on failure.
func (h *Handlers) loadSubject(w http.ResponseWriter, id string) (*subject.Subject, bool) {
	s, err := h.subjectByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subject not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return s, true
}

func summarize(s *subject.Subject) SubjectSummary {
	return SubjectSummary{
		ID:           s.ID(),
		Name:         s.Name(),
		Level:        s.Level(),
		Grades:       s.Scale().Len(),
		ScaledMean:   s.ScaledMean(),
		ScaledStdDev: s.ScaledStdDev(),
	}
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	return n, nil
}

func int64Param(q url.Values, name string, def int64) (int64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	return n, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be a number", name)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
