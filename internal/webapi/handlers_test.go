package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/statistics"
	"github.com/gradestat/gradestat/internal/store"
	"github.com/gradestat/gradestat/internal/subject"
)

// mockStore implements SubjectStore for testing.
type mockStore struct {
	files   map[string]*bulletin.File
	listErr error
	getErr  error
}

func newMockStore() *mockStore {
	return &mockStore{files: make(map[string]*bulletin.File)}
}

func (m *mockStore) add(f *bulletin.File) { m.files[f.ID] = f }

func (m *mockStore) List() ([]store.Entry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	entries := make([]store.Entry, 0, len(m.files))
	for _, f := range m.files {
		entries = append(entries, store.Entry{
			ID:     f.ID,
			Name:   f.Name,
			Level:  f.Level,
			Grades: len(f.Boundaries),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *mockStore) Get(id string) (*bulletin.File, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	f, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return f, nil
}

var _ SubjectStore = (*mockStore)(nil)

// econBulletin is a published May-session economics table. Its scaled mean
// works out to 57.1235 and its grade-domain mean to 5.245.
func econBulletin() *bulletin.File {
	return &bulletin.File{
		ID:    "econ-hl",
		Name:  "Economics",
		Level: "HL",
		Boundaries: map[string]subject.Band{
			"1": {Low: 0, High: 14},
			"2": {Low: 15, High: 26},
			"3": {Low: 27, High: 37},
			"4": {Low: 38, High: 49},
			"5": {Low: 50, High: 56},
			"6": {Low: 57, High: 67},
			"7": {Low: 68, High: 100},
		},
		Distribution: map[string]float64{
			"1": 0.002, "2": 0.021, "3": 0.073, "4": 0.212,
			"5": 0.201, "6": 0.308, "7": 0.183,
		},
	}
}

func mathBulletin() *bulletin.File {
	return &bulletin.File{
		ID:   "math-sl",
		Name: "Mathematics",
		Boundaries: map[string]subject.Band{
			"1": {Low: 0, High: 49},
			"2": {Low: 50, High: 100},
		},
		Distribution: map[string]float64{"1": 0.4, "2": 0.6},
	}
}

func newTestHandlers(files ...*bulletin.File) *Handlers {
	st := newMockStore()
	for _, f := range files {
		st.add(f)
	}
	return NewHandlers(st, statistics.DefaultOptions(), 0.95)
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %q", health.Status)
	}
	if health.Version == "" {
		t.Error("expected non-empty version")
	}
}

func TestHandleSubjects(t *testing.T) {
	h := newTestHandlers(econBulletin(), mathBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjects(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summaries []SubjectSummary
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(summaries))
	}
	if summaries[0].ID != "econ-hl" || summaries[1].ID != "math-sl" {
		t.Errorf("expected sorted IDs econ-hl, math-sl, got %q, %q", summaries[0].ID, summaries[1].ID)
	}

	econ := summaries[0]
	if econ.Grades != 7 {
		t.Errorf("expected 7 grades, got %d", econ.Grades)
	}
	if math.Abs(econ.ScaledMean-57.1235) > 1e-6 {
		t.Errorf("expected scaled mean 57.1235, got %v", econ.ScaledMean)
	}
	if econ.Level != "HL" {
		t.Errorf("expected level HL, got %q", econ.Level)
	}
}

func TestHandleSubjectDetail(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjectDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var detail SubjectDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != "econ-hl" {
		t.Errorf("expected econ-hl, got %q", detail.ID)
	}
	if detail.Boundaries["7"].High != 100 {
		t.Errorf("expected top band high 100, got %d", detail.Boundaries["7"].High)
	}
	if len(detail.Distribution) != 7 {
		t.Errorf("expected 7 distribution entries, got %d", len(detail.Distribution))
	}
	if math.Abs(detail.GradeMean-5.245) > 1e-9 {
		t.Errorf("expected grade mean 5.245, got %v", detail.GradeMean)
	}
	if detail.GradeStdDev <= 0 {
		t.Errorf("expected positive grade std dev, got %v", detail.GradeStdDev)
	}
}

func TestHandleSubjectDetailNotFound(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/missing", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjectDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != http.StatusNotFound {
		t.Errorf("expected error code 404, got %d", errResp.Code)
	}
}

func TestHandleSubjectDetailMissingID(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjectDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleInterval(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/interval?n=20&replicates=2000&seed=42", nil)
	rec := httptest.NewRecorder()
	h.HandleInterval(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp IntervalResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SubjectID != "econ-hl" {
		t.Errorf("expected econ-hl, got %q", resp.SubjectID)
	}
	if resp.GroupSize != 20 {
		t.Errorf("expected group size 20, got %d", resp.GroupSize)
	}
	if resp.Method != "bootstrap" {
		t.Errorf("expected bootstrap method, got %q", resp.Method)
	}
	if resp.Interval.Replicates != 2000 {
		t.Errorf("expected 2000 replicates, got %d", resp.Interval.Replicates)
	}
	if math.Abs(resp.Interval.Mean-5.245) > 1e-9 {
		t.Errorf("expected exact mean 5.245, got %v", resp.Interval.Mean)
	}
	if resp.Interval.Lower > resp.Interval.Upper {
		t.Errorf("lower %v above upper %v", resp.Interval.Lower, resp.Interval.Upper)
	}
	if resp.Interval.Lower < 1 || resp.Interval.Upper > 7 {
		t.Errorf("interval [%v, %v] outside grade scale", resp.Interval.Lower, resp.Interval.Upper)
	}
	if !strings.Contains(resp.Commentary, "group of 20 candidates") {
		t.Errorf("unexpected commentary %q", resp.Commentary)
	}

	// Same seed, same interval.
	rec2 := httptest.NewRecorder()
	h.HandleInterval(rec2, httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/interval?n=20&replicates=2000&seed=42", nil))
	var resp2 IntervalResponse
	if err := json.NewDecoder(rec2.Body).Decode(&resp2); err != nil {
		t.Fatal(err)
	}
	if resp2.Interval.Lower != resp.Interval.Lower || resp2.Interval.Upper != resp.Interval.Upper {
		t.Errorf("same seed produced different intervals: [%v, %v] vs [%v, %v]",
			resp.Interval.Lower, resp.Interval.Upper, resp2.Interval.Lower, resp2.Interval.Upper)
	}
}

func TestHandleIntervalNormalApproximation(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/interval?n=20&method=normal", nil)
	rec := httptest.NewRecorder()
	h.HandleInterval(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp IntervalResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Method != "normal" {
		t.Errorf("expected normal method, got %q", resp.Method)
	}
	if resp.Interval.Lower != 4.67 || resp.Interval.Upper != 5.82 {
		t.Errorf("expected [4.67, 5.82], got [%v, %v]", resp.Interval.Lower, resp.Interval.Upper)
	}
	if resp.Interval.Replicates != 0 {
		t.Errorf("expected 0 replicates for normal approximation, got %d", resp.Interval.Replicates)
	}
}

func TestHandleIntervalMissingN(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/interval", nil)
	rec := httptest.NewRecorder()
	h.HandleInterval(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleIntervalBadParams(t *testing.T) {
	h := newTestHandlers(econBulletin())

	for _, query := range []string{
		"n=abc",
		"n=0",
		"n=-3",
		"n=20&confidence=1.5",
		"n=20&confidence=oops",
		"n=20&seed=1.5",
		"n=20&replicates=many",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/interval?"+query, nil)
		rec := httptest.NewRecorder()
		h.HandleInterval(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestHandleZScore(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/zscore?mark=50", nil)
	rec := httptest.NewRecorder()
	h.HandleZScore(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ZScoreResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mark != 50 {
		t.Errorf("expected mark 50, got %v", resp.Mark)
	}
	if math.Abs(resp.ZScore-(-0.42154067261440004)) > 1e-6 {
		t.Errorf("expected z close to -0.4215, got %v", resp.ZScore)
	}
	if math.Abs(resp.Mean-57.1235) > 1e-6 {
		t.Errorf("expected mean 57.1235, got %v", resp.Mean)
	}
	if !strings.Contains(resp.Commentary, "Close to the world mean") {
		t.Errorf("unexpected commentary %q", resp.Commentary)
	}
}

func TestHandleZScoreMissingMark(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/zscore", nil)
	rec := httptest.NewRecorder()
	h.HandleZScore(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleReport(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/report", nil)
	rec := httptest.NewRecorder()
	h.HandleReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Economics</title>") {
		t.Error("expected report title")
	}
	if !strings.Contains(body, "<table>") {
		t.Error("expected rendered grade table")
	}
}

func TestHandleSubjectsStoreError(t *testing.T) {
	st := newMockStore()
	st.listErr = errors.New("list failed")
	h := NewHandlers(st, statistics.DefaultOptions(), 0.95)

	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjects(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != http.StatusInternalServerError {
		t.Errorf("expected error code 500, got %d", errResp.Code)
	}
	if !strings.Contains(errResp.Error, "list failed") {
		t.Errorf("expected error message to contain list failed, got %q", errResp.Error)
	}
}

func TestHandleSubjectsGetError(t *testing.T) {
	st := newMockStore()
	st.add(econBulletin())
	h := NewHandlers(st, statistics.DefaultOptions(), 0.95)
	st.getErr = errors.New("read failed")

	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjects(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandleIntervalNotFound(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/missing/interval?n=5", nil)
	rec := httptest.NewRecorder()
	h.HandleInterval(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleZScoreDegenerateSubject(t *testing.T) {
	flat := &bulletin.File{
		ID:         "flat",
		Name:       "Flat",
		Boundaries: map[string]subject.Band{"4": {Low: 40, High: 40}},
		Distribution: map[string]float64{
			"4": 1.0,
		},
	}
	h := newTestHandlers(flat)

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/flat/zscore?mark=40", nil)
	rec := httptest.NewRecorder()
	h.HandleZScore(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errResp.Error, "standard deviation") {
		t.Errorf("expected degenerate distribution message, got %q", errResp.Error)
	}
}

func TestHandleSubjectDetailFallbackPathExtraction(t *testing.T) {
	h := newTestHandlers(econBulletin())

	req := httptest.NewRequest(http.MethodGet, "/api/subjects/econ-hl/more", nil)
	rec := httptest.NewRecorder()
	h.HandleSubjectDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var detail SubjectDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != "econ-hl" {
		t.Errorf("expected econ-hl, got %q", detail.ID)
	}
}

func TestRegisterRoutes(t *testing.T) {
	st := newMockStore()
	st.add(econBulletin())

	mux := http.NewServeMux()
	RegisterRoutes(mux, st, statistics.DefaultOptions(), 0.95)

	for _, path := range []string{
		"/api/health",
		"/api/subjects",
		"/api/subjects/econ-hl",
		"/api/subjects/econ-hl/interval?n=5&replicates=200&seed=1",
		"/api/subjects/econ-hl/zscore?mark=60",
		"/api/subjects/econ-hl/report",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestCORSMiddlewareAllowedOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware(inner, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}

func TestCORSMiddlewareDisallowedOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware(inner, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header, got %q", got)
	}
}

func TestCORSMiddlewareOptionsShortCircuit(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})
	handler := CORSMiddleware(inner, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if called {
		t.Error("expected OPTIONS to short-circuit")
	}
}
