package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	mid "github.com/litgraph/backend/internal/server/middleware"
	"github.com/litgraph/backend/pkg/ai"
	"github.com/litgraph/backend/pkg/archive"
	"github.com/litgraph/backend/pkg/graph"
	"github.com/litgraph/backend/pkg/pipeline"

	"github.com/labstack/echo/v4"
)

const validGraph = `{"nodes":[{"id":"Alice","weight":5},{"id":"Bob","weight":2}],"edges":[{"source":"Alice","target":"Bob","type":"interaction","description":"Alice helps Bob","label":"helps","weight":3}]}`

type stubSource struct {
	books map[int64]string
}

func (s stubSource) Fetch(_ context.Context, id int64) (string, error) {
	text, ok := s.books[id]
	if !ok {
		return "", archive.ErrNotFound
	}
	return text, nil
}

type stubModel struct {
	calls atomic.Int32
	reply string
	err   error
}

func (m *stubModel) GenerateChat(context.Context, []ai.ChatMessage, ...ai.GenerateOption) (string, error) {
	m.calls.Add(1)
	return m.reply, m.err
}

func (m *stubModel) ResetMetrics() {}

func (m *stubModel) GetMetrics() ai.ModelMetrics {
	return ai.ModelMetrics{Requests: int(m.calls.Load())}
}

func newTestServer(t *testing.T, model *stubModel, frontendDir string) *echo.Echo {
	t.Helper()

	schema, err := json.Marshal(graph.Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}

	app := &mid.App{
		Pipeline: pipeline.New(pipeline.Params{
			Source:    stubSource{books: map[int64]string{1234: "front<<CHAPTER I>>Alice meets Bob."}},
			Extractor: graph.NewExtractor(graph.NewExtractorParams{Client: model}),
		}),
		AiClient: model,
		Schema:   schema,
	}
	return NewEcho(app, frontendDir)
}

func postAnalyze(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type analyzeReply struct {
	Result *graph.Graph `json:"result"`
	Error  string       `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) analyzeReply {
	t.Helper()
	var r analyzeReply
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return r
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &stubModel{}, "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		modelErr  error
		reply     string
		wantCode  int
		wantError string
	}{
		{name: "numeric id", body: `{"book_id": 1234}`, reply: validGraph, wantCode: http.StatusOK},
		{name: "string id with part", body: `{"book_id": "1234", "part_index": 9}`, reply: validGraph, wantCode: http.StatusOK},
		{name: "negative part index", body: `{"book_id": 1234, "part_index": -3}`, reply: validGraph, wantCode: http.StatusOK},
		{name: "missing id", body: `{}`, wantCode: http.StatusBadRequest, wantError: "Missing book_id"},
		{name: "zero id", body: `{"book_id": 0}`, wantCode: http.StatusBadRequest, wantError: "Missing book_id"},
		{name: "negative id", body: `{"book_id": -5}`, wantCode: http.StatusBadRequest, wantError: "Book ID must be an integer"},
		{name: "null id", body: `{"book_id": null}`, wantCode: http.StatusBadRequest, wantError: "Missing book_id"},
		{name: "non-integer id", body: `{"book_id": "abc"}`, wantCode: http.StatusBadRequest, wantError: "Book ID must be an integer"},
		{name: "fractional id", body: `{"book_id": 12.5}`, wantCode: http.StatusBadRequest, wantError: "Book ID must be an integer"},
		{name: "broken json", body: `{"book_id":`, wantCode: http.StatusBadRequest, wantError: "Invalid request body"},
		{name: "unknown book", body: `{"book_id": 9999999}`, wantCode: http.StatusNotFound, wantError: "Book not found or unable to fetch"},
		{name: "model failure", body: `{"book_id": 1234}`, modelErr: errors.New("upstream exploded"), wantCode: http.StatusInternalServerError, wantError: "upstream exploded"},
		{name: "malformed output", body: `{"book_id": 1234}`, reply: "no graph here", wantCode: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &stubModel{reply: tc.reply, err: tc.modelErr}
			e := newTestServer(t, model, "")

			rec := postAnalyze(e, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("POST /analyze %s = %d, want %d (%s)", tc.body, rec.Code, tc.wantCode, rec.Body.String())
			}

			r := decode(t, rec)
			if tc.wantCode == http.StatusOK {
				if r.Result == nil || len(r.Result.Nodes) != 2 {
					t.Fatalf("result = %+v", r.Result)
				}
				return
			}
			if r.Error == "" {
				t.Fatalf("error body missing: %s", rec.Body.String())
			}
			if tc.wantError != "" && r.Error != tc.wantError {
				t.Fatalf("error = %q, want %q", r.Error, tc.wantError)
			}
		})
	}
}

func TestAnalyze_ServesRepeatRequestsFromCache(t *testing.T) {
	model := &stubModel{reply: validGraph}
	e := newTestServer(t, model, "")

	for range 3 {
		if rec := postAnalyze(e, `{"book_id": 1234}`); rec.Code != http.StatusOK {
			t.Fatalf("POST /analyze = %d", rec.Code)
		}
	}
	if model.calls.Load() != 1 {
		t.Fatalf("model calls = %d, want 1", model.calls.Load())
	}
}

func TestAnalyze_RequestID(t *testing.T) {
	e := newTestServer(t, &stubModel{reply: validGraph}, "")

	rec := postAnalyze(e, `{"book_id": 1234}`)
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("response has no request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "caller-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "caller-id" {
		t.Fatalf("request id = %q, want caller-id", got)
	}
}

func TestCORS(t *testing.T) {
	e := newTestServer(t, &stubModel{}, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestGraphSchema(t *testing.T) {
	e := newTestServer(t, &stubModel{}, "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph/schema", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/graph/schema = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"nodes"`) || !strings.Contains(body, `"edges"`) {
		t.Fatalf("schema = %s", body)
	}
}

func TestModelMetrics(t *testing.T) {
	model := &stubModel{reply: validGraph}
	e := newTestServer(t, model, "")
	postAnalyze(e, `{"book_id": 1234}`)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var m ai.ModelMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if m.Requests != 1 {
		t.Fatalf("requests = %d, want 1", m.Requests)
	}
}

func TestFrontendFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestServer(t, &stubModel{reply: validGraph}, dir)

	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: "<html>app</html>"},
		{path: "/books/1234", want: "<html>app</html>"},
		{path: "/assets/app.js", want: "console.log(1)"},
		{path: "/health", want: "OK"},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != tc.want {
			t.Fatalf("GET %s = %d %q, want %q", tc.path, rec.Code, rec.Body.String(), tc.want)
		}
	}

	if rec := postAnalyze(e, `{"book_id": 1234}`); rec.Code != http.StatusOK {
		t.Fatalf("POST /analyze with frontend = %d", rec.Code)
	}
}
