package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/domain"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/extract"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/dbctx"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: want=%d got=%d body=%s", status, rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["error"]; got != msg {
		t.Fatalf("error: want=%q got=%v", msg, got)
	}
}

// check_grammar

type fakeAnalyzer struct {
	in  analysis.Input
	res *analysis.Result
	err error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	f.in = in
	return f.res, f.err
}

func postJSON(h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/check_grammar", h)
	req := httptest.NewRequest(http.MethodPost, "/check_grammar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCheckGrammarValidation(t *testing.T) {
	h := NewAnalysisHandler(logger.NewNop(), &fakeAnalyzer{})
	wantError(t, postJSON(h.CheckGrammar, ""), http.StatusBadRequest, msgNoText)
	wantError(t, postJSON(h.CheckGrammar, `{"goal":"inform"}`), http.StatusBadRequest, msgNoText)
	wantError(t, postJSON(h.CheckGrammar, `{"text":"  \n "}`), http.StatusBadRequest, msgEmptyText)
}

func TestCheckGrammarReturnsRecord(t *testing.T) {
	rec := record.Record{"meta_analysis": map[string]any{"overall_quality_score": 70.0}}
	fa := &fakeAnalyzer{res: &analysis.Result{Record: rec, Status: domain.RunStatusOK}}
	h := NewAnalysisHandler(logger.NewNop(), fa)

	resp := postJSON(h.CheckGrammar, `{"text":"  Some text. ","goal":"persuade"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", resp.Code)
	}
	if fa.in.Text != "Some text." || fa.in.Goal != "persuade" || fa.in.Tone != "" {
		t.Fatalf("input: got=%+v", fa.in)
	}
	meta, _ := decode(t, resp)["meta_analysis"].(map[string]any)
	if meta["overall_quality_score"] != 70.0 {
		t.Fatalf("body: got=%s", resp.Body.String())
	}
}

func TestCheckGrammarReturnsErrorRecordsWith200(t *testing.T) {
	fa := &fakeAnalyzer{res: &analysis.Result{Record: record.UpstreamFailure(errors.New("timeout")), Status: domain.RunStatusUpstreamError}}
	resp := postJSON(NewAnalysisHandler(logger.NewNop(), fa).CheckGrammar, `{"text":"x"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", resp.Code)
	}
	if got := decode(t, resp)["error"]; got != "Failed to analyze text: timeout" {
		t.Fatalf("error: got=%v", got)
	}
}

// upload_file

type stubExtractor struct {
	exts []string
	res  extract.Result
	err  error
}

func (s stubExtractor) Kind() string         { return "stub" }
func (s stubExtractor) Extensions() []string { return s.exts }
func (s stubExtractor) Extract(ctx context.Context, data []byte) (extract.Result, error) {
	return s.res, s.err
}

func newUploadHandler(maxBytes int64, maxText int, extractors ...extract.Extractor) *UploadHandler {
	return NewUploadHandler(UploadHandlerDeps{
		Log:           logger.NewNop(),
		Extractors:    extract.NewRegistry(logger.NewNop(), extractors...),
		MaxBytes:      maxBytes,
		MaxTextLength: maxText,
	})
}

func upload(t *testing.T, h *UploadHandler, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	w, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = w.Write(content)
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}

	r := gin.New()
	r.POST("/upload_file", h.UploadFile)
	req := httptest.NewRequest(http.MethodPost, "/upload_file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadFileRequestErrors(t *testing.T) {
	h := newUploadHandler(16, 0, stubExtractor{exts: []string{"pdf"}, res: extract.Ok("text", "stub")})

	r := gin.New()
	r.POST("/upload_file", h.UploadFile)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload_file", strings.NewReader(`{}`)))
	wantError(t, rec, http.StatusBadRequest, msgNoFilePart)

	wantError(t, upload(t, h, "document", "a.pdf", []byte("x")), http.StatusBadRequest, msgNoFilePart)
	wantError(t, upload(t, h, "file", "", []byte("x")), http.StatusBadRequest, msgNoSelectedFile)
	wantError(t, upload(t, h, "file", "a.pdf", bytes.Repeat([]byte("x"), 17)), http.StatusRequestEntityTooLarge, msgTooLarge)
	wantError(t, upload(t, h, "file", "notes.TXT", []byte("x")), http.StatusUnsupportedMediaType, "Unsupported file type: .txt")
}

func TestUploadFileExtractionOutcomes(t *testing.T) {
	h := newUploadHandler(0, 0,
		stubExtractor{exts: []string{"pdf"}, res: extract.Failed("No text could be extracted from the PDF. It may be scanned or contain only images.")},
		stubExtractor{exts: []string{"docx"}, res: extract.Ok("   ", "stub")},
		stubExtractor{exts: []string{"xlsx"}, err: errors.New("disk full")},
		extract.NewImage(nil),
	)

	wantError(t, upload(t, h, "file", "scan.pdf", []byte("x")), http.StatusUnprocessableEntity,
		"No text could be extracted from the PDF. It may be scanned or contain only images.")
	wantError(t, upload(t, h, "file", "blank.docx", []byte("x")), http.StatusUnprocessableEntity, msgNoExtracted)
	wantError(t, upload(t, h, "file", "book.xlsx", []byte("x")), http.StatusInternalServerError, "Error processing file: disk full")
	wantError(t, upload(t, h, "file", "photo.JPG", []byte("x")), http.StatusNotImplemented, msgOCRUnavailable)
}

func TestUploadFileSuccessAndTruncation(t *testing.T) {
	h := newUploadHandler(0, 5, stubExtractor{exts: []string{"pdf", "docx"}, res: extract.Ok("Hello world", "stub")})

	rec := upload(t, h, "file", "essay.pdf", []byte("%PDF"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["text"] != "Hello" {
		t.Fatalf("text: want=Hello got=%v", body["text"])
	}
	if body["warning"] != "Text was truncated to 5 characters due to length limitations." {
		t.Fatalf("warning: got=%v", body["warning"])
	}

	h = newUploadHandler(0, 0, stubExtractor{exts: []string{"docx"}, res: extract.Ok("Short.", "stub")})
	body = decode(t, upload(t, h, "file", "a.docx", []byte("x")))
	if _, ok := body["warning"]; ok || body["text"] != "Short." {
		t.Fatalf("untruncated body: got=%v", body)
	}
}

// lexicon

type fakeLexicon struct {
	err error
}

func (f fakeLexicon) Synonyms(ctx context.Context, word string) ([]string, error) {
	return []string{"glad", word}, f.err
}
func (f fakeLexicon) Antonyms(ctx context.Context, word string) ([]string, error) {
	return []string{}, f.err
}

func TestLexiconHandlers(t *testing.T) {
	h := NewLexiconHandler(logger.NewNop(), fakeLexicon{})
	r := gin.New()
	r.GET("/get_synonyms/:word", h.Synonyms)
	r.GET("/get_antonyms/:word", h.Antonyms)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_synonyms/happy", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"synonyms":["glad","happy"]`) {
		t.Fatalf("synonyms: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_antonyms/happy", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"antonyms":[]`) {
		t.Fatalf("antonyms: got=%d %s", rec.Code, rec.Body.String())
	}

	h = NewLexiconHandler(logger.NewNop(), fakeLexicon{err: errors.New("model offline")})
	r = gin.New()
	r.GET("/get_synonyms/:word", h.Synonyms)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_synonyms/happy", nil))
	wantError(t, rec, http.StatusInternalServerError, "model offline")
}

// analysis_runs

type fakeRuns struct {
	limit int
}

func (f *fakeRuns) Create(dbc dbctx.Context, run *domain.AnalysisRun) (*domain.AnalysisRun, error) {
	return run, nil
}
func (f *fakeRuns) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	return nil, nil
}
func (f *fakeRuns) ListRecent(dbc dbctx.Context, limit int) ([]*domain.AnalysisRun, error) {
	f.limit = limit
	return []*domain.AnalysisRun{{Status: domain.RunStatusOK}}, nil
}
func (f *fakeRuns) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	return map[string]int64{domain.RunStatusOK: 1}, nil
}

func TestRunsList(t *testing.T) {
	repo := &fakeRuns{}
	r := gin.New()
	r.GET("/analysis_runs", NewRunsHandler(repo).List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analysis_runs?limit=5", nil))
	if rec.Code != http.StatusOK || repo.limit != 5 {
		t.Fatalf("list: status=%d limit=%d", rec.Code, repo.limit)
	}
	body := decode(t, rec)
	if runs, _ := body["runs"].([]any); len(runs) != 1 {
		t.Fatalf("runs: got=%v", body["runs"])
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analysis_runs?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid limit: want=400 got=%d", rec.Code)
	}
}

// health

func TestReadyReportsFailingChecks(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"db":    func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	r := gin.New()
	r.GET("/readyz", h.Ready)
	r.GET("/healthcheck", h.HealthCheck)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
	checks, _ := decode(t, rec)["checks"].(map[string]any)
	if checks["redis"] != "connection refused" || checks["db"] != nil {
		t.Fatalf("checks: got=%v", checks)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}
}

func TestReadyWithoutChecks(t *testing.T) {
	r := gin.New()
	r.GET("/readyz", NewHealthHandler(nil).Ready)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
}
