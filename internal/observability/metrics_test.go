package observability

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLabelString(t *testing.T) {
	got := labelString([]string{"kind", "outcome"}, []string{"pdf", `bad "x"`})
	want := `{kind="pdf",outcome="bad \"x\""}`
	if got != want {
		t.Fatalf("labelString: want=%q got=%q", want, got)
	}
	if got := labelString([]string{"a", "b"}, []string{"x"}); got != `{a="x",b="unknown"}` {
		t.Fatalf("missing value: got=%q", got)
	}
	if got := labelString(nil, []string{"x"}); got != "" {
		t.Fatalf("no labels: got=%q", got)
	}
}

func TestWithLe(t *testing.T) {
	if got := withLe("", "0.5"); got != `{le="0.5"}` {
		t.Fatalf("withLe empty: got=%q", got)
	}
	if got := withLe(`{kind="pdf"}`, "+Inf"); got != `{kind="pdf",le="+Inf"}` {
		t.Fatalf("withLe labels: got=%q", got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"k"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(3, "a")

	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, line := range []string{
		`h_bucket{k="a",le="1"} 1`,
		`h_bucket{k="a",le="2"} 2`,
		`h_bucket{k="a",le="+Inf"} 3`,
		`h_count{k="a"} 3`,
		"# TYPE h histogram",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("missing %q in:\n%s", line, out)
		}
	}
}

func TestMetricsRecordDomainEvents(t *testing.T) {
	m := New()
	m.ObserveAnalysis("ok", "fenced_block")
	m.ObserveAnalysis("ok", "fenced_block")
	m.ObserveCache("analysis", true)
	m.ObserveExtraction("pdf", "ok", 20*time.Millisecond)
	m.ObserveLLMRequest("gemini", "gemini-2.0-flash", "200", time.Second, 10, 5)
	m.ObserveAPI("POST", "/check_grammar", "500", time.Second)

	if got := m.normalizeResult.Value("fenced_block"); got != 2 {
		t.Fatalf("strategy count: want=2 got=%v", got)
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("5xx count: want=1 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`og_cache_lookups_total{cache="analysis",result="hit"} 1.000000`,
		`og_extractions_total{kind="pdf",outcome="ok"} 1.000000`,
		`og_llm_tokens_total{provider="gemini",direction="input"} 10.000000`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveAnalysis("ok", "direct")
	m.ObserveCache("lexicon", false)
	m.IncSchemaViolation()
	m.IncTruncation("check_grammar")
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil metrics status: want=503 got=%d", rec.Code)
	}
}

func TestInitDisabled(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")
	if m := Init(nil); m != nil {
		t.Fatalf("Init: want nil when disabled")
	}
}
