package record

import (
	"errors"
	"reflect"
	"testing"
)

func TestAttachNoticeCreatesNesting(t *testing.T) {
	r := Record{KeyMetaAnalysis: map[string]any{KeyOverallQualityScore: 80.0}}

	got := AttachNotice(r, TruncationNotice(10000))

	areas := got.CriticalIssueAreas()
	if !reflect.DeepEqual(areas, []string{AreaInputLength}) {
		t.Fatalf("areas: want=%v got=%v", []string{AreaInputLength}, areas)
	}
	meta := got[KeyMetaAnalysis].(map[string]any)
	issues := meta[KeySummaryAssessment].(map[string]any)[KeyCriticalIssues].([]any)
	first := issues[0].(map[string]any)
	want := "Text was truncated to 10000 characters due to length limitations."
	if first["description"] != want {
		t.Fatalf("description: want=%q got=%v", want, first["description"])
	}
	if meta[KeyOverallQualityScore] != 80.0 {
		t.Fatalf("existing fields must survive: got=%v", meta[KeyOverallQualityScore])
	}
}

func TestAttachNoticeAppendsToExistingIssues(t *testing.T) {
	r := ParseFailure()
	AttachNotice(r, TruncationNotice(10))
	AttachNotice(r, TruncationNotice(10))

	areas := r.CriticalIssueAreas()
	want := []string{AreaSystemError, AreaInputLength, AreaInputLength}
	if !reflect.DeepEqual(areas, want) {
		t.Fatalf("areas: want=%v got=%v", want, areas)
	}
}

func TestAttachNoticeDropsWithoutMeta(t *testing.T) {
	r := Record{KeySentenceAnalysis: []any{}}
	got := AttachNotice(r, TruncationNotice(10))
	if _, ok := got[KeyMetaAnalysis]; ok {
		t.Fatalf("meta_analysis must not be created")
	}
	if len(got) != 1 {
		t.Fatalf("record changed: %v", got)
	}

	r = Record{KeyMetaAnalysis: "not an object"}
	got = AttachNotice(r, TruncationNotice(10))
	if got[KeyMetaAnalysis] != "not an object" {
		t.Fatalf("non-object meta_analysis must be left alone: %v", got)
	}
}

func TestAttachNoticeReplacesNonListIssues(t *testing.T) {
	r := Record{KeyMetaAnalysis: map[string]any{
		KeySummaryAssessment: map[string]any{KeyCriticalIssues: "none"},
	}}
	AttachNotice(r, Notice{Area: "x", Description: "y"})
	if got := r.CriticalIssueAreas(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("areas: got=%v", got)
	}
}

func TestParseFailureShape(t *testing.T) {
	r := ParseFailure()
	if r.ErrorMessage() != ParseFailureMessage {
		t.Fatalf("error: want=%q got=%q", ParseFailureMessage, r.ErrorMessage())
	}
	score, ok := r.QualityScore()
	if !ok || score != 0 {
		t.Fatalf("score: want=0 got=%v ok=%v", score, ok)
	}
	b, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"error":"Failed to parse response from the grammar analysis service.","meta_analysis":{"confidence_level":0,"overall_quality_score":0,"summary_assessment":{"critical_issues":[{"area":"system_error","description":"Unable to analyze text at this time. Please try again."}]}}}`
	if string(b) != want {
		t.Fatalf("Encode:\nwant=%s\ngot= %s", want, b)
	}
}

func TestUpstreamFailure(t *testing.T) {
	r := UpstreamFailure(errors.New("deadline exceeded"))
	if r.ErrorMessage() != "Failed to analyze text: deadline exceeded" {
		t.Fatalf("error: got=%q", r.ErrorMessage())
	}
	if !r.IsError() {
		t.Fatalf("IsError: want=true")
	}
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `null`, `"text"`, `{`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("Decode(%s): expected error", raw)
		}
	}
	r, err := Decode([]byte(`{"meta_analysis":{"overall_quality_score":85}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if score, _ := r.QualityScore(); score != 85 {
		t.Fatalf("score: want=85 got=%v", score)
	}
}

func TestDecodeKeepsLargeIntegers(t *testing.T) {
	r, err := Decode([]byte(`{"n": 12345678901234567890}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := `{"n":12345678901234567890}`; string(b) != want {
		t.Fatalf("round trip: want=%s got=%s", want, b)
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	for _, raw := range []string{`{"a":1} tail`, `{"a":1}{"b":2}`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("Decode(%s): expected error", raw)
		}
	}
	if _, err := Decode([]byte("{\"a\":1}\n  ")); err != nil {
		t.Fatalf("trailing whitespace: %v", err)
	}
}
