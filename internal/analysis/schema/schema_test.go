package schema

import (
	"testing"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
)

func TestValidateAcceptsWellFormedRecords(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	good, err := record.Decode([]byte(`{
		"meta_analysis": {"overall_quality_score": 88, "confidence_level": 0.9,
			"summary_assessment": {"critical_issues": [{"area": "grammar", "description": "x", "frequency": 2}]}},
		"sentence_analysis": [{"id": 1, "original_text": "Hi.", "improved_text": "NO_REVISION_NEEDED",
			"position": {"start_char": 0, "end_char": 3, "paragraph_number": 1}}],
		"paragraph_analysis": [],
		"document_coherence": {}
	}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := v.Validate(good); err != nil {
		t.Fatalf("Validate(good): %v", err)
	}
	if err := v.Validate(record.ParseFailure()); err != nil {
		t.Fatalf("Validate(ParseFailure): %v", err)
	}
	withNotice := record.AttachNotice(good, record.TruncationNotice(10000))
	if err := v.Validate(withNotice); err != nil {
		t.Fatalf("Validate(with notice): %v", err)
	}
}

func TestValidateReportsViolations(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string]string{
		"missing meta":       `{"sentence_analysis": []}`,
		"score out of range": `{"meta_analysis": {"overall_quality_score": 140}}`,
		"list is object":     `{"meta_analysis": {}, "sentence_analysis": {}}`,
		"issue without area": `{"meta_analysis": {"summary_assessment": {"critical_issues": [{"description": "x"}]}}}`,
	}
	for name, raw := range cases {
		r, err := record.Decode([]byte(raw))
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if err := v.Validate(r); err == nil {
			t.Fatalf("%s: expected violation", name)
		}
	}
}

func TestNilValidatorAcceptsEverything(t *testing.T) {
	var v *Validator
	if err := v.Validate(record.Record{}); err != nil {
		t.Fatalf("nil Validate: %v", err)
	}
}

func TestCompileRejectsBadSchema(t *testing.T) {
	if _, err := compile([]byte(`{"type": 12}`)); err == nil {
		t.Fatalf("expected compile error")
	}
}
