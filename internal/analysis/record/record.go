// Package record holds the analysis report shape shared by the normalizer,
// the analyzer and the HTTP layer, plus the helpers that build and amend it.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Field names of the report. They are part of the public wire format.
const (
	KeyError             = "error"
	KeyMetaAnalysis      = "meta_analysis"
	KeySentenceAnalysis  = "sentence_analysis"
	KeyParagraphAnalysis = "paragraph_analysis"
	KeyDocumentCoherence = "document_coherence"

	KeyOverallQualityScore = "overall_quality_score"
	KeyConfidenceLevel     = "confidence_level"
	KeySummaryAssessment   = "summary_assessment"
	KeyCriticalIssues      = "critical_issues"
)

const (
	AreaSystemError = "system_error"
	AreaInputLength = "input_length"

	ParseFailureMessage     = "Failed to parse response from the grammar analysis service."
	ParseFailureDescription = "Unable to analyze text at this time. Please try again."
	UpstreamFailurePrefix   = "Failed to analyze text: "
	UpstreamFailureDetail   = "An error occurred during analysis."
)

// Record is a decoded analysis report. Successful and failed analyses share
// this type; a failed one carries an "error" key.
type Record map[string]any

// Notice is a single critical-issue entry.
type Notice struct {
	Area        string `json:"area"`
	Description string `json:"description"`
}

func (n Notice) asMap() map[string]any {
	return map[string]any{"area": n.Area, "description": n.Description}
}

// TruncationNotice reports that input was cut to limit characters.
func TruncationNotice(limit int) Notice {
	return Notice{
		Area:        AreaInputLength,
		Description: fmt.Sprintf("Text was truncated to %d characters due to length limitations.", limit),
	}
}

// ParseFailure is the fixed record returned when no recovery strategy succeeds.
func ParseFailure() Record {
	return errorRecord(ParseFailureMessage, ParseFailureDescription)
}

// UpstreamFailure is returned when the model call itself fails.
func UpstreamFailure(err error) Record {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return errorRecord(UpstreamFailurePrefix+msg, UpstreamFailureDetail)
}

func errorRecord(message, description string) Record {
	return Record{
		KeyError: message,
		KeyMetaAnalysis: map[string]any{
			KeyOverallQualityScore: 0,
			KeyConfidenceLevel:     0,
			KeySummaryAssessment: map[string]any{
				KeyCriticalIssues: []any{
					Notice{Area: AreaSystemError, Description: description}.asMap(),
				},
			},
		},
	}
}

// AttachNotice appends n to meta_analysis.summary_assessment.critical_issues,
// creating the intermediate objects when missing. Records without a
// meta_analysis object are returned unchanged.
func AttachNotice(r Record, n Notice) Record {
	if r == nil {
		return r
	}
	meta, ok := r[KeyMetaAnalysis].(map[string]any)
	if !ok {
		return r
	}
	summary, ok := meta[KeySummaryAssessment].(map[string]any)
	if !ok {
		summary = map[string]any{}
		meta[KeySummaryAssessment] = summary
	}
	issues, _ := summary[KeyCriticalIssues].([]any)
	summary[KeyCriticalIssues] = append(issues, n.asMap())
	return r
}

// IsError reports whether the record carries an error message.
func (r Record) IsError() bool {
	_, ok := r[KeyError]
	return ok
}

// ErrorMessage returns the "error" value, or "" for successful records.
func (r Record) ErrorMessage() string {
	s, _ := r[KeyError].(string)
	return s
}

// QualityScore returns meta_analysis.overall_quality_score when numeric.
func (r Record) QualityScore() (float64, bool) {
	meta, ok := r[KeyMetaAnalysis].(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := meta[KeyOverallQualityScore].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// CriticalIssueAreas lists the "area" of every critical issue in order.
func (r Record) CriticalIssueAreas() []string {
	meta, ok := r[KeyMetaAnalysis].(map[string]any)
	if !ok {
		return nil
	}
	summary, ok := meta[KeySummaryAssessment].(map[string]any)
	if !ok {
		return nil
	}
	issues, _ := summary[KeyCriticalIssues].([]any)
	var out []string
	for _, it := range issues {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if area, ok := m["area"].(string); ok {
			out = append(out, area)
		}
	}
	return out
}

// Encode marshals the record to JSON.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses b into a fresh Record. The top-level value must be an object.
// Numbers are kept as json.Number so large integers survive a round trip.
func Decode(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = errors.New("record: trailing data after top-level object")
		}
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("record: top-level value is not an object")
	}
	return Record(out), nil
}
