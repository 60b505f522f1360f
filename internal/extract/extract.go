// Package extract turns uploaded documents into plain text.
//
// Adapters report expected failures (no text, unreadable file) as a failed
// Result carrying a user-facing reason. Go errors are reserved for the
// request-level conditions ErrUnsupported and ErrUnavailable.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

// NoTextReason is reported when a file parses but yields no usable text.
const NoTextReason = "No text could be extracted from the file"

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrUnavailable = errors.New("extractor unavailable")
)

// Result is either extracted text or the reason nothing usable came out.
type Result struct {
	Text   string
	Reason string
	Method string
}

func Ok(text, method string) Result { return Result{Text: text, Method: method} }

func Failed(reason string) Result { return Result{Reason: reason} }

// OK reports whether the result carries text.
func (r Result) OK() bool { return r.Reason == "" && strings.TrimSpace(r.Text) != "" }

// Extractor handles one family of file types.
type Extractor interface {
	Kind() string
	Extensions() []string
	Extract(ctx context.Context, data []byte) (Result, error)
}

type Registry struct {
	log     *logger.Logger
	byExt   map[string]Extractor
	ordered []Extractor
}

func NewRegistry(log *logger.Logger, extractors ...Extractor) *Registry {
	r := &Registry{
		log:   log.With("service", "ExtractRegistry"),
		byExt: map[string]Extractor{},
	}
	for _, ex := range extractors {
		if ex == nil {
			continue
		}
		r.ordered = append(r.ordered, ex)
		for _, ext := range ex.Extensions() {
			r.byExt[strings.ToLower(ext)] = ex
		}
	}
	return r
}

// Extension returns the lowercased text after the last '.' of filename, or
// the whole lowercased name when it has no dot.
func Extension(filename string) string {
	name := strings.ToLower(filename)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Supported lists every registered extension.
func (r *Registry) Supported() []string {
	var out []string
	for _, ex := range r.ordered {
		out = append(out, ex.Extensions()...)
	}
	return out
}

// Extract picks the adapter by filename extension. Unknown extensions return
// an error wrapping ErrUnsupported.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (Result, error) {
	ext := Extension(filename)
	ex, ok := r.byExt[ext]
	if !ok {
		return Result{}, fmt.Errorf("%w: .%s", ErrUnsupported, ext)
	}

	start := time.Now()
	res, err := ex.Extract(ctx, data)
	if err == nil && res.OK() {
		res.Text = Clean(res.Text)
		if !res.OK() {
			res = Failed(NoTextReason)
		}
	}
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	case !res.OK():
		outcome = "no_text"
	}
	observability.Current().ObserveExtraction(ex.Kind(), outcome, time.Since(start))

	if err != nil {
		r.log.Warn("Extraction failed", "kind", ex.Kind(), "ext", ext, "error", err)
		return Result{}, err
	}
	r.log.Debug("Extraction finished", "kind", ex.Kind(), "method", res.Method, "outcome", outcome, "bytes", len(data))
	return res, nil
}

var stripControl = runes.Predicate(func(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
})

// newCleaner builds a fresh chain per call; a transform.Chain holds buffers
// and must not be shared between goroutines.
func newCleaner() transform.Transformer {
	return transform.Chain(norm.NFKC, runes.Remove(stripControl))
}

// Clean applies compatibility normalization so ligatures and full-width
// forms become plain letters, and drops control characters other than line
// breaks and tabs.
func Clean(s string) string {
	out, _, err := transform.String(newCleaner(), s)
	if err != nil {
		return s
	}
	return out
}
