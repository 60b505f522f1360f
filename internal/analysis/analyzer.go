// Package analysis runs one writing analysis end to end: segment the text,
// build the prompt, call the model and recover a record from its reply.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/normalize"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/prompt"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/schema"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/segment"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/data/repos"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/domain"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/ctxutil"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/dbctx"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/redis"
)

const DefaultMaxTextLength = 10000

const cacheNamespace = "analysis"

var ErrEmptyText = errors.New("empty text")

// Model is the text-in, text-out language model.
type Model interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// Cache stores encoded successful records.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type Input struct {
	Text string
	Goal string
	Tone string
}

type Result struct {
	Record    record.Record
	Strategy  normalize.Strategy
	Status    string
	Truncated bool
	Cached    bool

	schemaViolations int
}

type Service interface {
	Analyze(ctx context.Context, in Input) (*Result, error)
}

type Config struct {
	MaxTextLength int
}

type service struct {
	log       *logger.Logger
	model     Model
	segmenter *segment.Segmenter
	prompts   *prompt.Builder
	validator *schema.Validator
	cache     Cache
	runs      repos.AnalysisRunRepo
	maxLen    int
}

// NewService wires an analyzer. validator, cache and runs may be nil.
func NewService(
	log *logger.Logger,
	model Model,
	segmenter *segment.Segmenter,
	prompts *prompt.Builder,
	validator *schema.Validator,
	cache Cache,
	runs repos.AnalysisRunRepo,
	cfg Config,
) (Service, error) {
	if log == nil {
		return nil, errors.New("analysis: logger required")
	}
	if model == nil || segmenter == nil || prompts == nil {
		return nil, errors.New("analysis: model, segmenter and prompt builder are required")
	}
	maxLen := cfg.MaxTextLength
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	return &service{
		log:       log.With("service", "AnalysisService"),
		model:     model,
		segmenter: segmenter,
		prompts:   prompts,
		validator: validator,
		cache:     cache,
		runs:      runs,
		maxLen:    maxLen,
	}, nil
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

func (s *service) Analyze(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}
	ctx = ctxutil.Default(ctx)
	ctx, span := observability.Tracer().Start(ctx, "analysis.Analyze")
	defer span.End()

	start := time.Now()
	goal := defaultNone(in.Goal)
	tone := defaultNone(in.Tone)

	text, truncated := Truncate(in.Text, s.maxLen)
	if truncated {
		observability.Current().IncTruncation("check_grammar")
	}
	text = strings.ReplaceAll(text, `\`, "")

	span.SetAttributes(
		attribute.Int("analysis.chars", utf8.RuneCountInString(text)),
		attribute.Bool("analysis.truncated", truncated),
		attribute.String("analysis.provider", s.model.Provider()),
	)

	res := &Result{Truncated: truncated}
	key := redis.Key(cacheNamespace, s.model.Provider(), s.model.Model(), text, goal, tone)
	if rec, ok := s.cached(ctx, key); ok {
		res.Record = rec
		res.Status = domain.RunStatusCached
		res.Cached = true
	} else {
		s.run(ctx, res, text, goal, tone, key)
	}

	if res.Status == domain.RunStatusUpstreamError {
		span.SetStatus(codes.Error, res.Record.ErrorMessage())
	}
	span.SetAttributes(
		attribute.String("analysis.status", res.Status),
		attribute.String("analysis.strategy", string(res.Strategy)),
	)

	if truncated {
		res.Record = record.AttachNotice(res.Record, record.TruncationNotice(s.maxLen))
	}

	observability.Current().ObserveAnalysis(res.Status, string(res.Strategy))
	s.recordRun(ctx, res, text, goal, tone, time.Since(start))
	return res, nil
}

func (s *service) run(ctx context.Context, res *Result, text, goal, tone, key string) {
	sentences := s.segmenter.Segment(text)
	p := s.prompts.Analysis(prompt.Request{Text: text, Goal: goal, Tone: tone, Sentences: sentences})

	s.log.Debug("Analysis prompt built", "sentences", len(sentences), "prompt", p)

	reply, err := s.model.GenerateText(ctx, p)
	if err != nil {
		s.log.Warn("Model call failed", "provider", s.model.Provider(), "error", err)
		res.Record = record.UpstreamFailure(err)
		res.Status = domain.RunStatusUpstreamError
		return
	}

	rec, strategy := normalize.Recover(reply)
	res.Record = rec
	res.Strategy = strategy
	if strategy == normalize.StrategyFallback {
		s.log.Warn("Model reply could not be parsed", "raw_reply", reply)
		res.Status = domain.RunStatusParseFailed
		return
	}
	res.Status = domain.RunStatusOK

	if err := s.validator.Validate(rec); err != nil {
		observability.Current().IncSchemaViolation()
		res.schemaViolations++
		s.log.Warn("Record does not match schema", "strategy", strategy, "error", err)
	}

	if s.cache == nil {
		return
	}
	if b, err := rec.Encode(); err == nil {
		if err := s.cache.Set(ctx, key, b); err != nil {
			s.log.Warn("Analysis cache write failed", "error", err)
		}
	}
}

func (s *service) cached(ctx context.Context, key string) (record.Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("Analysis cache read failed", "error", err)
	}
	observability.Current().ObserveCache(cacheNamespace, ok)
	if !ok {
		return nil, false
	}
	rec, err := record.Decode(b)
	if err != nil {
		s.log.Warn("Cached analysis is corrupt", "error", err)
		return nil, false
	}
	return rec, true
}

func (s *service) recordRun(ctx context.Context, res *Result, text, goal, tone string, dur time.Duration) {
	if s.runs == nil {
		return
	}
	sum := sha256.Sum256([]byte(text))
	score, _ := res.Record.QualityScore()
	areas, _ := json.Marshal(res.Record.CriticalIssueAreas())

	run := &domain.AnalysisRun{
		RequestID:     ctxutil.RequestID(ctx),
		TextSHA256:    hex.EncodeToString(sum[:]),
		CharCount:     utf8.RuneCountInString(text),
		Truncated:     res.Truncated,
		Goal:          goal,
		Tone:          tone,
		Provider:      s.model.Provider(),
		Model:         s.model.Model(),
		Strategy:      string(res.Strategy),
		Score:         score,
		Status:        res.Status,
		DurationMS:    dur.Milliseconds(),
		CriticalAreas: datatypes.JSON(areas),

		SchemaWarnings: res.schemaViolations,
	}
	if _, err := s.runs.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, run); err != nil {
		s.log.Warn("Failed to record analysis run", "error", err)
	}
}

func defaultNone(v string) string {
	if prompt.IsNone(v) {
		return prompt.None
	}
	return strings.TrimSpace(v)
}
