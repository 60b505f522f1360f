// Package prompt assembles the instructions sent to the analysis model.
package prompt

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/segment"
)

// None is the goal/tone value meaning "not specified".
const None = "none"

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	Analysis struct {
		Header          string `yaml:"header"`
		GoalLine        string `yaml:"goal_line"`
		ToneLine        string `yaml:"tone_line"`
		Framework       string `yaml:"framework"`
		Context         string `yaml:"context"`
		Schema          string `yaml:"schema"`
		Text            string `yaml:"text"`
		PositionsHeader string `yaml:"positions_header"`
	} `yaml:"analysis"`
	Lexicon struct {
		Request string `yaml:"request"`
	} `yaml:"lexicon"`
}

func (c *catalog) validate() error {
	a := c.Analysis
	for name, v := range map[string]string{
		"analysis.header":           a.Header,
		"analysis.framework":        a.Framework,
		"analysis.schema":           a.Schema,
		"analysis.text":             a.Text,
		"analysis.positions_header": a.PositionsHeader,
		"lexicon.request":           c.Lexicon.Request,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("prompt catalog: %s is empty", name)
		}
	}
	return nil
}

// Request is one analysis prompt's input.
type Request struct {
	Text      string
	Goal      string
	Tone      string
	Sentences []segment.PositionedSentence
}

// Builder renders prompts from the embedded catalog.
type Builder struct {
	cat catalog
}

func New() (*Builder, error) {
	return parse(catalogYAML)
}

func parse(raw []byte) (*Builder, error) {
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("prompt catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Builder{cat: c}, nil
}

// IsNone reports whether a goal or tone value means "not specified".
func IsNone(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, None)
}

// Analysis returns the full analysis prompt: instructions, the literal
// source text and the position listing.
func (b *Builder) Analysis(req Request) string {
	a := b.cat.Analysis

	var goal, tone string
	if !IsNone(req.Goal) {
		goal = a.GoalLine + req.Goal
	}
	if !IsNone(req.Tone) {
		tone = a.ToneLine + req.Tone
	}

	var sb strings.Builder
	sb.WriteString(strings.NewReplacer("{{goal}}", goal, "{{tone}}", tone).Replace(a.Header))
	sb.WriteString(a.Framework)
	if !IsNone(req.Goal) && !IsNone(req.Tone) {
		sb.WriteString(a.Context)
	}
	sb.WriteString(a.Schema)
	sb.WriteString("\n")
	sb.WriteString(strings.ReplaceAll(a.Text, "{{text}}", req.Text))
	sb.WriteString(b.Positions(req.Sentences))
	return sb.String()
}

// Positions renders the machine-readable listing, one "[start-end]: text"
// line per sentence.
func (b *Builder) Positions(sentences []segment.PositionedSentence) string {
	var sb strings.Builder
	sb.WriteString(b.cat.Analysis.PositionsHeader)
	for _, s := range sentences {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(s.Start))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(s.End))
		sb.WriteString("]: ")
		sb.WriteString(s.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Lexicon returns the synonym/antonym request for word.
func (b *Builder) Lexicon(word string) string {
	return strings.ReplaceAll(b.cat.Lexicon.Request, "{{word}}", word)
}
