// Package segment splits source text into paragraphs and sentences and
// records where each sentence sits in the source.
//
// Offsets are character (code point) offsets, so for every sentence s
// produced from src: []rune(src)[s.Start:s.End] == []rune(s.Text).
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const paragraphSeparator = "\n\n"

// PositionedSentence is one sentence with its absolute offsets and 1-based
// paragraph number.
type PositionedSentence struct {
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Paragraph int    `json:"paragraph"`
}

// Splitter breaks a paragraph into sentence strings.
type Splitter interface {
	Split(paragraph string) []string
}

// Segmenter is safe to share across requests once built.
type Segmenter struct {
	splitter Splitter
}

// New returns a Segmenter backed by the English Punkt model.
func New() (*Segmenter, error) {
	sp, err := NewPunktSplitter()
	if err != nil {
		return nil, err
	}
	return &Segmenter{splitter: sp}, nil
}

// NewWithSplitter returns a Segmenter using sp.
func NewWithSplitter(sp Splitter) *Segmenter {
	return &Segmenter{splitter: sp}
}

// Segment returns the positioned sentences of src in document order.
// Paragraphs or sentences that cannot be located are skipped.
func (s *Segmenter) Segment(src string) []PositionedSentence {
	var (
		out    []PositionedSentence
		cursor int
		runes  = runeIndex{src: src}
	)
	for i, paragraph := range strings.Split(src, paragraphSeparator) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		rel := strings.Index(src[cursor:], paragraph)
		if rel < 0 {
			continue
		}
		paraStart := cursor + rel

		pos := paraStart
		for _, sentence := range s.splitter.Split(paragraph) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			rel := strings.Index(src[pos:], sentence)
			if rel < 0 {
				continue
			}
			start := pos + rel
			end := start + len(sentence)
			out = append(out, PositionedSentence{
				Text:      sentence,
				Start:     runes.at(start),
				End:       runes.at(end),
				Paragraph: i + 1,
			})
			pos = end
		}
		cursor = paraStart + len(paragraph)
	}
	return out
}

// runeIndex converts byte offsets to rune offsets. Queries must be
// non-decreasing, which holds because every search moves forward.
type runeIndex struct {
	src       string
	lastByte  int
	lastRunes int
}

func (r *runeIndex) at(byteOff int) int {
	if byteOff < r.lastByte {
		r.lastByte, r.lastRunes = 0, 0
	}
	r.lastRunes += utf8.RuneCountInString(r.src[r.lastByte:byteOff])
	r.lastByte = byteOff
	return r.lastRunes
}

// PunktSplitter wraps the English Punkt sentence tokenizer.
type PunktSplitter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func NewPunktSplitter() (*PunktSplitter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load english sentence model: %w", err)
	}
	return &PunktSplitter{tok: tok}, nil
}

func (p *PunktSplitter) Split(paragraph string) []string {
	toks := p.tok.Tokenize(paragraph)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}
