package segment

import (
	"reflect"
	"strings"
	"testing"
)

// periodSplitter splits after ". " and keeps the period.
type periodSplitter struct{}

func (periodSplitter) Split(p string) []string {
	var out []string
	for {
		i := strings.Index(p, ". ")
		if i < 0 {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
			return out
		}
		out = append(out, p[:i+1])
		p = p[i+2:]
	}
}

func TestSegmentOffsetsAndParagraphs(t *testing.T) {
	src := "One. Two.\n\nThree."
	got := NewWithSplitter(periodSplitter{}).Segment(src)
	want := []PositionedSentence{
		{Text: "One.", Start: 0, End: 4, Paragraph: 1},
		{Text: "Two.", Start: 5, End: 9, Paragraph: 1},
		{Text: "Three.", Start: 11, End: 17, Paragraph: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Segment:\nwant=%+v\ngot= %+v", want, got)
	}
}

func TestSegmentSkipsBlankParagraphsButKeepsNumbering(t *testing.T) {
	src := "First.\n\n   \n\nSecond."
	got := NewWithSplitter(periodSplitter{}).Segment(src)
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d (%+v)", len(got), got)
	}
	if got[1].Paragraph != 3 {
		t.Fatalf("paragraph: want=3 got=%d", got[1].Paragraph)
	}
}

func TestSegmentDuplicateTextIsLocatedForward(t *testing.T) {
	src := "Same. Same.\n\nSame."
	got := NewWithSplitter(periodSplitter{}).Segment(src)
	starts := []int{}
	for _, s := range got {
		starts = append(starts, s.Start)
	}
	if !reflect.DeepEqual(starts, []int{0, 6, 13}) {
		t.Fatalf("starts: want=%v got=%v", []int{0, 6, 13}, starts)
	}
}

func TestSegmentUsesCharacterOffsets(t *testing.T) {
	src := "Café time. Naïve plan."
	got := NewWithSplitter(periodSplitter{}).Segment(src)
	runes := []rune(src)
	for _, s := range got {
		if string(runes[s.Start:s.End]) != s.Text {
			t.Fatalf("offsets %d-%d do not cover %q", s.Start, s.End, s.Text)
		}
	}
	if got[1].Start != 11 {
		t.Fatalf("second start: want=11 got=%d", got[1].Start)
	}
}

func TestSegmentDropsUnlocatableSentences(t *testing.T) {
	sp := splitterFunc(func(p string) []string { return []string{"missing", p} })
	got := NewWithSplitter(sp).Segment("Kept.")
	if len(got) != 1 || got[0].Text != "Kept." {
		t.Fatalf("Segment: got=%+v", got)
	}
}

func TestSegmentInvariants(t *testing.T) {
	seg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := "The cat sat on the mat. The dog barked loudly!\n\nIs it raining? It was sunny yesterday.\n\n\n\nShort one."
	got := seg.Segment(src)
	if len(got) < 3 {
		t.Fatalf("expected several sentences, got=%+v", got)
	}
	runes := []rune(src)
	prevEnd := 0
	for i, s := range got {
		if s.Start < prevEnd {
			t.Fatalf("sentence %d overlaps previous: %+v", i, s)
		}
		if !(s.Start < s.End && s.End <= len(runes)) {
			t.Fatalf("sentence %d has bad bounds: %+v", i, s)
		}
		if string(runes[s.Start:s.End]) != s.Text {
			t.Fatalf("sentence %d text mismatch: %q vs %q", i, string(runes[s.Start:s.End]), s.Text)
		}
		if s.Paragraph < 1 {
			t.Fatalf("sentence %d paragraph < 1", i)
		}
		prevEnd = s.End
	}
	if got[0].Text != "The cat sat on the mat." {
		t.Fatalf("first sentence: got=%q", got[0].Text)
	}
}

func TestSegmentEmpty(t *testing.T) {
	if got := NewWithSplitter(periodSplitter{}).Segment(""); len(got) != 0 {
		t.Fatalf("Segment(\"\"): want empty got=%+v", got)
	}
}

type splitterFunc func(string) []string

func (f splitterFunc) Split(p string) []string { return f(p) }
