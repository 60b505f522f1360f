package lexicon

import (
	"context"
	"errors"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/normalize"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/prompt"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
)

var ErrUnparseable = errors.New("lexicon: model reply could not be parsed")

type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ModelSource asks a language model for a word's synonyms and antonyms.
type ModelSource struct {
	model   Generator
	prompts *prompt.Builder
}

func NewModelSource(model Generator, prompts *prompt.Builder) *ModelSource {
	return &ModelSource{model: model, prompts: prompts}
}

func (m *ModelSource) Lookup(ctx context.Context, word string) (Entry, error) {
	reply, err := m.model.GenerateText(ctx, m.prompts.Lexicon(word))
	if err != nil {
		return Entry{}, err
	}
	rec, strategy := normalize.Recover(reply)
	if strategy == normalize.StrategyFallback {
		return Entry{}, ErrUnparseable
	}
	return Entry{
		Synonyms: stringList(rec, "synonyms"),
		Antonyms: stringList(rec, "antonyms"),
	}, nil
}

func stringList(r record.Record, key string) []string {
	items, _ := r[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
