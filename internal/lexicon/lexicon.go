// Package lexicon answers synonym and antonym lookups for single words.
package lexicon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/redis"
)

const (
	MaxSynonyms    = 10
	cacheNamespace = "lexicon"
)

// Entry is the raw lexical data for one word, before filtering.
type Entry struct {
	Synonyms []string `json:"synonyms"`
	Antonyms []string `json:"antonyms"`
}

// Source is a lexical database.
type Source interface {
	Lookup(ctx context.Context, word string) (Entry, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type Service interface {
	Synonyms(ctx context.Context, word string) ([]string, error)
	Antonyms(ctx context.Context, word string) ([]string, error)
}

type service struct {
	log    *logger.Logger
	source Source
	cache  Cache
}

func NewService(log *logger.Logger, source Source, cache Cache) (Service, error) {
	if log == nil {
		return nil, errors.New("lexicon: logger required")
	}
	if source == nil {
		return nil, errors.New("lexicon: source required")
	}
	return &service{log: log.With("service", "LexiconService"), source: source, cache: cache}, nil
}

// CleanWord lowercases w, trims it and removes ASCII punctuation.
func CleanWord(w string) string {
	w = strings.ToLower(strings.TrimSpace(w))
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, w)
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Synonyms returns up to MaxSynonyms distinct single-word synonyms in
// sorted order, never including word itself.
func (s *service) Synonyms(ctx context.Context, word string) ([]string, error) {
	w := CleanWord(word)
	if w == "" {
		return []string{}, nil
	}
	e, err := s.lookup(ctx, w)
	if err != nil {
		return nil, err
	}
	out := filter(e.Synonyms, w)
	if len(out) > MaxSynonyms {
		out = out[:MaxSynonyms]
	}
	return out, nil
}

// Antonyms returns every distinct single-word antonym in sorted order.
func (s *service) Antonyms(ctx context.Context, word string) ([]string, error) {
	w := CleanWord(word)
	if w == "" {
		return []string{}, nil
	}
	e, err := s.lookup(ctx, w)
	if err != nil {
		return nil, err
	}
	return filter(e.Antonyms, w), nil
}

func (s *service) lookup(ctx context.Context, w string) (Entry, error) {
	key := redis.Key(cacheNamespace, w)
	if s.cache != nil {
		b, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("Lexicon cache read failed", "error", err)
		}
		observability.Current().ObserveCache(cacheNamespace, ok)
		if ok {
			var e Entry
			if err := json.Unmarshal(b, &e); err == nil {
				return e, nil
			}
		}
	}

	e, err := s.source.Lookup(ctx, w)
	if err != nil {
		return Entry{}, fmt.Errorf("lexicon lookup %q: %w", w, err)
	}
	if s.cache != nil {
		if b, err := json.Marshal(e); err == nil {
			if err := s.cache.Set(ctx, key, b); err != nil {
				s.log.Warn("Lexicon cache write failed", "error", err)
			}
		}
	}
	return e, nil
}

// filter keeps distinct single words other than self, sorted.
func filter(words []string, self string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || w == self || seen[w] {
			continue
		}
		if strings.ContainsAny(w, " _\t\n") {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
