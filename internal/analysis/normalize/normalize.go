// Package normalize turns a free-form model reply into an analysis record.
//
// Replies are tried against an ordered chain of recovery strategies; the first
// one that yields a JSON object wins. When every strategy fails the fixed
// parse-failure record is returned, so Normalize never fails.
package normalize

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
)

// Strategy names the step of the chain that produced a record.
type Strategy string

const (
	StrategyDirect   Strategy = "direct"
	StrategyFenced   Strategy = "fenced_block"
	StrategyBraces   Strategy = "brace_scan"
	StrategyFallback Strategy = "fallback"
)

const fence = "```"

var errNoCandidate = errors.New("normalize: no candidate found")

type step struct {
	name Strategy
	fn   func(string) (record.Record, error)
}

var chain = []step{
	{StrategyDirect, parseLenient},
	{StrategyFenced, fromFencedBlocks},
	{StrategyBraces, fromBraces},
}

// Normalize recovers a record from raw.
func Normalize(raw string) record.Record {
	r, _ := Recover(raw)
	return r
}

// Recover is Normalize that also reports which strategy succeeded.
func Recover(raw string) (record.Record, Strategy) {
	for _, s := range chain {
		if r, err := s.fn(raw); err == nil {
			return r, s.name
		}
	}
	return record.ParseFailure(), StrategyFallback
}

func parseStrict(s string) (record.Record, error) {
	return record.Decode([]byte(s))
}

// parseLenient retries with every backslash doubled when the first attempt
// failed on a bad escape or a control character inside a string.
func parseLenient(s string) (record.Record, error) {
	r, err := parseStrict(s)
	if err == nil {
		return r, nil
	}
	if !isEscapeError(err) {
		return nil, err
	}
	return parseStrict(strings.ReplaceAll(s, `\`, `\\`))
}

func isEscapeError(err error) bool {
	var se *json.SyntaxError
	if !errors.As(err, &se) {
		return false
	}
	msg := se.Error()
	return strings.Contains(msg, "in string literal") ||
		strings.Contains(msg, "in string escape code") ||
		strings.Contains(msg, `in \u hexadecimal character escape`)
}

func fromFencedBlocks(raw string) (record.Record, error) {
	if !strings.Contains(raw, fence) {
		return nil, errNoCandidate
	}
	for _, part := range strings.Split(raw, fence) {
		clean := strings.TrimSpace(part)
		labelled := hasPrefixFold(clean, "json")
		if !labelled && !strings.HasPrefix(clean, "{") {
			continue
		}
		if labelled {
			clean = strings.TrimSpace(clean[len("json"):])
		}
		if r, err := parseLenient(clean); err == nil {
			return r, nil
		}
	}
	return nil, errNoCandidate
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// fromBraces cuts the reply down to the outermost object. A reply that does
// not end in a closing brace is treated as truncated and gets one appended.
// If that candidate does not parse, a brace-balanced candidate is tried.
func fromBraces(raw string) (record.Record, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, errNoCandidate
	}
	end := strings.LastIndexByte(raw, '}')

	var candidate string
	switch {
	case end < 0 || !strings.HasSuffix(strings.TrimSpace(raw), "}"):
		candidate = strings.TrimSpace(raw[start:]) + "}"
	case end > start:
		candidate = raw[start : end+1]
	}
	if candidate != "" {
		if r, err := parseLenient(candidate); err == nil {
			return r, nil
		}
	}

	balanced, ok := balanceObject(raw[start:])
	if !ok || balanced == candidate {
		return nil, errNoCandidate
	}
	return parseLenient(balanced)
}

// balanceObject walks s, which starts with '{', tracking strings and nesting.
// It returns the prefix where the first object closes, or when the input runs
// out first, s with the open string and containers closed.
func balanceObject(s string) (string, bool) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[:i+1], true
			}
		}
	}
	if len(stack) == 0 {
		return "", false
	}

	var b strings.Builder
	if inString {
		b.WriteString(s)
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	} else {
		b.WriteString(strings.TrimSuffix(strings.TrimRight(s, " \t\r\n"), ","))
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String(), true
}
