// Package guard validates incoming questions before they reach the upstream
// model. The pattern filter is a best-effort policy knob, not a security
// boundary: it catches the obvious requests for answer keys, ready-made
// solutions and translations, and nothing more.
package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aidosk/tutorgate/pkg/config"
)

// Kind identifies a validation failure.
type Kind int

const (
	KindEmpty Kind = iota
	KindForbidden
	KindTooLong
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindForbidden:
		return "forbidden"
	case KindTooLong:
		return "too_long"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Validate when a question is rejected.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// defaultPatterns catch requests for answer keys, solutions and translations,
// in English and Russian.
var defaultPatterns = []string{
	`answer\s*key`,
	`give\s+me\s+the\s+answers?\b`,
	`(full|complete|ready)\s+solution`,
	`solve\s+(this|it|the)\b`,
	`do\s+(my|the)\s+(homework|assignment|test|exam)`,
	`translate\b`,
	`translation\b`,
	// \b is ASCII-only in Go regexp, so the Russian patterns avoid it.
	`ответ(ы|ов)?\s+(к|на)\s`,
	`дай(те)?\s+ответ`,
	`готовое\s+решение`,
	`реши(те)?\s+(это|задач|задание|тест)`,
	`перевод`,
	`переведи`,
}

// Guard validates raw question strings.
type Guard struct {
	patterns []*regexp.Regexp
	maxWords int
}

// New builds a Guard from config. Built-in patterns are always active;
// configured patterns are appended.
func New(cfg *config.GuardConfig) (*Guard, error) {
	all := make([]string, 0, len(defaultPatterns)+len(cfg.Patterns))
	all = append(all, defaultPatterns...)
	all = append(all, cfg.Patterns...)

	patterns := make([]*regexp.Regexp, 0, len(all))
	for _, p := range all {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid guard pattern '%s': %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &Guard{
		patterns: patterns,
		maxWords: cfg.MaxWords,
	}, nil
}

// Validate checks a raw question and returns the trimmed question unchanged
// on success. Checks short-circuit in order: empty, forbidden, too long.
func (g *Guard) Validate(question string) (string, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", &ValidationError{Kind: KindEmpty, Message: "Empty question"}
	}

	for _, re := range g.patterns {
		if re.MatchString(trimmed) {
			return "", &ValidationError{
				Kind:    KindForbidden,
				Message: "Questions asking for answer keys, solutions or translations are not allowed.",
			}
		}
	}

	if len(strings.Fields(trimmed)) > g.maxWords {
		return "", &ValidationError{
			Kind:    KindTooLong,
			Message: fmt.Sprintf("Question is too long (max %d words).", g.maxWords),
		}
	}

	return trimmed, nil
}
