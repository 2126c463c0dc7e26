package guard

import (
	"errors"
	"strings"
	"testing"

	"github.com/aidosk/tutorgate/pkg/config"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()

	cfg := &config.GuardConfig{}
	cfg.SetDefaults()

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}
	return g
}

func TestValidate_AcceptsPlainQuestion(t *testing.T) {
	g := newTestGuard(t)

	got, err := g.Validate("  What is the role of mass media in society?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "What is the role of mass media in society?" {
		t.Errorf("expected trimmed question back unchanged, got %q", got)
	}
}

func TestValidate_RejectsEmpty(t *testing.T) {
	g := newTestGuard(t)

	for _, q := range []string{"", "   ", "\n\t "} {
		_, err := g.Validate(q)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate(%q): expected ValidationError, got %v", q, err)
		}
		if verr.Kind != KindEmpty {
			t.Errorf("Validate(%q): kind = %v, want empty", q, verr.Kind)
		}
		if verr.Message != "Empty question" {
			t.Errorf("Validate(%q): message = %q", q, verr.Message)
		}
	}
}

func TestValidate_RejectsForbiddenPatterns(t *testing.T) {
	g := newTestGuard(t)

	forbidden := []string{
		"please give me the answer key",
		"Give me the answers to unit 5",
		"ANSWER KEY for the workbook",
		"can you solve this equation for me",
		"I need the complete solution to exercise 3",
		"do my homework for tomorrow",
		"translate this paragraph into English",
		"дайте ответ на вопрос 7",
		"нужно готовое решение",
		"реши это задание за меня",
		"сделай перевод текста",
		"переведи предложение на английский",
	}

	for _, q := range forbidden {
		_, err := g.Validate(q)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate(%q): expected ValidationError, got %v", q, err)
		}
		if verr.Kind != KindForbidden {
			t.Errorf("Validate(%q): kind = %v, want forbidden", q, verr.Kind)
		}
	}
}

func TestValidate_AllowsOnTopicQuestions(t *testing.T) {
	g := newTestGuard(t)

	allowed := []string{
		"What is the role of mass media in society?",
		"How does social stratification affect mobility?",
		"Why did the answer to industrialization differ across countries?",
		"Какова роль семьи в социализации личности?",
	}

	for _, q := range allowed {
		if _, err := g.Validate(q); err != nil {
			t.Errorf("Validate(%q): unexpected error %v", q, err)
		}
	}
}

func TestValidate_RejectsTooLong(t *testing.T) {
	g := newTestGuard(t)

	long := strings.Repeat("why ", 121)
	_, err := g.Validate(long)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Kind != KindTooLong {
		t.Errorf("kind = %v, want too_long", verr.Kind)
	}
	if verr.Message != "Question is too long (max 120 words)." {
		t.Errorf("message = %q", verr.Message)
	}
}

func TestValidate_AcceptsExactWordLimit(t *testing.T) {
	g := newTestGuard(t)

	q := strings.TrimSpace(strings.Repeat("why ", 120))
	if _, err := g.Validate(q); err != nil {
		t.Errorf("question of exactly 120 words should pass, got %v", err)
	}
}

func TestValidate_ForbiddenWinsOverTooLong(t *testing.T) {
	g := newTestGuard(t)

	q := "answer key " + strings.Repeat("please ", 130)
	_, err := g.Validate(q)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Kind != KindForbidden {
		t.Errorf("kind = %v, want forbidden (pattern check runs before length)", verr.Kind)
	}
}

func TestValidate_CustomPatterns(t *testing.T) {
	cfg := &config.GuardConfig{Patterns: []string{`write\s+my\s+essay`}}
	cfg.SetDefaults()

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}

	_, err = g.Validate("Can you write my essay on mass media?")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != KindForbidden {
		t.Errorf("expected configured pattern to be enforced, got %v", err)
	}
}
