package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/apperr"
)

func TestAnswerBuildsExcerptContext(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, _, _, _, _, _, _, _, _ := newTestRepos(db, log)
	provider := &fakeTextProvider{response: "42"}
	svc := NewQAService(log, bookRepo, provider)

	book := seedBook(t, db, "book.pdf")
	answer, err := svc.Answer(context.Background(), book.ID, "the meaning of life", "what is it?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "42" {
		t.Errorf("answer %q, want 42", answer)
	}
	if len(provider.users) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.users))
	}
	if !strings.Contains(provider.users[0], "Excerpt:\nthe meaning of life") ||
		!strings.Contains(provider.users[0], "Question:\nwhat is it?") {
		t.Errorf("unexpected user context %q", provider.users[0])
	}
	if provider.systems[0] != tutorPrompt {
		t.Errorf("unexpected system prompt %q", provider.systems[0])
	}
}

func TestAnswerValidation(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, _, _, _, _, _, _, _, _ := newTestRepos(db, log)
	svc := NewQAService(log, bookRepo, &fakeTextProvider{response: "x"})
	book := seedBook(t, db, "book.pdf")
	ctx := context.Background()

	if _, err := svc.Answer(ctx, book.ID, "  ", "q"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank selection: expected validation error, got %v", err)
	}
	if _, err := svc.Answer(ctx, book.ID, "sel", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank question: expected validation error, got %v", err)
	}
}

func TestAnswerUnknownBook(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, _, _, _, _, _, _, _, _ := newTestRepos(db, log)
	svc := NewQAService(log, bookRepo, &fakeTextProvider{response: "x"})

	if _, err := svc.Answer(context.Background(), uuid.New(), "sel", "q"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
