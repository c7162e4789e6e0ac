package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
)

const tutorPrompt = "You are a helpful tutor. Answer the user's question using only the provided book excerpt. " +
	"Keep the answer concise, clear, and friendly for TTS. If the excerpt doesn't contain the answer, " +
	"say you cannot find it in the provided text."

// QAService answers questions about a selected passage. Answers are not
// persisted here; the client saves them as notes if it wants to keep them.
type QAService interface {
	Answer(ctx context.Context, bookID uuid.UUID, selectionText string, question string) (string, error)
}

type qaService struct {
	log      *logger.Logger
	bookRepo repos.BookRepo
	provider TextProvider
}

func NewQAService(log *logger.Logger, bookRepo repos.BookRepo, provider TextProvider) QAService {
	return &qaService{
		log:      log.With("service", "QAService"),
		bookRepo: bookRepo,
		provider: provider,
	}
}

func (s *qaService) Answer(ctx context.Context, bookID uuid.UUID, selectionText string, question string) (string, error) {
	selectionText = strings.TrimSpace(selectionText)
	question = strings.TrimSpace(question)
	if selectionText == "" || question == "" {
		return "", fmt.Errorf("%w: selection_text and question are required", apperr.ErrValidation)
	}
	if _, err := s.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return "", err
	}

	userContext := fmt.Sprintf("Excerpt:\n%s\n\nQuestion:\n%s", selectionText, question)
	answer, err := s.provider.Generate(ctx, tutorPrompt, userContext)
	if err != nil {
		return "", err
	}
	s.log.Debug("Question answered", "book_id", bookID, "question_chars", len(question))
	return answer, nil
}
