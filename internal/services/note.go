package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type NoteCreateInput struct {
	PageNum       int
	SelectionText string
	Question      string
	Answer        string
	Rects         []types.HighlightRect
}

type NoteService interface {
	// Create persists a note, attaching it to the narrowest section covering
	// its page when one exists.
	Create(ctx context.Context, bookID uuid.UUID, input NoteCreateInput) (*types.Note, error)
	List(ctx context.Context, bookID uuid.UUID, page *int) ([]*types.Note, error)
}

type noteService struct {
	log         *logger.Logger
	bookRepo    repos.BookRepo
	sectionRepo repos.SectionRepo
	noteRepo    repos.NoteRepo
}

func NewNoteService(log *logger.Logger, bookRepo repos.BookRepo, sectionRepo repos.SectionRepo, noteRepo repos.NoteRepo) NoteService {
	return &noteService{
		log:         log.With("service", "NoteService"),
		bookRepo:    bookRepo,
		sectionRepo: sectionRepo,
		noteRepo:    noteRepo,
	}
}

func (s *noteService) Create(ctx context.Context, bookID uuid.UUID, input NoteCreateInput) (*types.Note, error) {
	if input.PageNum < 1 {
		return nil, fmt.Errorf("%w: page_num must be positive", apperr.ErrValidation)
	}
	if strings.TrimSpace(input.SelectionText) == "" {
		return nil, fmt.Errorf("%w: selection_text is required", apperr.ErrValidation)
	}
	if _, err := s.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return nil, err
	}

	var sectionID *uuid.UUID
	section, err := s.sectionRepo.FindNarrowestByPage(ctx, nil, bookID, input.PageNum)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if section != nil {
		sectionID = &section.ID
	}

	rects := input.Rects
	if rects == nil {
		rects = []types.HighlightRect{}
	}
	rectsJSON, err := json.Marshal(rects)
	if err != nil {
		return nil, fmt.Errorf("marshal rects: %w", err)
	}

	note := &types.Note{
		ID:            uuid.New(),
		BookID:        bookID,
		SectionID:     sectionID,
		PageNum:       input.PageNum,
		SelectionText: input.SelectionText,
		Question:      input.Question,
		Answer:        input.Answer,
		Rects:         datatypes.JSON(rectsJSON),
	}
	if _, err := s.noteRepo.Create(ctx, nil, note); err != nil {
		return nil, err
	}
	s.log.Info("Note created", "book_id", bookID, "note_id", note.ID, "page", input.PageNum)
	return note, nil
}

func (s *noteService) List(ctx context.Context, bookID uuid.UUID, page *int) ([]*types.Note, error) {
	if _, err := s.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return nil, err
	}
	return s.noteRepo.ListByBookID(ctx, nil, bookID, page)
}
