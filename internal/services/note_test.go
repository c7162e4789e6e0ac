package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/types"
)

func TestCreateNoteAttachesNarrowestSection(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, sectionRepo, _, _, _, _, _, noteRepo, _ := newTestRepos(db, log)
	svc := NewNoteService(log, bookRepo, sectionRepo, noteRepo)

	book := seedBook(t, db, "book.pdf")
	seedSection(t, db, book.ID, nil, 1, 1, 1, 20, "Chapter 1")
	narrow := seedSection(t, db, book.ID, nil, 2, 2, 4, 6, "Section 1.2")

	note, err := svc.Create(context.Background(), book.ID, NoteCreateInput{
		PageNum:       5,
		SelectionText: "the highlighted passage",
		Question:      "what does this mean?",
		Answer:        "it means this",
		Rects:         []types.HighlightRect{{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}},
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.SectionID == nil || *note.SectionID != narrow.ID {
		t.Errorf("note should attach to the narrowest section covering page 5")
	}

	var rects []types.HighlightRect
	if err := json.Unmarshal(note.Rects, &rects); err != nil {
		t.Fatalf("unmarshal rects: %v", err)
	}
	if len(rects) != 1 || rects[0].W != 0.3 {
		t.Errorf("unexpected rects %+v", rects)
	}
}

func TestCreateNoteOutsideAnySection(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, sectionRepo, _, _, _, _, _, noteRepo, _ := newTestRepos(db, log)
	svc := NewNoteService(log, bookRepo, sectionRepo, noteRepo)

	book := seedBook(t, db, "book.pdf")
	note, err := svc.Create(context.Background(), book.ID, NoteCreateInput{
		PageNum:       3,
		SelectionText: "orphan text",
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.SectionID != nil {
		t.Errorf("note outside any section should have no section id")
	}
	if string(note.Rects) != "[]" {
		t.Errorf("nil rects should persist as empty array, got %s", note.Rects)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, sectionRepo, _, _, _, _, _, noteRepo, _ := newTestRepos(db, log)
	svc := NewNoteService(log, bookRepo, sectionRepo, noteRepo)
	book := seedBook(t, db, "book.pdf")
	ctx := context.Background()

	if _, err := svc.Create(ctx, book.ID, NoteCreateInput{PageNum: 0, SelectionText: "x"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("zero page: expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, book.ID, NoteCreateInput{PageNum: 1, SelectionText: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank selection: expected validation error, got %v", err)
	}
}

func TestListNotesFiltersByPage(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	bookRepo, sectionRepo, _, _, _, _, _, noteRepo, _ := newTestRepos(db, log)
	svc := NewNoteService(log, bookRepo, sectionRepo, noteRepo)
	book := seedBook(t, db, "book.pdf")
	ctx := context.Background()

	for _, page := range []int{2, 2, 7} {
		if _, err := svc.Create(ctx, book.ID, NoteCreateInput{PageNum: page, SelectionText: "sel"}); err != nil {
			t.Fatalf("create note: %v", err)
		}
	}

	all, err := svc.List(ctx, book.ID, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 notes, got %d", len(all))
	}

	page := 2
	filtered, err := svc.List(ctx, book.ID, &page)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 notes on page 2, got %d", len(filtered))
	}
}
