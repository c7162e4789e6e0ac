package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/types"
)

func newBookService(t *testing.T, db *gorm.DB, pdfDir, imageDir, audioDir string) BookService {
	t.Helper()
	log := testLogger(t)
	bookRepo, sectionRepo, assetRepo, summaryRepo, versionRepo, audioRepo, progressRepo, noteRepo, jobRepo := newTestRepos(db, log)
	jobs := NewJobService(log, jobRepo)
	return NewBookService(log, db, bookRepo, sectionRepo, assetRepo, summaryRepo, versionRepo, audioRepo,
		progressRepo, noteRepo, jobRepo, jobs, pdfDir, imageDir, audioDir)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(t, db, t.TempDir(), t.TempDir(), t.TempDir())

	_, _, err := svc.Upload(context.Background(), "notes.txt", []byte("hi"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadStoresFileAndQueuesIngestion(t *testing.T) {
	db := newTestDB(t)
	pdfDir := t.TempDir()
	svc := newBookService(t, db, pdfDir, t.TempDir(), t.TempDir())

	book, job, err := svc.Upload(context.Background(), "my book.pdf", []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, statErr := os.Stat(book.FilePath); statErr != nil {
		t.Errorf("stored file missing: %v", statErr)
	}
	if filepath.Dir(book.FilePath) != pdfDir {
		t.Errorf("file stored outside pdf dir: %s", book.FilePath)
	}
	if job.JobType != types.JobTypeBookIngest || job.Status != types.JobStatusQueued {
		t.Errorf("unexpected job %+v", job)
	}
	if job.EntityID != book.ID {
		t.Errorf("job entity %s, want book %s", job.EntityID, book.ID)
	}
}

func TestUpdateProgressCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(t, db, t.TempDir(), t.TempDir(), t.TempDir())
	book := seedBook(t, db, "book.pdf")
	ctx := context.Background()

	progress, err := svc.UpdateProgress(ctx, book.ID, 5, nil)
	if err != nil {
		t.Fatalf("create progress: %v", err)
	}
	if progress.LastPage != 5 {
		t.Errorf("last page %d, want 5", progress.LastPage)
	}

	section := seedSection(t, db, book.ID, nil, 1, 1, 1, 10, "Chapter 1")
	progress, err = svc.UpdateProgress(ctx, book.ID, 8, &section.ID)
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if progress.LastPage != 8 || progress.LastSectionID == nil || *progress.LastSectionID != section.ID {
		t.Errorf("unexpected progress %+v", progress)
	}

	var count int64
	if err := db.Model(&types.ReadingProgress{}).Where("book_id = ?", book.ID).Count(&count).Error; err != nil {
		t.Fatalf("count progress: %v", err)
	}
	if count != 1 {
		t.Errorf("expected single progress row, got %d", count)
	}
}

func TestDeleteCascadesEverything(t *testing.T) {
	db := newTestDB(t)
	pdfDir := t.TempDir()
	imageDir := t.TempDir()
	audioDir := t.TempDir()
	svc := newBookService(t, db, pdfDir, imageDir, audioDir)
	ctx := context.Background()

	pdfPath := filepath.Join(pdfDir, "book.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	book := seedBook(t, db, pdfPath)
	parent := seedSection(t, db, book.ID, nil, 1, 1, 1, 10, "Chapter 1")
	child := seedSection(t, db, book.ID, &parent.ID, 2, 2, 2, 5, "Section 1.1")

	asset := &types.SectionAsset{ID: uuid.New(), BookID: book.ID, SectionID: &child.ID, PageNum: 3, FilePath: "img.png", Caption: "Page 3 - Figure"}
	summary := &types.Summary{ID: uuid.New(), SectionID: parent.ID, VersionSeq: 1}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	if err := db.Create(summary).Error; err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	version := &types.SummaryVersion{ID: uuid.New(), SummaryID: summary.ID, VersionNumber: 1, Content: "text"}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}
	audio := &types.AudioAsset{ID: uuid.New(), VersionID: version.ID, ContentHash: "abc", FilePath: "a.wav", Format: "wav"}
	note := &types.Note{ID: uuid.New(), BookID: book.ID, PageNum: 2, SelectionText: "sel", Question: "q", Answer: "a"}
	progress := &types.ReadingProgress{ID: uuid.New(), BookID: book.ID, LastPage: 2}
	job := &types.JobRun{ID: uuid.New(), JobType: types.JobTypeBookIngest, EntityID: book.ID, Status: types.JobStatusSucceeded}
	for _, rec := range []interface{}{audio, note, progress, job} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed %T: %v", rec, err)
		}
	}

	if err := svc.Delete(ctx, book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	counts := map[string]interface{}{
		"book":             &types.Book{},
		"section":          &types.Section{},
		"section_asset":    &types.SectionAsset{},
		"summary":          &types.Summary{},
		"summary_version":  &types.SummaryVersion{},
		"audio_asset":      &types.AudioAsset{},
		"reading_progress": &types.ReadingProgress{},
		"note":             &types.Note{},
		"job_run":          &types.JobRun{},
	}
	for table, model := range counts {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: expected 0 rows after delete, got %d", table, n)
		}
	}
	if _, statErr := os.Stat(pdfPath); !os.IsNotExist(statErr) {
		t.Errorf("pdf file survived delete")
	}
}

func TestDeleteUnknownBook(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(t, db, t.TempDir(), t.TempDir(), t.TempDir())
	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSectionByPagePrefersNarrowestSpan(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(t, db, t.TempDir(), t.TempDir(), t.TempDir())
	book := seedBook(t, db, "book.pdf")
	seedSection(t, db, book.ID, nil, 1, 1, 1, 20, "Chapter 1")
	narrow := seedSection(t, db, book.ID, nil, 2, 2, 5, 7, "Section 1.2")

	section, err := svc.SectionByPage(context.Background(), book.ID, 6)
	if err != nil {
		t.Fatalf("section by page: %v", err)
	}
	if section.ID != narrow.ID {
		t.Errorf("expected narrowest section %s, got %s", narrow.Title, section.Title)
	}
}
