package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/ingestion/outline"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Book{},
		&types.Section{},
		&types.SectionAsset{},
		&types.Summary{},
		&types.SummaryVersion{},
		&types.AudioAsset{},
		&types.ReadingProgress{},
		&types.Note{},
		&types.JobRun{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedBook(t *testing.T, db *gorm.DB, filePath string) *types.Book {
	t.Helper()
	book := &types.Book{ID: uuid.New(), Title: "test.pdf", FilePath: filePath}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func seedSection(t *testing.T, db *gorm.DB, bookID uuid.UUID, parentID *uuid.UUID, level, sortOrder, start, end int, title string) *types.Section {
	t.Helper()
	section := &types.Section{
		ID:        uuid.New(),
		BookID:    bookID,
		ParentID:  parentID,
		Level:     level,
		Title:     title,
		SortOrder: sortOrder,
		PageStart: start,
		PageEnd:   end,
	}
	if err := db.Create(section).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return section
}

// fakeDocumentService serves canned page text keyed by page number.
type fakeDocumentService struct {
	pages map[int]string
}

func (f *fakeDocumentService) PageCount(path string) (int, error) {
	return len(f.pages), nil
}

func (f *fakeDocumentService) PageTexts(path string) ([]string, error) {
	out := make([]string, 0, len(f.pages))
	for i := 1; i <= len(f.pages); i++ {
		out = append(out, f.pages[i])
	}
	return out, nil
}

func (f *fakeDocumentService) ExtractRange(path string, start, end int) (string, error) {
	var parts []string
	for i := start; i <= end; i++ {
		if text, ok := f.pages[i]; ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// fakeTextProvider records prompts and replies with a fixed response.
type fakeTextProvider struct {
	mu       sync.Mutex
	systems  []string
	users    []string
	response string
	err      error
}

func (f *fakeTextProvider) Generate(ctx context.Context, system string, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	return f.response, nil
}

// fakeSynthesizer counts invocations instead of producing audio.
type fakeSynthesizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string, basePath string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return basePath + ".wav", "wav", nil
}

func (f *fakeSynthesizer) Close() error { return nil }

// fakeMediaTools returns canned outlines and images.
type fakeMediaTools struct {
	outline []outline.Node
	images  []ExtractedImage
}

func (f *fakeMediaTools) AssertReady(ctx context.Context) error { return nil }

func (f *fakeMediaTools) ExportPDFOutline(ctx context.Context, pdfPath string) ([]outline.Node, error) {
	return f.outline, nil
}

func (f *fakeMediaTools) ExtractPDFImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error) {
	return f.images, nil
}

func (f *fakeMediaTools) SynthesizeWithPiper(ctx context.Context, text string, modelPath string, outPath string) error {
	return fmt.Errorf("not implemented")
}

func newTestRepos(db *gorm.DB, log *logger.Logger) (
	repos.BookRepo,
	repos.SectionRepo,
	repos.SectionAssetRepo,
	repos.SummaryRepo,
	repos.SummaryVersionRepo,
	repos.AudioAssetRepo,
	repos.ReadingProgressRepo,
	repos.NoteRepo,
	repos.JobRunRepo,
) {
	return repos.NewBookRepo(db, log),
		repos.NewSectionRepo(db, log),
		repos.NewSectionAssetRepo(db, log),
		repos.NewSummaryRepo(db, log),
		repos.NewSummaryVersionRepo(db, log),
		repos.NewAudioAssetRepo(db, log),
		repos.NewReadingProgressRepo(db, log),
		repos.NewNoteRepo(db, log),
		repos.NewJobRunRepo(db, log)
}
