package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type BookService interface {
	// Upload stores the PDF bytes, creates the book row and queues an
	// ingestion job. Only .pdf filenames are accepted.
	Upload(ctx context.Context, filename string, data []byte) (*types.Book, *types.JobRun, error)
	List(ctx context.Context) ([]*types.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Book, error)
	// PDFPath returns the stored file path, failing with not-found if the
	// file has gone missing on disk.
	PDFPath(ctx context.Context, id uuid.UUID) (string, error)
	Sections(ctx context.Context, bookID uuid.UUID) ([]*types.Section, error)
	SectionByPage(ctx context.Context, bookID uuid.UUID, page int) (*types.Section, error)
	Progress(ctx context.Context, bookID uuid.UUID) (*types.ReadingProgress, error)
	UpdateProgress(ctx context.Context, bookID uuid.UUID, lastPage int, lastSectionID *uuid.UUID) (*types.ReadingProgress, error)
	// Delete removes the book and everything hanging off it, children
	// first, in one transaction, then cleans stored files best-effort.
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookService struct {
	log          *logger.Logger
	db           *gorm.DB
	bookRepo     repos.BookRepo
	sectionRepo  repos.SectionRepo
	assetRepo    repos.SectionAssetRepo
	summaryRepo  repos.SummaryRepo
	versionRepo  repos.SummaryVersionRepo
	audioRepo    repos.AudioAssetRepo
	progressRepo repos.ReadingProgressRepo
	noteRepo     repos.NoteRepo
	jobRepo      repos.JobRunRepo
	jobs         JobService

	pdfDir   string
	imageDir string
	audioDir string
}

func NewBookService(
	log *logger.Logger,
	db *gorm.DB,
	bookRepo repos.BookRepo,
	sectionRepo repos.SectionRepo,
	assetRepo repos.SectionAssetRepo,
	summaryRepo repos.SummaryRepo,
	versionRepo repos.SummaryVersionRepo,
	audioRepo repos.AudioAssetRepo,
	progressRepo repos.ReadingProgressRepo,
	noteRepo repos.NoteRepo,
	jobRepo repos.JobRunRepo,
	jobs JobService,
	pdfDir string,
	imageDir string,
	audioDir string,
) BookService {
	return &bookService{
		log:          log.With("service", "BookService"),
		db:           db,
		bookRepo:     bookRepo,
		sectionRepo:  sectionRepo,
		assetRepo:    assetRepo,
		summaryRepo:  summaryRepo,
		versionRepo:  versionRepo,
		audioRepo:    audioRepo,
		progressRepo: progressRepo,
		noteRepo:     noteRepo,
		jobRepo:      jobRepo,
		jobs:         jobs,
		pdfDir:       pdfDir,
		imageDir:     imageDir,
		audioDir:     audioDir,
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, " ", "_")
}

func (s *bookService) Upload(ctx context.Context, filename string, data []byte) (*types.Book, *types.JobRun, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, nil, fmt.Errorf("%w: only PDF files are supported", apperr.ErrValidation)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", apperr.ErrValidation)
	}

	book := &types.Book{
		ID:    uuid.New(),
		Title: filename,
	}
	path, err := SavePDFFile(s.pdfDir, book.ID, filename, data)
	if err != nil {
		return nil, nil, err
	}
	book.FilePath = path

	if _, err := s.bookRepo.Create(ctx, nil, book); err != nil {
		_ = os.Remove(path)
		return nil, nil, err
	}

	job, err := s.jobs.Enqueue(ctx, types.JobTypeBookIngest, book.ID, nil)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("Book uploaded", "book_id", book.ID, "job_id", job.ID, "bytes", len(data))
	return book, job, nil
}

func (s *bookService) List(ctx context.Context) ([]*types.Book, error) {
	return s.bookRepo.List(ctx, nil)
}

func (s *bookService) Get(ctx context.Context, id uuid.UUID) (*types.Book, error) {
	return s.bookRepo.GetByID(ctx, nil, id)
}

func (s *bookService) PDFPath(ctx context.Context, id uuid.UUID) (string, error) {
	book, err := s.bookRepo.GetByID(ctx, nil, id)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(book.FilePath); statErr != nil {
		return "", apperr.ErrNotFound
	}
	return book.FilePath, nil
}

func (s *bookService) Sections(ctx context.Context, bookID uuid.UUID) ([]*types.Section, error) {
	if _, err := s.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return nil, err
	}
	return s.sectionRepo.GetByBookID(ctx, nil, bookID)
}

func (s *bookService) SectionByPage(ctx context.Context, bookID uuid.UUID, page int) (*types.Section, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be positive", apperr.ErrValidation)
	}
	return s.sectionRepo.FindNarrowestByPage(ctx, nil, bookID, page)
}

func (s *bookService) Progress(ctx context.Context, bookID uuid.UUID) (*types.ReadingProgress, error) {
	progress, err := s.progressRepo.GetByBookID(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, apperr.ErrNotFound
	}
	return progress, nil
}

func (s *bookService) UpdateProgress(ctx context.Context, bookID uuid.UUID, lastPage int, lastSectionID *uuid.UUID) (*types.ReadingProgress, error) {
	if lastPage < 1 {
		return nil, fmt.Errorf("%w: last_page must be positive", apperr.ErrValidation)
	}
	if _, err := s.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.GetByBookID(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return s.progressRepo.Create(ctx, nil, &types.ReadingProgress{
			ID:            uuid.New(),
			BookID:        bookID,
			LastPage:      lastPage,
			LastSectionID: lastSectionID,
		})
	}
	if err := s.progressRepo.UpdateFields(ctx, nil, progress.ID, map[string]interface{}{
		"last_page":       lastPage,
		"last_section_id": lastSectionID,
	}); err != nil {
		return nil, err
	}
	return s.progressRepo.GetByBookID(ctx, nil, bookID)
}

func (s *bookService) Delete(ctx context.Context, id uuid.UUID) error {
	book, err := s.bookRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections, txErr := s.sectionRepo.GetByBookID(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		sectionIDs := make([]uuid.UUID, 0, len(sections))
		for _, sec := range sections {
			sectionIDs = append(sectionIDs, sec.ID)
		}

		summaries, txErr := s.summaryRepo.GetBySectionIDs(ctx, tx, sectionIDs)
		if txErr != nil {
			return txErr
		}
		summaryIDs := make([]uuid.UUID, 0, len(summaries))
		for _, sum := range summaries {
			summaryIDs = append(summaryIDs, sum.ID)
		}

		versions, txErr := s.versionRepo.GetBySummaryIDs(ctx, tx, summaryIDs)
		if txErr != nil {
			return txErr
		}
		versionIDs := make([]uuid.UUID, 0, len(versions))
		for _, v := range versions {
			versionIDs = append(versionIDs, v.ID)
		}

		if txErr = s.audioRepo.DeleteByVersionIDs(ctx, tx, versionIDs); txErr != nil {
			return txErr
		}
		if txErr = s.versionRepo.DeleteByIDs(ctx, tx, versionIDs); txErr != nil {
			return txErr
		}
		if txErr = s.summaryRepo.DeleteByIDs(ctx, tx, summaryIDs); txErr != nil {
			return txErr
		}
		if txErr = s.assetRepo.DeleteByBookID(ctx, tx, id); txErr != nil {
			return txErr
		}
		if txErr = s.noteRepo.DeleteByBookID(ctx, tx, id); txErr != nil {
			return txErr
		}
		if txErr = s.progressRepo.DeleteByBookID(ctx, tx, id); txErr != nil {
			return txErr
		}
		if txErr = s.sectionRepo.DeleteByBookID(ctx, tx, id); txErr != nil {
			return txErr
		}
		if txErr = s.jobRepo.DeleteByEntityID(ctx, tx, id); txErr != nil {
			return txErr
		}
		return s.bookRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	// File cleanup is best-effort; the rows are already gone.
	if book.FilePath != "" {
		_ = os.Remove(book.FilePath)
	}
	_ = os.RemoveAll(filepath.Join(s.imageDir, id.String()))
	_ = os.RemoveAll(filepath.Join(s.audioDir, id.String()))

	s.log.Info("Book deleted", "book_id", id)
	return nil
}
