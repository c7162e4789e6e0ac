package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/ingestion/outline"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

// IngestionService builds a book's section tree and figure assets from its
// PDF. Ingestion runs inside one transaction: a half-ingested book is never
// visible.
type IngestionService interface {
	IngestBook(ctx context.Context, bookID uuid.UUID) error
}

type ingestionService struct {
	log          *logger.Logger
	db           *gorm.DB
	bookRepo     repos.BookRepo
	sectionRepo  repos.SectionRepo
	assetRepo    repos.SectionAssetRepo
	progressRepo repos.ReadingProgressRepo
	documents    DocumentService
	media        MediaToolsService
	imageDir     string
}

func NewIngestionService(
	log *logger.Logger,
	db *gorm.DB,
	bookRepo repos.BookRepo,
	sectionRepo repos.SectionRepo,
	assetRepo repos.SectionAssetRepo,
	progressRepo repos.ReadingProgressRepo,
	documents DocumentService,
	media MediaToolsService,
	imageDir string,
) IngestionService {
	return &ingestionService{
		log:          log.With("service", "IngestionService"),
		db:           db,
		bookRepo:     bookRepo,
		sectionRepo:  sectionRepo,
		assetRepo:    assetRepo,
		progressRepo: progressRepo,
		documents:    documents,
		media:        media,
		imageDir:     imageDir,
	}
}

func (s *ingestionService) IngestBook(ctx context.Context, bookID uuid.UUID) error {
	book, err := s.bookRepo.GetByID(ctx, nil, bookID)
	if err != nil {
		return err
	}

	pageCount, err := s.documents.PageCount(book.FilePath)
	if err != nil {
		return err
	}

	toc, err := s.media.ExportPDFOutline(ctx, book.FilePath)
	if err != nil {
		// A damaged outline should not block ingestion; heading inference
		// still produces a usable tree.
		s.log.Warn("Outline export failed, falling back to heading inference",
			"book_id", bookID, "error", err)
		toc = nil
	}

	var pages []string
	if len(outline.FromTOC(toc)) == 0 {
		s.log.Info("No embedded outline found; inferring sections", "book_id", bookID)
		pages, err = s.documents.PageTexts(book.FilePath)
		if err != nil {
			return err
		}
	}

	entries := outline.Build(toc, pages, pageCount)

	imageOut := filepath.Join(s.imageDir, bookID.String())
	images, err := s.media.ExtractPDFImages(ctx, book.FilePath, imageOut)
	if err != nil {
		return fmt.Errorf("extract images: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections := make([]*types.Section, 0, len(entries))
		for _, entry := range entries {
			var parentID *uuid.UUID
			if entry.ParentIndex >= 0 {
				parentID = &sections[entry.ParentIndex].ID
			}
			section, createErr := s.sectionRepo.Create(ctx, tx, &types.Section{
				ID:        uuid.New(),
				BookID:    bookID,
				ParentID:  parentID,
				Level:     entry.Level,
				Title:     entry.Title,
				SortOrder: entry.SortOrder,
				PageStart: entry.PageStart,
				PageEnd:   entry.PageEnd,
			})
			if createErr != nil {
				return createErr
			}
			sections = append(sections, section)
		}

		assets := make([]*types.SectionAsset, 0, len(images))
		for _, img := range images {
			assets = append(assets, &types.SectionAsset{
				ID:        uuid.New(),
				BookID:    bookID,
				SectionID: assignSection(sections, img.Page),
				PageNum:   img.Page,
				FilePath:  img.Path,
				Caption:   fmt.Sprintf("Page %d - Figure", img.Page),
			})
		}
		if _, createErr := s.assetRepo.Create(ctx, tx, assets); createErr != nil {
			return createErr
		}

		existing, progErr := s.progressRepo.GetByBookID(ctx, tx, bookID)
		if progErr != nil {
			return progErr
		}
		if existing == nil {
			if _, progErr = s.progressRepo.Create(ctx, tx, &types.ReadingProgress{
				ID:       uuid.New(),
				BookID:   bookID,
				LastPage: 1,
			}); progErr != nil {
				return progErr
			}
		}

		s.log.Info("Ingestion complete",
			"book_id", bookID, "sections", len(sections), "assets", len(assets), "pages", pageCount)
		return nil
	})
}

// assignSection picks the deepest section whose page range contains the
// page; among equal depths the later one in document order wins. Pages
// outside every section leave the asset unattached.
func assignSection(sections []*types.Section, page int) *uuid.UUID {
	var sectionID *uuid.UUID
	bestLevel := -1
	for _, section := range sections {
		if section.PageStart <= page && page <= section.PageEnd {
			if section.Level >= bestLevel {
				bestLevel = section.Level
				id := section.ID
				sectionID = &id
			}
		}
	}
	return sectionID
}

// SavePDFFile writes uploaded bytes under the PDF directory, named by book
// id plus the sanitized original filename, and returns the stored path.
func SavePDFFile(pdfDir string, bookID uuid.UUID, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir pdf dir: %w", err)
	}
	safeName := sanitizeFilename(filename)
	path := filepath.Join(pdfDir, fmt.Sprintf("%s_%s", bookID, safeName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
