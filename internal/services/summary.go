package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

const summaryTemplate = `You are an assistant summarizing a book section strictly from the provided text. Do not invent details.
Write in a friendly, conversational tone as if explaining to a student with very basic knowledge.
Avoid phrases like "this chapter". Instead use the section title or say "this topic".
Use short sentences suitable for TTS.
Use this exact template with headings (no markdown symbols, just plain text headings):
Overview
Key Concepts
Important Formulas / Code
Diagrams / Visual Explanation
Practical Notes
Key Takeaways
Figures
`

const overviewPrompt = "You are allowed to provide a high-level overview from your own knowledge. " +
	"Clearly label it as NOT derived from the book content."

const largeSectionWarning = "Section text is large. Consider summarizing at a smaller subtopic level for higher fidelity."

const overviewDisclaimer = "This overview is generated from the model's knowledge, not directly from the book.\n\n"

// SummaryResult is the outcome of a generation request. Exactly one of
// Version or Overview is set: when the section text exceeds the large
// content threshold no version is persisted, and instead a disclosed
// knowledge-only overview comes back with a warning.
type SummaryResult struct {
	Version  *types.SummaryVersion
	Warning  string
	Overview string
}

type SummaryService interface {
	// Generate summarizes the section. With recursive set, the text of the
	// section's whole subtree is summarized together.
	Generate(ctx context.Context, sectionID uuid.UUID, recursive bool) (*SummaryResult, error)
	ListVersions(ctx context.Context, sectionID uuid.UUID) ([]*types.SummaryVersion, error)
	GetVersion(ctx context.Context, versionID uuid.UUID) (*types.SummaryVersion, error)
	// DeleteVersion removes the version together with its audio assets,
	// files included. Remaining version numbers are never renumbered.
	DeleteVersion(ctx context.Context, versionID uuid.UUID) error
}

type summaryService struct {
	log         *logger.Logger
	db          *gorm.DB
	bookRepo    repos.BookRepo
	sectionRepo repos.SectionRepo
	assetRepo   repos.SectionAssetRepo
	summaryRepo repos.SummaryRepo
	versionRepo repos.SummaryVersionRepo
	audioRepo   repos.AudioAssetRepo
	documents   DocumentService
	provider    TextProvider

	maxSummaryChars       int
	largeContentThreshold int
}

func NewSummaryService(
	log *logger.Logger,
	db *gorm.DB,
	bookRepo repos.BookRepo,
	sectionRepo repos.SectionRepo,
	assetRepo repos.SectionAssetRepo,
	summaryRepo repos.SummaryRepo,
	versionRepo repos.SummaryVersionRepo,
	audioRepo repos.AudioAssetRepo,
	documents DocumentService,
	provider TextProvider,
	maxSummaryChars int,
	largeContentThreshold int,
) SummaryService {
	return &summaryService{
		log:                   log.With("service", "SummaryService"),
		db:                    db,
		bookRepo:              bookRepo,
		sectionRepo:           sectionRepo,
		assetRepo:             assetRepo,
		summaryRepo:           summaryRepo,
		versionRepo:           versionRepo,
		audioRepo:             audioRepo,
		documents:             documents,
		provider:              provider,
		maxSummaryChars:       maxSummaryChars,
		largeContentThreshold: largeContentThreshold,
	}
}

func (s *summaryService) Generate(ctx context.Context, sectionID uuid.UUID, recursive bool) (*SummaryResult, error) {
	section, err := s.sectionRepo.GetByID(ctx, nil, sectionID)
	if err != nil {
		return nil, err
	}
	book, err := s.bookRepo.GetByID(ctx, nil, section.BookID)
	if err != nil {
		return nil, err
	}

	targets := []*types.Section{section}
	if recursive {
		targets, err = s.collectDescendants(ctx, section)
		if err != nil {
			return nil, err
		}
	}

	var parts []string
	for _, target := range targets {
		text, exErr := s.documents.ExtractRange(book.FilePath, target.PageStart, target.PageEnd)
		if exErr != nil {
			return nil, fmt.Errorf("extract section text: %w", exErr)
		}
		parts = append(parts, text)
	}
	text := strings.Join(parts, "\n")

	if len(text) > s.largeContentThreshold {
		s.log.Warn("Section text exceeds large content threshold",
			"section_id", sectionID, "chars", len(text), "threshold", s.largeContentThreshold)
		overview, genErr := s.provider.Generate(ctx, overviewPrompt, section.Title)
		if genErr != nil {
			return nil, genErr
		}
		return &SummaryResult{
			Warning:  largeSectionWarning,
			Overview: overviewDisclaimer + overview,
		}, nil
	}
	if len(text) > s.maxSummaryChars {
		text = text[:s.maxSummaryChars]
	}

	imageContext, err := s.collectImageContext(ctx, targets)
	if err != nil {
		return nil, err
	}
	userContext := fmt.Sprintf(
		"Section Title: %s\n\nExtracted Text:\n%s\n\nFigures referenced in this section:\n%s",
		section.Title, text, imageContext,
	)
	content, err := s.provider.Generate(ctx, summaryTemplate, userContext)
	if err != nil {
		return nil, err
	}

	version, err := s.persistVersion(ctx, sectionID, content)
	if err != nil {
		return nil, err
	}
	s.log.Info("Summary generated",
		"section_id", sectionID, "version_id", version.ID, "version_number", version.VersionNumber)
	return &SummaryResult{Version: version}, nil
}

// persistVersion creates the summary row on first use, then appends a new
// version under a row lock. The number comes from the summary's version
// sequence, not from the surviving rows, so deleted numbers stay retired.
func (s *summaryService) persistVersion(ctx context.Context, sectionID uuid.UUID, content string) (*types.SummaryVersion, error) {
	var version *types.SummaryVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary, err := s.summaryRepo.GetBySectionID(ctx, tx, sectionID)
		if err != nil {
			return err
		}
		if summary == nil {
			summary, err = s.summaryRepo.Create(ctx, tx, &types.Summary{
				ID:        uuid.New(),
				SectionID: sectionID,
			})
			if err != nil {
				return err
			}
		}
		locked, err := s.summaryRepo.LockByID(ctx, tx, summary.ID)
		if err != nil {
			return err
		}
		next := locked.VersionSeq + 1
		if err := s.summaryRepo.UpdateVersionSeq(ctx, tx, summary.ID, next); err != nil {
			return err
		}
		version, err = s.versionRepo.Create(ctx, tx, &types.SummaryVersion{
			ID:            uuid.New(),
			SummaryID:     summary.ID,
			VersionNumber: next,
			Content:       content,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// collectDescendants walks the subtree breadth-first, the root first.
func (s *summaryService) collectDescendants(ctx context.Context, root *types.Section) ([]*types.Section, error) {
	result := []*types.Section{root}
	frontier := []uuid.UUID{root.ID}
	for len(frontier) > 0 {
		children, err := s.sectionRepo.GetByParentIDs(ctx, nil, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			result = append(result, child)
			frontier = append(frontier, child.ID)
		}
	}
	return result, nil
}

func (s *summaryService) collectImageContext(ctx context.Context, sections []*types.Section) (string, error) {
	ids := make([]uuid.UUID, 0, len(sections))
	for _, sec := range sections {
		ids = append(ids, sec.ID)
	}
	assets, err := s.assetRepo.GetBySectionIDs(ctx, nil, ids)
	if err != nil {
		return "", err
	}
	if len(assets) == 0 {
		return "No figures extracted for this section.", nil
	}
	lines := make([]string, 0, len(assets))
	for _, asset := range assets {
		lines = append(lines, fmt.Sprintf("Page %d: %s", asset.PageNum, asset.Caption))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *summaryService) ListVersions(ctx context.Context, sectionID uuid.UUID) ([]*types.SummaryVersion, error) {
	if _, err := s.sectionRepo.GetByID(ctx, nil, sectionID); err != nil {
		return nil, err
	}
	summary, err := s.summaryRepo.GetBySectionID(ctx, nil, sectionID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return []*types.SummaryVersion{}, nil
	}
	return s.versionRepo.ListBySummaryID(ctx, nil, summary.ID)
}

func (s *summaryService) GetVersion(ctx context.Context, versionID uuid.UUID) (*types.SummaryVersion, error) {
	return s.versionRepo.GetByID(ctx, nil, versionID)
}

func (s *summaryService) DeleteVersion(ctx context.Context, versionID uuid.UUID) error {
	version, err := s.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return err
	}
	audioAssets, err := s.audioRepo.GetByVersionIDs(ctx, nil, []uuid.UUID{version.ID})
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txErr := s.audioRepo.DeleteByVersionIDs(ctx, tx, []uuid.UUID{version.ID}); txErr != nil {
			return txErr
		}
		return s.versionRepo.DeleteByIDs(ctx, tx, []uuid.UUID{version.ID})
	})
	if err != nil {
		return err
	}

	for _, asset := range audioAssets {
		_ = os.Remove(asset.FilePath)
	}
	s.log.Info("Summary version deleted", "version_id", versionID)
	return nil
}
