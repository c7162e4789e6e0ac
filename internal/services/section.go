package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type SectionService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Section, error)
	// Assets returns the section's figures in page order; with recursive set
	// the whole subtree's figures come back.
	Assets(ctx context.Context, id uuid.UUID, recursive bool) ([]*types.SectionAsset, error)
}

type sectionService struct {
	log         *logger.Logger
	sectionRepo repos.SectionRepo
	assetRepo   repos.SectionAssetRepo
}

func NewSectionService(log *logger.Logger, sectionRepo repos.SectionRepo, assetRepo repos.SectionAssetRepo) SectionService {
	return &sectionService{
		log:         log.With("service", "SectionService"),
		sectionRepo: sectionRepo,
		assetRepo:   assetRepo,
	}
}

func (s *sectionService) Get(ctx context.Context, id uuid.UUID) (*types.Section, error) {
	return s.sectionRepo.GetByID(ctx, nil, id)
}

func (s *sectionService) Assets(ctx context.Context, id uuid.UUID, recursive bool) ([]*types.SectionAsset, error) {
	section, err := s.sectionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{section.ID}
	if recursive {
		frontier := []uuid.UUID{section.ID}
		for len(frontier) > 0 {
			children, childErr := s.sectionRepo.GetByParentIDs(ctx, nil, frontier)
			if childErr != nil {
				return nil, childErr
			}
			frontier = frontier[:0]
			for _, child := range children {
				ids = append(ids, child.ID)
				frontier = append(frontier, child.ID)
			}
		}
	}
	return s.assetRepo.GetBySectionIDs(ctx, nil, ids)
}
