package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type SectionAssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assets []*types.SectionAsset) ([]*types.SectionAsset, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SectionAsset, error)
	GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*types.SectionAsset, error)
	GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.SectionAsset, error)
	DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type sectionAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionAssetRepo(db *gorm.DB, baseLog *logger.Logger) SectionAssetRepo {
	return &sectionAssetRepo{db: db, log: baseLog.With("repo", "SectionAssetRepo")}
}

func (r *sectionAssetRepo) Create(ctx context.Context, tx *gorm.DB, assets []*types.SectionAsset) ([]*types.SectionAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(assets) == 0 {
		return []*types.SectionAsset{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *sectionAssetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SectionAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var asset types.SectionAsset
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *sectionAssetRepo) GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*types.SectionAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SectionAsset
	if len(sectionIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Order("page_num ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionAssetRepo) GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.SectionAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SectionAsset
	if err := transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("page_num ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionAssetRepo) DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&types.SectionAsset{}).Error
}
