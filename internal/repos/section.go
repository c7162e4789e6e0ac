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

type SectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, section *types.Section) (*types.Section, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Section, error)
	GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Section, error)
	GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.Section, error)
	FindNarrowestByPage(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, page int) (*types.Section, error)
	DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) Create(ctx context.Context, tx *gorm.DB, section *types.Section) (*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(section).Error; err != nil {
		return nil, err
	}
	return section, nil
}

func (r *sectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var section types.Section
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Section
	if err := transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Section
	if len(parentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindNarrowestByPage returns the section with the smallest page span whose
// range contains the page, i.e. the most specific section for that page.
func (r *sectionRepo) FindNarrowestByPage(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, page int) (*types.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var section types.Section
	err := transaction.WithContext(ctx).
		Where("book_id = ? AND page_start <= ? AND page_end >= ?", bookID, page, page).
		Order("(page_end - page_start) ASC").
		First(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&types.Section{}).Error
}
