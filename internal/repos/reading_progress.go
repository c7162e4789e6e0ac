package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type ReadingProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, progress *types.ReadingProgress) (*types.ReadingProgress, error)
	GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.ReadingProgress, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type readingProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadingProgressRepo(db *gorm.DB, baseLog *logger.Logger) ReadingProgressRepo {
	return &readingProgressRepo{db: db, log: baseLog.With("repo", "ReadingProgressRepo")}
}

func (r *readingProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.ReadingProgress) (*types.ReadingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (r *readingProgressRepo) GetByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.ReadingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var progress types.ReadingProgress
	err := transaction.WithContext(ctx).Where("book_id = ?", bookID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *readingProgressRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ReadingProgress{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *readingProgressRepo) DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&types.ReadingProgress{}).Error
}
