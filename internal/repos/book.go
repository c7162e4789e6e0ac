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

type BookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Book, error)
	UpdateFilePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, filePath string) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var book types.Book
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Book
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bookRepo) UpdateFilePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, filePath string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Book{}).
		Where("id = ?", id).
		Update("file_path", filePath).Error
}

func (r *bookRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Book{}).Error
}
