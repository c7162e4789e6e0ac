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

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Note, error)
	// ListByBookID returns the book's notes newest first; pass a non-nil page
	// to restrict to a single page.
	ListByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, page *int) ([]*types.Note, error)
	DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *noteRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var note types.Note
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepo) ListByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, page *int) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Where("book_id = ?", bookID)
	if page != nil {
		query = query.Where("page_num = ?", *page)
	}
	var out []*types.Note
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *noteRepo) DeleteByBookID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&types.Note{}).Error
}
