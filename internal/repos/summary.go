package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type SummaryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, summary *types.Summary) (*types.Summary, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error)
	GetBySectionID(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) (*types.Summary, error)
	// LockByID takes a row lock on the summary for the duration of tx and
	// returns the locked row, so the read-increment-write on the version
	// sequence is serialized across concurrent regeneration jobs.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error)
	UpdateVersionSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID, seq int) error
	GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*types.Summary, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{db: db, log: baseLog.With("repo", "SummaryRepo")}
}

func (r *summaryRepo) Create(ctx context.Context, tx *gorm.DB, summary *types.Summary) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(summary).Error; err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *summaryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary types.Summary
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepo) GetBySectionID(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary types.Summary
	err := transaction.WithContext(ctx).Where("section_id = ?", sectionID).First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error) {
	if tx == nil {
		return nil, errors.New("LockByID requires a transaction")
	}
	query := tx.WithContext(ctx)
	// sqlite has no row locks; its writes are single-writer anyway.
	if lockingSupported(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var summary types.Summary
	if err := query.Where("id = ?", id).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepo) UpdateVersionSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID, seq int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Summary{}).
		Where("id = ?", id).
		Update("version_seq", seq).Error
}

func (r *summaryRepo) GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Summary
	if len(sectionIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Summary{}).Error
}
