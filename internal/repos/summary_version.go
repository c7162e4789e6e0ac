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

type SummaryVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.SummaryVersion) (*types.SummaryVersion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SummaryVersion, error)
	ListBySummaryID(ctx context.Context, tx *gorm.DB, summaryID uuid.UUID) ([]*types.SummaryVersion, error)
	GetBySummaryIDs(ctx context.Context, tx *gorm.DB, summaryIDs []uuid.UUID) ([]*types.SummaryVersion, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type summaryVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryVersionRepo(db *gorm.DB, baseLog *logger.Logger) SummaryVersionRepo {
	return &summaryVersionRepo{db: db, log: baseLog.With("repo", "SummaryVersionRepo")}
}

func (r *summaryVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.SummaryVersion) (*types.SummaryVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (r *summaryVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SummaryVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var version types.SummaryVersion
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *summaryVersionRepo) ListBySummaryID(ctx context.Context, tx *gorm.DB, summaryID uuid.UUID) ([]*types.SummaryVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SummaryVersion
	if err := transaction.WithContext(ctx).
		Where("summary_id = ?", summaryID).
		Order("version_number DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryVersionRepo) GetBySummaryIDs(ctx context.Context, tx *gorm.DB, summaryIDs []uuid.UUID) ([]*types.SummaryVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SummaryVersion
	if len(summaryIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("summary_id IN ?", summaryIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryVersionRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.SummaryVersion{}).Error
}
