package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type AudioAssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, asset *types.AudioAsset) (*types.AudioAsset, error)
	GetByVersionAndHash(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, contentHash string) (*types.AudioAsset, error)
	GetLatestByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.AudioAsset, error)
	GetByVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.AudioAsset, error)
	DeleteByVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error
}

type audioAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAudioAssetRepo(db *gorm.DB, baseLog *logger.Logger) AudioAssetRepo {
	return &audioAssetRepo{db: db, log: baseLog.With("repo", "AudioAssetRepo")}
}

func (r *audioAssetRepo) Create(ctx context.Context, tx *gorm.DB, asset *types.AudioAsset) (*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *audioAssetRepo) GetByVersionAndHash(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, contentHash string) (*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var asset types.AudioAsset
	err := transaction.WithContext(ctx).
		Where("version_id = ? AND content_hash = ?", versionID, contentHash).
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *audioAssetRepo) GetLatestByVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var asset types.AudioAsset
	err := transaction.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("created_at DESC").
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *audioAssetRepo) GetByVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AudioAsset
	if len(versionIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("version_id IN ?", versionIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *audioAssetRepo) DeleteByVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(versionIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("version_id IN ?", versionIDs).
		Delete(&types.AudioAsset{}).Error
}
