package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/repos"
	"github.com/pagetone/pagetone-backend/internal/types"
)

// TTSService turns summary versions into audio files. Results are cached by
// (version, content hash): synthesizing the same version twice returns the
// first audio asset without touching the synthesizer again.
type TTSService interface {
	GenerateAudio(ctx context.Context, versionID uuid.UUID) (*types.AudioAsset, error)
	GetLatestAudio(ctx context.Context, versionID uuid.UUID) (*types.AudioAsset, error)
}

type ttsService struct {
	log         *logger.Logger
	versionRepo repos.SummaryVersionRepo
	summaryRepo repos.SummaryRepo
	sectionRepo repos.SectionRepo
	audioRepo   repos.AudioAssetRepo
	synth       SpeechSynthesizer
	audioDir    string
}

func NewTTSService(
	log *logger.Logger,
	versionRepo repos.SummaryVersionRepo,
	summaryRepo repos.SummaryRepo,
	sectionRepo repos.SectionRepo,
	audioRepo repos.AudioAssetRepo,
	synth SpeechSynthesizer,
	audioDir string,
) TTSService {
	return &ttsService{
		log:         log.With("service", "TTSService"),
		versionRepo: versionRepo,
		summaryRepo: summaryRepo,
		sectionRepo: sectionRepo,
		audioRepo:   audioRepo,
		synth:       synth,
		audioDir:    audioDir,
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *ttsService) GenerateAudio(ctx context.Context, versionID uuid.UUID) (*types.AudioAsset, error) {
	version, err := s.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return nil, err
	}

	contentHash := hashText(version.Content)
	existing, err := s.audioRepo.GetByVersionAndHash(ctx, nil, versionID, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Debug("Audio cache hit", "version_id", versionID, "content_hash", contentHash)
		return existing, nil
	}

	summary, err := s.summaryRepo.GetByID(ctx, nil, version.SummaryID)
	if err != nil {
		return nil, err
	}
	section, err := s.sectionRepo.GetByID(ctx, nil, summary.SectionID)
	if err != nil {
		return nil, err
	}

	basePath := filepath.Join(s.audioDir, section.BookID.String(), section.ID.String(), versionID.String())
	path, format, err := s.synth.Synthesize(ctx, version.Content, basePath)
	if err != nil {
		return nil, err
	}

	asset := &types.AudioAsset{
		ID:          uuid.New(),
		VersionID:   versionID,
		ContentHash: contentHash,
		FilePath:    path,
		Format:      format,
	}
	if _, err := s.audioRepo.Create(ctx, nil, asset); err != nil {
		return nil, err
	}
	s.log.Info("Audio generated", "version_id", versionID, "file_path", path, "format", format)
	return asset, nil
}

func (s *ttsService) GetLatestAudio(ctx context.Context, versionID uuid.UUID) (*types.AudioAsset, error) {
	if _, err := s.versionRepo.GetByID(ctx, nil, versionID); err != nil {
		return nil, err
	}
	return s.audioRepo.GetLatestByVersionID(ctx, nil, versionID)
}
