package types

import (
	"time"

	"github.com/google/uuid"
)

// Summary owns a section's versions. VersionSeq is the high-water mark of
// issued version numbers; it only grows, so deleting the latest version can
// never cause its number to be handed out again.
type Summary struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"section_id"`
	Section    *Section  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"section,omitempty"`
	VersionSeq int       `gorm:"column:version_seq;not null;default:0" json:"version_seq"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Summary) TableName() string { return "summary" }

// SummaryVersion is an immutable snapshot. Regeneration appends the next
// version number; numbers are never reused, even after deletions.
type SummaryVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SummaryID     uuid.UUID `gorm:"type:uuid;not null;index" json:"summary_id"`
	Summary       *Summary  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SummaryID;references:ID" json:"summary,omitempty"`
	VersionNumber int       `gorm:"column:version_number;not null" json:"version_number"`
	Content       string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (SummaryVersion) TableName() string { return "summary_version" }

// AudioAsset is keyed by (version_id, content_hash); synthesis returns the
// existing row on a hash match instead of writing a second file.
type AudioAsset struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VersionID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"version_id"`
	Version     *SummaryVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:VersionID;references:ID" json:"version,omitempty"`
	ContentHash string          `gorm:"column:content_hash;size:64;not null;index" json:"content_hash"`
	FilePath    string          `gorm:"column:file_path;not null" json:"file_path"`
	Format      string          `gorm:"column:format;size:16;not null" json:"format"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (AudioAsset) TableName() string { return "audio_asset" }
