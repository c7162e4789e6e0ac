package types

import (
	"time"

	"github.com/google/uuid"
)

// Section rows are written once during ingestion and never mutated.
// SortOrder is a total document-order ranking across the whole book, so
// reading order can be reconstructed without re-deriving it from pages.
type Section struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"book_id"`
	Book      *Book      `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Level     int        `gorm:"column:level;not null" json:"level"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	SortOrder int        `gorm:"column:sort_order;not null" json:"sort_order"`
	PageStart int        `gorm:"column:page_start;not null" json:"page_start"`
	PageEnd   int        `gorm:"column:page_end;not null" json:"page_end"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Section) TableName() string { return "section" }

type SectionAsset struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"book_id"`
	Book      *Book      `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	SectionID *uuid.UUID `gorm:"type:uuid;index" json:"section_id,omitempty"`
	PageNum   int        `gorm:"column:page_num;not null;index" json:"page_num"`
	FilePath  string     `gorm:"column:file_path;not null" json:"file_path"`
	Caption   string     `gorm:"column:caption" json:"caption"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (SectionAsset) TableName() string { return "section_asset" }
