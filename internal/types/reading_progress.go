package types

import (
	"time"

	"github.com/google/uuid"
)

type ReadingProgress struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"book_id"`
	Book          *Book      `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	LastPage      int        `gorm:"column:last_page;not null;default:1" json:"last_page"`
	LastSectionID *uuid.UUID `gorm:"type:uuid" json:"last_section_id,omitempty"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (ReadingProgress) TableName() string { return "reading_progress" }
