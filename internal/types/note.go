package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Note anchors a question/answer pair to a page selection. Rects holds the
// highlight rectangles in fractional page coordinates so the viewer can
// re-render them at any resolution.
type Note struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BookID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"book_id"`
	Book          *Book          `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	SectionID     *uuid.UUID     `gorm:"type:uuid;index" json:"section_id,omitempty"`
	PageNum       int            `gorm:"column:page_num;not null;index" json:"page_num"`
	SelectionText string         `gorm:"column:selection_text;type:text;not null" json:"selection_text"`
	Question      string         `gorm:"column:question;type:text;not null" json:"question"`
	Answer        string         `gorm:"column:answer;type:text;not null" json:"answer"`
	Rects         datatypes.JSON `gorm:"column:rects;type:jsonb" json:"rects"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (Note) TableName() string { return "note" }

// HighlightRect is one fractional rectangle of a page selection.
type HighlightRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
