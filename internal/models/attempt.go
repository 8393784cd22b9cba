package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Attempt is one scored submission of an assessment. Rows are append-only.
// Sequence numbers each attempt per (user, assessment); the unique index on
// the triple rejects two concurrent inserts claiming the same slot.
type Attempt struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;uniqueIndex:idx_attempt_sequence,priority:1" json:"user_id"`
	AssessmentID uint           `gorm:"not null;uniqueIndex:idx_attempt_sequence,priority:2;index" json:"assessment_id"`
	Sequence     int            `gorm:"not null;uniqueIndex:idx_attempt_sequence,priority:3" json:"sequence"`
	Answers      datatypes.JSON `gorm:"not null" json:"answers"`
	Score        int            `gorm:"not null" json:"score"`
	Passed       bool           `gorm:"not null;index" json:"passed"`
	Badge        string         `gorm:"size:255" json:"badge"`
	CreatedAt    time.Time      `json:"created_at"`
	Assessment   Assessment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Certificate  *Certificate   `gorm:"foreignKey:AttemptID" json:"certificate,omitempty"`
}

// AnswerList decodes the stored answers. Corrupted payloads decode to nil.
func (a Attempt) AnswerList() []string {
	var answers []string
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil
	}
	return answers
}
