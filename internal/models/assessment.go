package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment defaults applied when a developer omits them.
const (
	DefaultPassingScore = 75
	DefaultTimeLimit    = 30
)

// Assessment is a multiple-choice skill test owned by a developer.
type Assessment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	DeveloperID  uint           `gorm:"not null;index" json:"developer_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Questions    datatypes.JSON `gorm:"not null" json:"questions"`
	PassingScore int            `gorm:"not null" json:"passing_score"`
	TimeLimit    int            `gorm:"not null" json:"time_limit"`
	IsActive     bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PassingThreshold returns the percentage needed to pass. Values outside
// 0..100 can only come from direct data edits and fall back to the default.
func (a Assessment) PassingThreshold() int {
	if a.PassingScore < 0 || a.PassingScore > 100 {
		return DefaultPassingScore
	}
	return a.PassingScore
}

// Bank decodes the persisted question payload.
func (a Assessment) Bank() QuestionBank {
	return ParseQuestionBank(a.Questions)
}
