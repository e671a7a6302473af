package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrainingModule is a unit of training content with an optional quiz.
// Modules tied to a leaderboard category feed quiz scores into the current
// scoring period of matching leaderboards.
type TrainingModule struct {
	gorm.Model
	Title        string  `gorm:"not null"`
	Description  string  `gorm:"type:text"`
	SortOrder    int     `gorm:"column:sort_order;not null;default:0"`
	Required     bool    `gorm:"not null;default:false"`
	Active       bool    `gorm:"not null;default:true"`
	PassingScore int     `gorm:"column:passing_score;not null;default:70"`
	ScoreFeed    *string `gorm:"column:score_feed"` // leaderboard category, nil = quiz scores stay local
	VisibilityScope

	Sections  []TrainingSection `gorm:"constraint:OnDelete:CASCADE;"`
	Questions []QuizQuestion    `gorm:"constraint:OnDelete:CASCADE;"`
}

// TrainingSection is ordered content within a module.
type TrainingSection struct {
	gorm.Model
	TrainingModuleID uint   `gorm:"column:training_module_id;not null;index"`
	Title            string `gorm:"not null"`
	Content          string `gorm:"type:text"`
	SortOrder        int    `gorm:"column:sort_order;not null;default:0"`
}

// QuizQuestion holds the prompt, its options as a JSONB array, and the
// index of the correct option. The correct index is never serialized to
// non-manager callers.
type QuizQuestion struct {
	gorm.Model
	TrainingModuleID uint                        `gorm:"column:training_module_id;not null;index"`
	Prompt           string                      `gorm:"type:text;not null"`
	Options          datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CorrectIndex     int                         `gorm:"column:correct_index;not null" json:"-"`
	SortOrder        int                         `gorm:"column:sort_order;not null;default:0"`
}

// QuizAttempt records one graded submission.
type QuizAttempt struct {
	gorm.Model
	TrainingModuleID uint           `gorm:"column:training_module_id;not null;index"`
	UserID           uint           `gorm:"not null;index"`
	User             User           `gorm:"constraint:OnDelete:CASCADE;"`
	Score            float64        `gorm:"not null"` // percent, 0-100
	Passed           bool           `gorm:"not null"`
	Answers          datatypes.JSON `gorm:"type:jsonb"`
	CompletedAt      time.Time      `gorm:"column:completed_at;not null"`
}
