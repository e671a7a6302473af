package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OnboardingTrack groups the steps a new hire works through. ForPositions
// empty means the track applies to every position.
type OnboardingTrack struct {
	gorm.Model
	Name         string                      `gorm:"not null"`
	Description  string                      `gorm:"type:text"`
	ForPositions datatypes.JSONSlice[string] `gorm:"column:for_positions;type:jsonb"`
	Active       bool                        `gorm:"not null;default:true"`

	Steps []OnboardingStep `gorm:"constraint:OnDelete:CASCADE;"`
}

// OnboardingStep is one ordered task within a track.
type OnboardingStep struct {
	gorm.Model
	OnboardingTrackID uint   `gorm:"column:onboarding_track_id;not null;index"`
	Title             string `gorm:"not null"`
	Description       string `gorm:"type:text"`
	SortOrder         int    `gorm:"column:sort_order;not null;default:0"`
	Required          bool   `gorm:"not null;default:true"`
}

// StepCompletion marks a user as done with a step. One row per
// (user, step) pair.
type StepCompletion struct {
	gorm.Model
	OnboardingStepID uint      `gorm:"column:onboarding_step_id;not null;uniqueIndex:idx_step_completion_user_step,where:deleted_at IS NULL"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_step_completion_user_step,where:deleted_at IS NULL"`
	User             User      `gorm:"constraint:OnDelete:CASCADE;"`
	CompletedAt      time.Time `gorm:"column:completed_at;not null"`
}
