package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Competition category constants
const (
	CategorySales        = "SALES"
	CategoryAppointments = "APPOINTMENTS"
	CategoryReferrals    = "REFERRALS"
	CategoryTraining     = "TRAINING"
	CategoryRetention    = "RETENTION"
)

// Categories lists every valid competition type.
var Categories = []string{
	CategorySales,
	CategoryAppointments,
	CategoryReferrals,
	CategoryTraining,
	CategoryRetention,
}

// ValidCategory reports whether c is one of the known competition types.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Period granularity constants
const (
	PeriodDaily     = "DAILY"
	PeriodWeekly    = "WEEKLY"
	PeriodMonthly   = "MONTHLY"
	PeriodQuarterly = "QUARTERLY"
	PeriodYearly    = "YEARLY"
	PeriodAllTime   = "ALL_TIME"
)

// PeriodTypes lists every valid period granularity.
var PeriodTypes = []string{
	PeriodDaily,
	PeriodWeekly,
	PeriodMonthly,
	PeriodQuarterly,
	PeriodYearly,
	PeriodAllTime,
}

// ValidPeriodType reports whether p is a known period granularity.
func ValidPeriodType(p string) bool {
	for _, known := range PeriodTypes {
		if p == known {
			return true
		}
	}
	return false
}

// Leaderboard is an administratively managed competition. EligiblePositions
// empty means every position may appear on it.
type Leaderboard struct {
	gorm.Model
	Name              string                      `gorm:"not null"`
	Description       string                      `gorm:"type:text"`
	Category          string                      `gorm:"not null;index"`
	PeriodType        string                      `gorm:"column:period_type;not null"`
	Active            bool                        `gorm:"not null;default:true"`
	EligiblePositions datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	VisibilityScope

	Entries []LeaderboardEntry `gorm:"constraint:OnDelete:CASCADE;"`
}

// LeaderboardEntry is one user's score within a scoring period. At most one
// entry exists per (leaderboard, user, period_start, period_end) tuple; Rank
// stays nil until the rank engine has run for the period group.
type LeaderboardEntry struct {
	gorm.Model
	LeaderboardID uint           `gorm:"not null;uniqueIndex:idx_entries_board_user_period,where:deleted_at IS NULL"`
	Leaderboard   Leaderboard    `gorm:"constraint:OnDelete:CASCADE;"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_entries_board_user_period,where:deleted_at IS NULL"`
	User          User           `gorm:"constraint:OnDelete:CASCADE;"`
	Score         float64        `gorm:"not null"`
	Rank          *int           `gorm:"index"`
	PeriodStart   time.Time      `gorm:"column:period_start;not null;uniqueIndex:idx_entries_board_user_period,where:deleted_at IS NULL"`
	PeriodEnd     time.Time      `gorm:"column:period_end;not null;uniqueIndex:idx_entries_board_user_period,where:deleted_at IS NULL"`
	Metrics       datatypes.JSON `gorm:"type:jsonb"`
}
