package models

import (
	"time"

	"gorm.io/gorm"
)

// Calendar event type constants
const (
	EventMeeting  = "MEETING"
	EventTraining = "TRAINING"
	EventBlitz    = "BLITZ"
	EventHoliday  = "HOLIDAY"
	EventOther    = "OTHER"
)

// CalendarEvent is a scheduled team event, visibility-scoped like every
// other dashboard resource.
type CalendarEvent struct {
	gorm.Model
	Title       string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	EventType   string    `gorm:"column:event_type;not null;default:'OTHER'"`
	Location    string    `gorm:"not null;default:''"`
	StartsAt    time.Time `gorm:"column:starts_at;not null;index"`
	EndsAt      time.Time `gorm:"column:ends_at;not null"`
	AllDay      bool      `gorm:"column:all_day;not null;default:false"`
	CreatedByID uint      `gorm:"column:created_by_id;not null"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID"`
	VisibilityScope
}
