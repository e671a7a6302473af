package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification kind constants
const (
	NotificationAnnouncement = "ANNOUNCEMENT"
	NotificationRankChange   = "RANK_CHANGE"
	NotificationOnboarding   = "ONBOARDING"
	NotificationSystem       = "SYSTEM"
)

// Notification is a per-user inbox item created by the worker (announcement
// fan-out, rank-change events) or by handlers directly.
type Notification struct {
	gorm.Model
	UserID  uint       `gorm:"not null;index"`
	User    User       `gorm:"constraint:OnDelete:CASCADE;"`
	Kind    string     `gorm:"not null;default:'SYSTEM'"`
	Title   string     `gorm:"not null"`
	Body    string     `gorm:"type:text"`
	Link    string     `gorm:"not null;default:''"`
	ReadAt  *time.Time `gorm:"column:read_at;index"`
	DedupID string     `gorm:"column:dedup_id;index"` // prevents double fan-out on task retry
}
