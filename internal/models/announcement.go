package models

import (
	"time"

	"gorm.io/gorm"
)

// Announcement priority constants
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Announcement is a dashboard-wide post. Drafts stay invisible to
// non-managers until published; an expired announcement drops out of
// listings but is never deleted automatically.
type Announcement struct {
	gorm.Model
	Title       string     `gorm:"not null"`
	Content     string     `gorm:"type:text;not null"`
	Priority    string     `gorm:"not null;default:'NORMAL'"`
	Published   bool       `gorm:"not null;default:false;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	CreatedByID uint       `gorm:"column:created_by_id;not null"`
	CreatedBy   User       `gorm:"foreignKey:CreatedByID"`
	VisibilityScope
}

// Expired reports whether the announcement's expiry has passed at now.
func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// ImportantLink is a curated external resource shown on the dashboard,
// ordered by SortOrder within its category.
type ImportantLink struct {
	gorm.Model
	Title     string `gorm:"not null"`
	URL       string `gorm:"not null"`
	Category  string `gorm:"not null;default:'GENERAL';index"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0"`
	Active    bool   `gorm:"not null;default:true"`
	VisibilityScope
}
