package models

import (
	"time"

	"gorm.io/gorm"
)

// Role constants
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Sales position constants. A user may also carry no position at all
// (Position == nil), e.g. a service account or a rep still in intake.
const (
	PositionTrainee   = "TRAINEE"
	PositionSalesRep  = "SALES_REP"
	PositionSeniorRep = "SENIOR_REP"
	PositionTeamLead  = "TEAM_LEAD"
	PositionManager   = "MANAGER"
	PositionExecutive = "EXECUTIVE"
)

// Positions lists every valid position value, in seniority order.
var Positions = []string{
	PositionTrainee,
	PositionSalesRep,
	PositionSeniorRep,
	PositionTeamLead,
	PositionManager,
	PositionExecutive,
}

// ValidPosition reports whether p is one of the known position values.
func ValidPosition(p string) bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// User represents a dashboard account. Email is matched case-insensitively
// everywhere; it is stored lowercased by the BeforeSave hook so the unique
// index enforces that.
type User struct {
	gorm.Model
	Email        string  `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name         string  `gorm:"not null;default:''"`
	PasswordHash string  `gorm:"column:password_hash;type:text" json:"-"`
	Avatar       string  `gorm:"not null;default:''"`
	Role         string  `gorm:"not null;default:'USER'"`
	Position     *string `gorm:"index"`
	Active       bool    `gorm:"not null;default:true"`
	LastLoginAt  *time.Time

	// Associations
	AuthIdentities []AuthIdentity `gorm:"constraint:OnDelete:CASCADE;"`
}

// BeforeSave normalizes the email so lookups can rely on exact matching.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// IsManager reports whether the user holds elevated dashboard privileges:
// admins and users in a managing position bypass visibility scoping.
func (u *User) IsManager() bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.Position == nil {
		return false
	}
	return *u.Position == PositionManager || *u.Position == PositionExecutive
}

// PublicProfile is the subset of user fields safe to embed in API
// responses for other callers (leaderboard rows, event attendees).
type PublicProfile struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Position *string `json:"position"`
	Avatar   string  `json:"avatar,omitempty"`
}

// Public returns the user's public profile view.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Name:     u.Name,
		Position: u.Position,
		Avatar:   u.Avatar,
	}
}
