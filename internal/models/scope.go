package models

import (
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
	"gorm.io/datatypes"
)

// VisibilityScope is embedded by every role/position scoped model. The
// allow-lists are stored as JSONB arrays; empty means unrestricted on that
// dimension.
type VisibilityScope struct {
	VisibleToRoles     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"visibleToRoles"`
	VisibleToPositions datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"visibleToPositions"`
}

// Scope converts the stored allow-lists into the pure filter's input type.
func (s VisibilityScope) Scope() visibility.Scope {
	return visibility.Scope{
		Roles:     s.VisibleToRoles,
		Positions: s.VisibleToPositions,
	}
}
