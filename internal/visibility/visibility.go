// Package visibility implements the role/position scoping shared by
// leaderboards, announcements, links, calendar events and training modules.
package visibility

// Scope is a resource's allow-lists. An empty list means the resource is
// not restricted on that dimension, never "visible to none".
type Scope struct {
	Roles     []string
	Positions []string
}

// Viewer is the caller the scope is evaluated against. Position is nil for
// users with no position assigned. Manager marks elevated privilege
// (admins and managing positions) which bypasses scoping entirely.
type Viewer struct {
	Role     string
	Position *string
	Manager  bool
}

// Visible decides whether a resource with the given scope may be shown to
// the viewer. Active/inactive filtering is a separate condition applied by
// the caller; managers do not bypass it here.
func Visible(s Scope, v Viewer) bool {
	if v.Manager {
		return true
	}

	roleOk := len(s.Roles) == 0 || contains(s.Roles, v.Role)

	// A position-restricted resource is never visible to a caller with no
	// position assigned.
	positionOk := len(s.Positions) == 0 ||
		(v.Position != nil && contains(s.Positions, *v.Position))

	return roleOk && positionOk
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
