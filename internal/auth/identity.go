package auth

import (
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the authenticated caller injected into the gin context by
// RequireAuth. Downstream handlers never touch the session directly.
type Identity struct {
	UserID   uint
	Email    string
	Name     string
	Role     string
	Position *string
	Manager  bool
}

// Viewer converts the identity into the visibility filter's input.
func (i Identity) Viewer() visibility.Viewer {
	return visibility.Viewer{Role: i.Role, Position: i.Position, Manager: i.Manager}
}

// IdentityOf builds an Identity from a loaded user record.
func IdentityOf(user *models.User) Identity {
	return Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Position: user.Position,
		Manager:  user.IsManager(),
	}
}

// SetIdentity injects the caller identity into the gin context. Used by
// RequireAuth and by handler tests that bypass the session layer.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}

// CurrentIdentity returns the caller identity set by RequireAuth.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}
