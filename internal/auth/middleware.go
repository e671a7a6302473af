package auth

import (
	"net/http"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireAuth loads the session user, rejects unauthenticated callers and
// deactivated accounts, and injects the caller identity for downstream
// handlers.
func RequireAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get("user_id").(uint)
		if !ok {
			api.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			session.Clear()
			_ = session.Save()
			api.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		if !user.Active {
			api.Error(c, http.StatusForbidden, "account is deactivated")
			c.Abort()
			return
		}

		SetIdentity(c, IdentityOf(&user))
		c.Next()
	}
}

// RequireManager gates management endpoints: admins and managing
// positions pass, everyone else gets 403. Must run after RequireAuth.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			api.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if !identity.Manager {
			api.Error(c, http.StatusForbidden, "management permission required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin gates admin-only endpoints. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			api.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if identity.Role != models.RoleAdmin {
			api.Error(c, http.StatusForbidden, "admin permission required")
			c.Abort()
			return
		}
		c.Next()
	}
}
