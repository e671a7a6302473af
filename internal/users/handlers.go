// Package users serves profile self-service and the admin user directory.
package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

type profileRequest struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar" binding:"omitempty,url"`
}

// UpdateProfileHandler lets the caller edit their own display fields. Role,
// position, and active state are admin-only.
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		var user models.User
		if err := db.First(&user, identity.UserID).Error; err != nil {
			api.Error(c, http.StatusNotFound, "User not found")
			return
		}

		if err := db.Model(&user).Updates(map[string]interface{}{
			"name":   req.Name,
			"avatar": req.Avatar,
		}).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update profile")
			return
		}
		user.Name = req.Name
		user.Avatar = req.Avatar
		api.Success(c, user)
	}
}

// ListHandler returns the full user directory for admins.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		q := db.Order("name ASC")
		if search := c.Query("search"); search != "" {
			q = q.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		if c.Query("active") == "true" {
			q = q.Where("active = ?", true)
		}
		if err := q.Find(&users).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list users")
			return
		}
		api.Success(c, users)
	}
}

// GetHandler returns one user record for admins.
func GetHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "User not found")
			return
		}
		api.Success(c, user)
	}
}

type adminUpdateRequest struct {
	Role     string  `json:"role" binding:"omitempty,oneof=USER ADMIN"`
	Position *string `json:"position" binding:"omitempty,position"`
	Active   *bool   `json:"active"`
}

// AdminUpdateHandler changes role, position, or active state. Deactivating a
// user cuts off their next authenticated request.
func AdminUpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "User not found")
			return
		}

		var req adminUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		updates := map[string]interface{}{}
		if req.Role != "" {
			updates["role"] = req.Role
			user.Role = req.Role
		}
		if req.Position != nil {
			updates["position"] = *req.Position
			user.Position = req.Position
		}
		if req.Active != nil {
			updates["active"] = *req.Active
			user.Active = *req.Active
		}
		if len(updates) == 0 {
			api.Success(c, user)
			return
		}

		if err := db.Model(&user).Updates(updates).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update user")
			return
		}
		api.Success(c, user)
	}
}
