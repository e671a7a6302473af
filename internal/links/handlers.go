// Package links manages the curated external resources shown on the
// dashboard sidebar.
package links

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
)

type linkRequest struct {
	Title              string   `json:"title" binding:"required"`
	URL                string   `json:"url" binding:"required,url"`
	Category           string   `json:"category"`
	SortOrder          int      `json:"sortOrder"`
	Active             *bool    `json:"active"`
	VisibleToRoles     []string `json:"visibleToRoles"`
	VisibleToPositions []string `json:"visibleToPositions" binding:"omitempty,dive,position"`
}

// CreateHandler adds a link.
func CreateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req linkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		link := models.ImportantLink{
			Title:     req.Title,
			URL:       req.URL,
			Category:  "GENERAL",
			SortOrder: req.SortOrder,
			Active:    true,
			VisibilityScope: models.VisibilityScope{
				VisibleToRoles:     req.VisibleToRoles,
				VisibleToPositions: req.VisibleToPositions,
			},
		}
		if req.Category != "" {
			link.Category = req.Category
		}
		if req.Active != nil {
			link.Active = *req.Active
		}

		if err := db.Create(&link).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create link")
			return
		}
		api.Created(c, link)
	}
}

// UpdateHandler edits a link.
func UpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var link models.ImportantLink
		if err := db.First(&link, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Link not found")
			return
		}

		var req linkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		link.Title = req.Title
		link.URL = req.URL
		link.SortOrder = req.SortOrder
		link.VisibleToRoles = req.VisibleToRoles
		link.VisibleToPositions = req.VisibleToPositions
		if req.Category != "" {
			link.Category = req.Category
		}
		if req.Active != nil {
			link.Active = *req.Active
		}

		if err := db.Save(&link).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update link")
			return
		}
		api.Success(c, link)
	}
}

// DeleteHandler removes a link.
func DeleteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Delete(&models.ImportantLink{}, id)
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete link")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Link not found")
			return
		}
		api.Message(c, "Link deleted")
	}
}

// ListHandler returns visible links grouped in category and sort order.
// Non-managers only see active links.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var links []models.ImportantLink
		q := db.Order("category ASC, sort_order ASC, title ASC")
		if !identity.Manager {
			q = q.Where("active = ?", true)
		}
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if err := q.Find(&links).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list links")
			return
		}

		visible := make([]models.ImportantLink, 0, len(links))
		for _, link := range links {
			if visibility.Visible(link.Scope(), identity.Viewer()) {
				visible = append(visible, link)
			}
		}
		api.Success(c, visible)
	}
}
