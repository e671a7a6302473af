// Package announcements serves dashboard-wide posts: manager-authored
// content fanned out to visible users as notifications on publish.
package announcements

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/worker"
)

type announcementRequest struct {
	Title              string     `json:"title" binding:"required"`
	Content            string     `json:"content" binding:"required"`
	Priority           string     `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	VisibleToRoles     []string   `json:"visibleToRoles"`
	VisibleToPositions []string   `json:"visibleToPositions" binding:"omitempty,dive,position"`
}

// CreateHandler creates a draft announcement. Publishing is a separate step
// so managers can stage content before the fan-out happens.
func CreateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var req announcementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		announcement := models.Announcement{
			Title:       req.Title,
			Content:     req.Content,
			Priority:    models.PriorityNormal,
			ExpiresAt:   req.ExpiresAt,
			CreatedByID: identity.UserID,
			VisibilityScope: models.VisibilityScope{
				VisibleToRoles:     req.VisibleToRoles,
				VisibleToPositions: req.VisibleToPositions,
			},
		}
		if req.Priority != "" {
			announcement.Priority = req.Priority
		}

		if err := db.Create(&announcement).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create announcement")
			return
		}
		api.Created(c, announcement)
	}
}

// UpdateHandler edits an announcement's content and scope.
func UpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var announcement models.Announcement
		if err := db.First(&announcement, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Announcement not found")
			return
		}

		var req announcementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		announcement.Title = req.Title
		announcement.Content = req.Content
		announcement.ExpiresAt = req.ExpiresAt
		announcement.VisibleToRoles = req.VisibleToRoles
		announcement.VisibleToPositions = req.VisibleToPositions
		if req.Priority != "" {
			announcement.Priority = req.Priority
		}

		if err := db.Save(&announcement).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update announcement")
			return
		}
		api.Success(c, announcement)
	}
}

// PublishHandler flips an announcement live and enqueues the notification
// fan-out. Publishing twice is a no-op.
func PublishHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var announcement models.Announcement
		if err := db.First(&announcement, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Announcement not found")
			return
		}

		if !announcement.Published {
			now := time.Now()
			if err := db.Model(&announcement).Updates(map[string]interface{}{
				"published":    true,
				"published_at": now,
			}).Error; err != nil {
				api.Error(c, http.StatusInternalServerError, "failed to publish announcement")
				return
			}
			announcement.Published = true
			announcement.PublishedAt = &now

			if err := worker.EnqueueAnnouncementFanout(announcement.ID); err != nil {
				// Dedup IDs make a later retry safe, so publishing still succeeds.
				api.Success(c, gin.H{
					"announcement": announcement,
					"warning":      "notification fan-out could not be enqueued",
				})
				return
			}
		}

		api.Success(c, announcement)
	}
}

// DeleteHandler removes an announcement.
func DeleteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Delete(&models.Announcement{}, id)
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete announcement")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Announcement not found")
			return
		}
		api.Message(c, "Announcement deleted")
	}
}

// ListHandler returns announcements the caller may see. Non-managers get
// published, unexpired, visibility-scoped posts ordered by priority recency;
// managers see everything including drafts.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		now := time.Now()

		var announcements []models.Announcement
		q := db.Preload("CreatedBy").Order("published_at DESC NULLS LAST, created_at DESC")
		if !identity.Manager {
			q = q.Where("published = ?", true).
				Where("expires_at IS NULL OR expires_at >= ?", now)
		}
		if err := q.Find(&announcements).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list announcements")
			return
		}

		visible := make([]announcementView, 0, len(announcements))
		for _, a := range announcements {
			if visibility.Visible(a.Scope(), identity.Viewer()) {
				visible = append(visible, view(a))
			}
		}
		api.Success(c, visible)
	}
}

// GetHandler returns one announcement, hidden from callers outside its scope.
func GetHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var announcement models.Announcement
		if err := db.Preload("CreatedBy").First(&announcement, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Announcement not found")
			return
		}

		if !visibility.Visible(announcement.Scope(), identity.Viewer()) ||
			(!identity.Manager && (!announcement.Published || announcement.Expired(time.Now()))) {
			api.Error(c, http.StatusNotFound, "Announcement not found")
			return
		}
		api.Success(c, view(announcement))
	}
}

// announcementView exposes the author as a public profile only.
type announcementView struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	Priority    string               `json:"priority"`
	Published   bool                 `json:"published"`
	PublishedAt *time.Time           `json:"publishedAt"`
	ExpiresAt   *time.Time           `json:"expiresAt"`
	CreatedBy   models.PublicProfile `json:"createdBy"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func view(a models.Announcement) announcementView {
	return announcementView{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Priority:    a.Priority,
		Published:   a.Published,
		PublishedAt: a.PublishedAt,
		ExpiresAt:   a.ExpiresAt,
		CreatedBy:   a.CreatedBy.Public(),
		CreatedAt:   a.CreatedAt,
	}
}
