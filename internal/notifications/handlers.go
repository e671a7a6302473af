// Package notifications serves the per-user inbox written by the worker.
package notifications

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

// ListHandler returns the caller's notifications, newest first. ?unread=true
// narrows to unread only.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var notifications []models.Notification
		q := db.Where("user_id = ?", identity.UserID).
			Order("created_at DESC").
			Limit(100)
		if c.Query("unread") == "true" {
			q = q.Where("read_at IS NULL")
		}
		if err := q.Find(&notifications).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list notifications")
			return
		}

		views := make([]notificationView, 0, len(notifications))
		for _, n := range notifications {
			views = append(views, view(n))
		}
		api.Success(c, views)
	}
}

// UnreadCountHandler returns the caller's unread badge count.
func UnreadCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var count int64
		if err := db.Model(&models.Notification{}).
			Where("user_id = ? AND read_at IS NULL", identity.UserID).
			Count(&count).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to count notifications")
			return
		}
		api.Success(c, gin.H{"unread": count})
	}
}

// MarkReadHandler marks one of the caller's notifications read. Idempotent.
func MarkReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var notification models.Notification
		if err := db.Where("id = ? AND user_id = ?", id, identity.UserID).
			First(&notification).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Notification not found")
			return
		}

		if notification.ReadAt == nil {
			now := time.Now()
			if err := db.Model(&notification).Update("read_at", now).Error; err != nil {
				api.Error(c, http.StatusInternalServerError, "failed to mark as read")
				return
			}
			notification.ReadAt = &now
		}
		api.Success(c, view(notification))
	}
}

// MarkAllReadHandler marks every unread notification of the caller read.
func MarkAllReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		result := db.Model(&models.Notification{}).
			Where("user_id = ? AND read_at IS NULL", identity.UserID).
			Update("read_at", time.Now())
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to mark notifications read")
			return
		}
		api.Success(c, gin.H{"marked": result.RowsAffected})
	}
}

type notificationView struct {
	ID        uint       `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Link      string     `json:"link"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

func view(n models.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
