// Package calendar serves team events with date-range listing.
package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
)

type eventRequest struct {
	Title              string    `json:"title" binding:"required"`
	Description        string    `json:"description"`
	EventType          string    `json:"eventType" binding:"omitempty,oneof=MEETING TRAINING BLITZ HOLIDAY OTHER"`
	Location           string    `json:"location"`
	StartsAt           time.Time `json:"startsAt" binding:"required"`
	EndsAt             time.Time `json:"endsAt" binding:"required"`
	AllDay             bool      `json:"allDay"`
	VisibleToRoles     []string  `json:"visibleToRoles"`
	VisibleToPositions []string  `json:"visibleToPositions" binding:"omitempty,dive,position"`
}

// CreateHandler schedules an event.
func CreateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var req eventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if !req.StartsAt.Before(req.EndsAt) {
			api.Error(c, http.StatusBadRequest, "startsAt must be before endsAt")
			return
		}

		event := models.CalendarEvent{
			Title:       req.Title,
			Description: req.Description,
			EventType:   models.EventOther,
			Location:    req.Location,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			AllDay:      req.AllDay,
			CreatedByID: identity.UserID,
			VisibilityScope: models.VisibilityScope{
				VisibleToRoles:     req.VisibleToRoles,
				VisibleToPositions: req.VisibleToPositions,
			},
		}
		if req.EventType != "" {
			event.EventType = req.EventType
		}

		if err := db.Create(&event).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create event")
			return
		}
		api.Created(c, event)
	}
}

// UpdateHandler edits an event.
func UpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var event models.CalendarEvent
		if err := db.First(&event, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Event not found")
			return
		}

		var req eventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if !req.StartsAt.Before(req.EndsAt) {
			api.Error(c, http.StatusBadRequest, "startsAt must be before endsAt")
			return
		}

		event.Title = req.Title
		event.Description = req.Description
		event.Location = req.Location
		event.StartsAt = req.StartsAt
		event.EndsAt = req.EndsAt
		event.AllDay = req.AllDay
		event.VisibleToRoles = req.VisibleToRoles
		event.VisibleToPositions = req.VisibleToPositions
		if req.EventType != "" {
			event.EventType = req.EventType
		}

		if err := db.Save(&event).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update event")
			return
		}
		api.Success(c, event)
	}
}

// DeleteHandler cancels an event.
func DeleteHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Delete(&models.CalendarEvent{}, id)
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete event")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Event not found")
			return
		}
		api.Message(c, "Event deleted")
	}
}

// ListHandler returns visible events overlapping the requested range. With no
// range it defaults to the next 30 days.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		from := time.Now().Truncate(24 * time.Hour)
		to := from.AddDate(0, 0, 30)
		if raw := c.Query("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				api.Error(c, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
				return
			}
			from = t
		}
		if raw := c.Query("to"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				api.Error(c, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
				return
			}
			to = t
		}
		if !from.Before(to) {
			api.Error(c, http.StatusBadRequest, "from must be before to")
			return
		}

		var events []models.CalendarEvent
		q := db.Where("starts_at < ? AND ends_at > ?", to, from).
			Order("starts_at ASC")
		if eventType := c.Query("type"); eventType != "" {
			q = q.Where("event_type = ?", eventType)
		}
		if err := q.Find(&events).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list events")
			return
		}

		visible := make([]models.CalendarEvent, 0, len(events))
		for _, event := range events {
			if visibility.Visible(event.Scope(), identity.Viewer()) {
				visible = append(visible, event)
			}
		}
		api.Success(c, visible)
	}
}

// GetHandler returns one event, hidden outside its visibility scope.
func GetHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var event models.CalendarEvent
		if err := db.First(&event, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Event not found")
			return
		}
		if !visibility.Visible(event.Scope(), identity.Viewer()) {
			api.Error(c, http.StatusNotFound, "Event not found")
			return
		}
		api.Success(c, event)
	}
}
