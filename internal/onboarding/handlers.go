// Package onboarding serves per-position onboarding tracks, step completion,
// and progress summaries.
package onboarding

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

type stepRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	Required    *bool  `json:"required"`
}

type trackRequest struct {
	Name         string        `json:"name" binding:"required"`
	Description  string        `json:"description"`
	ForPositions []string      `json:"forPositions" binding:"omitempty,dive,position"`
	Active       *bool         `json:"active"`
	Steps        []stepRequest `json:"steps" binding:"omitempty,dive"`
}

// CreateTrackHandler creates a track with its steps in one request.
func CreateTrackHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		track := trackFromRequest(req)
		if err := db.Create(&track).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create track")
			return
		}
		api.Created(c, track)
	}
}

// UpdateTrackHandler replaces a track and its steps. Completions tied to
// removed steps are dropped with them.
func UpdateTrackHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var track models.OnboardingTrack
		if err := db.First(&track, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Track not found")
			return
		}

		var req trackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		replacement := trackFromRequest(req)
		replacement.ID = track.ID
		replacement.CreatedAt = track.CreatedAt
		if req.Active == nil {
			replacement.Active = track.Active
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var stepIDs []uint
			if err := tx.Model(&models.OnboardingStep{}).
				Where("onboarding_track_id = ?", track.ID).
				Pluck("id", &stepIDs).Error; err != nil {
				return err
			}
			if len(stepIDs) > 0 {
				if err := tx.Where("onboarding_step_id IN ?", stepIDs).
					Delete(&models.StepCompletion{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("onboarding_track_id = ?", track.ID).
				Delete(&models.OnboardingStep{}).Error; err != nil {
				return err
			}
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&replacement).Error
		})
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update track")
			return
		}
		api.Success(c, replacement)
	}
}

// DeleteTrackHandler removes a track; steps cascade.
func DeleteTrackHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Select("Steps").Delete(&models.OnboardingTrack{Model: gorm.Model{ID: id}})
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete track")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Track not found")
			return
		}
		api.Message(c, "Track deleted")
	}
}

// ListTracksHandler returns the tracks that apply to the caller's position,
// with per-step completion state and a progress summary. Managers see all
// tracks without progress annotation filtering.
func ListTracksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var tracks []models.OnboardingTrack
		q := db.Preload("Steps", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC, id ASC")
		}).Order("name ASC")
		if !identity.Manager {
			q = q.Where("active = ?", true)
		}
		if err := q.Find(&tracks).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list tracks")
			return
		}

		completed, err := completedSteps(db, identity.UserID)
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list tracks")
			return
		}

		views := make([]trackView, 0, len(tracks))
		for _, track := range tracks {
			if !identity.Manager && !appliesTo(track, identity.Position) {
				continue
			}
			views = append(views, buildTrackView(track, completed))
		}
		api.Success(c, views)
	}
}

// GetTrackHandler returns one track with the caller's progress.
func GetTrackHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var track models.OnboardingTrack
		err := db.Preload("Steps", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC, id ASC")
		}).First(&track, id).Error
		if err != nil {
			api.Error(c, http.StatusNotFound, "Track not found")
			return
		}
		if !identity.Manager && (!track.Active || !appliesTo(track, identity.Position)) {
			api.Error(c, http.StatusNotFound, "Track not found")
			return
		}

		completed, err := completedSteps(db, identity.UserID)
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to load track")
			return
		}
		api.Success(c, buildTrackView(track, completed))
	}
}

// CompleteStepHandler marks a step done for the caller. Completing twice is
// idempotent.
func CompleteStepHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParamNamed(c, "stepId")
		if !ok {
			return
		}

		var step models.OnboardingStep
		if err := db.First(&step, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Step not found")
			return
		}

		completion := models.StepCompletion{
			OnboardingStepID: step.ID,
			UserID:           identity.UserID,
			CompletedAt:      time.Now(),
		}
		if err := db.Where("onboarding_step_id = ? AND user_id = ?", step.ID, identity.UserID).
			FirstOrCreate(&completion).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to record completion")
			return
		}
		api.Success(c, gin.H{
			"stepId":      step.ID,
			"completedAt": completion.CompletedAt,
		})
	}
}

// ProgressHandler returns the caller's overall onboarding progress across
// the tracks that apply to them.
func ProgressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var tracks []models.OnboardingTrack
		if err := db.Preload("Steps").Where("active = ?", true).Find(&tracks).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to compute progress")
			return
		}
		completed, err := completedSteps(db, identity.UserID)
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to compute progress")
			return
		}

		total, done := 0, 0
		for _, track := range tracks {
			if !appliesTo(track, identity.Position) {
				continue
			}
			for _, step := range track.Steps {
				total++
				if _, ok := completed[step.ID]; ok {
					done++
				}
			}
		}

		percent := 0.0
		if total > 0 {
			percent = float64(done) / float64(total) * 100
		}
		api.Success(c, gin.H{
			"completed": done,
			"total":     total,
			"percent":   percent,
		})
	}
}

type stepView struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SortOrder   int        `json:"sortOrder"`
	Required    bool       `json:"required"`
	CompletedAt *time.Time `json:"completedAt"`
}

type trackView struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ForPositions []string   `json:"forPositions"`
	Active       bool       `json:"active"`
	Steps        []stepView `json:"steps"`
	Completed    int        `json:"completed"`
	Total        int        `json:"total"`
}

func buildTrackView(track models.OnboardingTrack, completed map[uint]time.Time) trackView {
	view := trackView{
		ID:           track.ID,
		Name:         track.Name,
		Description:  track.Description,
		ForPositions: track.ForPositions,
		Active:       track.Active,
		Steps:        make([]stepView, 0, len(track.Steps)),
		Total:        len(track.Steps),
	}
	for _, step := range track.Steps {
		sv := stepView{
			ID:          step.ID,
			Title:       step.Title,
			Description: step.Description,
			SortOrder:   step.SortOrder,
			Required:    step.Required,
		}
		if at, ok := completed[step.ID]; ok {
			t := at
			sv.CompletedAt = &t
			view.Completed++
		}
		view.Steps = append(view.Steps, sv)
	}
	return view
}

func completedSteps(db *gorm.DB, userID uint) (map[uint]time.Time, error) {
	var completions []models.StepCompletion
	if err := db.Where("user_id = ?", userID).Find(&completions).Error; err != nil {
		return nil, err
	}
	m := make(map[uint]time.Time, len(completions))
	for _, comp := range completions {
		m[comp.OnboardingStepID] = comp.CompletedAt
	}
	return m, nil
}

// appliesTo reports whether a track targets the viewer's position. An empty
// position list means every position; a user without a position only gets
// untargeted tracks.
func appliesTo(track models.OnboardingTrack, position *string) bool {
	if len(track.ForPositions) == 0 {
		return true
	}
	if position == nil {
		return false
	}
	for _, p := range track.ForPositions {
		if p == *position {
			return true
		}
	}
	return false
}

func trackFromRequest(req trackRequest) models.OnboardingTrack {
	track := models.OnboardingTrack{
		Name:         req.Name,
		Description:  req.Description,
		ForPositions: datatypes.JSONSlice[string](req.ForPositions),
		Active:       true,
	}
	if req.Active != nil {
		track.Active = *req.Active
	}
	for _, s := range req.Steps {
		step := models.OnboardingStep{
			Title:       s.Title,
			Description: s.Description,
			SortOrder:   s.SortOrder,
			Required:    true,
		}
		if s.Required != nil {
			step.Required = *s.Required
		}
		track.Steps = append(track.Steps, step)
	}
	return track
}
