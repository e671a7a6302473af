package leaderboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type boardRequest struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	Category           string   `json:"category" binding:"required,category"`
	PeriodType         string   `json:"periodType" binding:"required,periodtype"`
	Active             *bool    `json:"active"`
	EligiblePositions  []string `json:"eligiblePositions" binding:"omitempty,dive,position"`
	VisibleToRoles     []string `json:"visibleToRoles"`
	VisibleToPositions []string `json:"visibleToPositions" binding:"omitempty,dive,position"`
}

// CreateLeaderboardHandler creates a competition. Manager-gated by the
// router.
func CreateLeaderboardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req boardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		board := models.Leaderboard{
			Name:              req.Name,
			Description:       req.Description,
			Category:          req.Category,
			PeriodType:        req.PeriodType,
			Active:            true,
			EligiblePositions: req.EligiblePositions,
			VisibilityScope: models.VisibilityScope{
				VisibleToRoles:     req.VisibleToRoles,
				VisibleToPositions: req.VisibleToPositions,
			},
		}
		if req.Active != nil {
			board.Active = *req.Active
		}

		if err := db.Create(&board).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create leaderboard")
			return
		}
		api.Created(c, board)
	}
}

// UpdateLeaderboardHandler edits a competition.
func UpdateLeaderboardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var board models.Leaderboard
		if err := db.First(&board, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Leaderboard not found")
			return
		}

		var req boardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		board.Name = req.Name
		board.Description = req.Description
		board.Category = req.Category
		board.PeriodType = req.PeriodType
		board.EligiblePositions = req.EligiblePositions
		board.VisibleToRoles = req.VisibleToRoles
		board.VisibleToPositions = req.VisibleToPositions
		if req.Active != nil {
			board.Active = *req.Active
		}

		if err := db.Save(&board).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update leaderboard")
			return
		}
		api.Success(c, board)
	}
}

// DeleteLeaderboardHandler removes a competition; entries cascade.
func DeleteLeaderboardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Select("Entries").Delete(&models.Leaderboard{Model: gorm.Model{ID: id}})
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete leaderboard")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Leaderboard not found")
			return
		}
		api.Message(c, "Leaderboard deleted")
	}
}

// ListLeaderboardsHandler returns the boards the caller may see. The
// active-only condition for non-managers is independent of visibility
// scoping.
func ListLeaderboardsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var boards []models.Leaderboard
		q := db.Order("created_at DESC")
		if !identity.Manager {
			q = q.Where("active = ?", true)
		}
		if err := q.Find(&boards).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list leaderboards")
			return
		}

		visible := make([]models.Leaderboard, 0, len(boards))
		for _, board := range boards {
			if visibility.Visible(board.Scope(), identity.Viewer()) {
				visible = append(visible, board)
			}
		}
		api.Success(c, visible)
	}
}

// GetLeaderboardHandler returns a single board, hidden from callers its
// visibility scope excludes.
func GetLeaderboardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var board models.Leaderboard
		if err := db.First(&board, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Leaderboard not found")
			return
		}

		if !visibility.Visible(board.Scope(), identity.Viewer()) ||
			(!identity.Manager && !board.Active) {
			api.Error(c, http.StatusNotFound, "Leaderboard not found")
			return
		}
		api.Success(c, board)
	}
}

type importRequest struct {
	PeriodStart time.Time   `json:"periodStart"`
	PeriodEnd   time.Time   `json:"periodEnd"`
	Entries     []ImportRow `json:"entries"`
}

// BulkImportHandler accepts a batch of scores for one period. The body is
// checked against the embedded JSON Schema before binding; row-level
// failures are reported in the result summary, not as request errors.
func BulkImportHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			api.Error(c, http.StatusBadRequest, "failed to read request body")
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			api.Error(c, http.StatusBadRequest, "request body is not valid JSON")
			return
		}
		if err := ValidateImportPayload(payload); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		var req importRequest
		if err := json.Unmarshal(body, &req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if !req.PeriodStart.Before(req.PeriodEnd) {
			api.Error(c, http.StatusBadRequest, "periodStart must be before periodEnd")
			return
		}

		result, err := svc.BulkImport(c.Request.Context(), id, req.PeriodStart, req.PeriodEnd, req.Entries)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		api.Success(c, gin.H{
			"message": "Bulk import completed",
			"results": result,
		})
	}
}

// Score is a pointer because zero is a legal value; binding:"required"
// alone would reject an explicit 0.
type createEntryRequest struct {
	UserID      uint                   `json:"userId" binding:"required"`
	Score       *float64               `json:"score"`
	PeriodStart time.Time              `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time              `json:"periodEnd" binding:"required"`
	Metrics     map[string]interface{} `json:"metrics"`
}

// CreateEntryHandler inserts a single entry strictly: a duplicate
// (user, period) tuple is a conflict, not an upsert.
func CreateEntryHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var req createEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Score == nil {
			api.Error(c, http.StatusBadRequest, "score is required")
			return
		}
		if !req.PeriodStart.Before(req.PeriodEnd) {
			api.Error(c, http.StatusBadRequest, "periodStart must be before periodEnd")
			return
		}

		entry := models.LeaderboardEntry{
			LeaderboardID: id,
			UserID:        req.UserID,
			Score:         *req.Score,
			PeriodStart:   req.PeriodStart,
			PeriodEnd:     req.PeriodEnd,
			Metrics:       marshalMetrics(req.Metrics),
		}
		if err := svc.CreateEntry(c.Request.Context(), &entry); err != nil {
			writeServiceError(c, err)
			return
		}
		api.Created(c, entryView(entry))
	}
}

type updateEntryRequest struct {
	Score   float64                `json:"score"`
	Metrics map[string]interface{} `json:"metrics"`
}

// UpdateEntryHandler overwrites an entry's score and metrics.
func UpdateEntryHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParamNamed(c, "entryId")
		if !ok {
			return
		}

		var req updateEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		entry, err := svc.UpdateEntry(c.Request.Context(), id, req.Score, req.Metrics)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		api.Success(c, entryView(*entry))
	}
}

// DeleteEntryHandler removes an entry and reranks the remaining group.
func DeleteEntryHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParamNamed(c, "entryId")
		if !ok {
			return
		}

		if err := svc.DeleteEntry(c.Request.Context(), id); err != nil {
			writeServiceError(c, err)
			return
		}
		api.Message(c, "Entry deleted")
	}
}

// ListEntriesHandler returns visible, filtered entries annotated with the
// owning user's public profile only.
func ListEntriesHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		board, err := svc.Leaderboard(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if !visibility.Visible(board.Scope(), identity.Viewer()) ||
			(!identity.Manager && !board.Active) {
			api.Error(c, http.StatusNotFound, "Leaderboard not found")
			return
		}

		filter, ok := parseListFilter(c)
		if !ok {
			return
		}

		entries, err := svc.ListEntries(c.Request.Context(), id, filter)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		views := make([]EntryView, 0, len(entries))
		for _, entry := range entries {
			views = append(views, entryView(entry))
		}
		api.Success(c, views)
	}
}

// EntryView is the wire shape of one entry: the user appears as a public
// profile, never the full record.
type EntryView struct {
	ID          uint                 `json:"id"`
	User        models.PublicProfile `json:"user"`
	Score       float64              `json:"score"`
	Rank        *int                 `json:"rank"`
	PeriodStart time.Time            `json:"periodStart"`
	PeriodEnd   time.Time            `json:"periodEnd"`
	Metrics     json.RawMessage      `json:"metrics,omitempty"`
}

func entryView(entry models.LeaderboardEntry) EntryView {
	return EntryView{
		ID:          entry.ID,
		User:        entry.User.Public(),
		Score:       entry.Score,
		Rank:        entry.Rank,
		PeriodStart: entry.PeriodStart,
		PeriodEnd:   entry.PeriodEnd,
		Metrics:     json.RawMessage(entry.Metrics),
	}
}

func parseListFilter(c *gin.Context) (ListFilter, bool) {
	filter := ListFilter{
		Search:   c.Query("search"),
		Position: c.Query("position"),
		Limit:    50,
	}

	if filter.Position != "" && !models.ValidPosition(filter.Position) {
		api.Error(c, http.StatusBadRequest, "unknown position filter")
		return filter, false
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			api.Error(c, http.StatusBadRequest, "limit must be a positive integer")
			return filter, false
		}
		filter.Limit = limit
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.Error(c, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return filter, false
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.Error(c, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return filter, false
		}
		filter.To = &to
	}

	return filter, true
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLeaderboardNotFound):
		api.Error(c, http.StatusNotFound, "Leaderboard not found")
	case errors.Is(err, ErrEntryNotFound):
		api.Error(c, http.StatusNotFound, "Entry not found")
	case errors.Is(err, ErrDuplicateEntry):
		api.Error(c, http.StatusConflict, err.Error())
	default:
		api.Error(c, http.StatusInternalServerError, "internal error")
	}
}
