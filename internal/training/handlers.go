// Package training serves training modules, their ordered sections, quiz
// questions, and graded quiz attempts.
package training

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
)

type sectionRequest struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content"`
	SortOrder int    `json:"sortOrder"`
}

type questionRequest struct {
	Prompt       string   `json:"prompt" binding:"required"`
	Options      []string `json:"options" binding:"required,min=2"`
	CorrectIndex int      `json:"correctIndex"`
	SortOrder    int      `json:"sortOrder"`
}

type moduleRequest struct {
	Title              string            `json:"title" binding:"required"`
	Description        string            `json:"description"`
	SortOrder          int               `json:"sortOrder"`
	Required           bool              `json:"required"`
	Active             *bool             `json:"active"`
	PassingScore       *int              `json:"passingScore" binding:"omitempty,min=0,max=100"`
	ScoreFeed          *string           `json:"scoreFeed" binding:"omitempty,category"`
	Sections           []sectionRequest  `json:"sections" binding:"omitempty,dive"`
	Questions          []questionRequest `json:"questions" binding:"omitempty,dive"`
	VisibleToRoles     []string          `json:"visibleToRoles"`
	VisibleToPositions []string          `json:"visibleToPositions" binding:"omitempty,dive,position"`
}

func (r *moduleRequest) validateQuestions() string {
	for _, q := range r.Questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return "correctIndex out of range for question options"
		}
	}
	return ""
}

// CreateModuleHandler creates a module with its sections and questions in
// one request.
func CreateModuleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if msg := req.validateQuestions(); msg != "" {
			api.Error(c, http.StatusBadRequest, msg)
			return
		}

		module := moduleFromRequest(req)
		if err := db.Create(&module).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create module")
			return
		}
		api.Created(c, module)
	}
}

// UpdateModuleHandler replaces the module, its sections, and its questions.
func UpdateModuleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var module models.TrainingModule
		if err := db.First(&module, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}

		var req moduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if msg := req.validateQuestions(); msg != "" {
			api.Error(c, http.StatusBadRequest, msg)
			return
		}

		replacement := moduleFromRequest(req)
		replacement.ID = module.ID
		replacement.CreatedAt = module.CreatedAt
		if req.Active == nil {
			replacement.Active = module.Active
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("training_module_id = ?", module.ID).Delete(&models.TrainingSection{}).Error; err != nil {
				return err
			}
			if err := tx.Where("training_module_id = ?", module.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&replacement).Error
		})
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to update module")
			return
		}
		api.Success(c, replacement)
	}
}

// DeleteModuleHandler removes a module; sections and questions cascade.
func DeleteModuleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		result := db.Select("Sections", "Questions").
			Delete(&models.TrainingModule{Model: gorm.Model{ID: id}})
		if result.Error != nil {
			api.Error(c, http.StatusInternalServerError, "failed to delete module")
			return
		}
		if result.RowsAffected == 0 {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}
		api.Message(c, "Module deleted")
	}
}

// ListModulesHandler returns visible modules in sort order, annotated with
// the caller's best attempt. Non-managers only see active modules.
func ListModulesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)

		var modules []models.TrainingModule
		q := db.Order("sort_order ASC, title ASC")
		if !identity.Manager {
			q = q.Where("active = ?", true)
		}
		if err := q.Find(&modules).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list modules")
			return
		}

		var attempts []models.QuizAttempt
		if err := db.Where("user_id = ?", identity.UserID).Find(&attempts).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list modules")
			return
		}
		best := map[uint]*models.QuizAttempt{}
		for i := range attempts {
			a := &attempts[i]
			if prev, ok := best[a.TrainingModuleID]; !ok || a.Score > prev.Score {
				best[a.TrainingModuleID] = a
			}
		}

		visible := make([]moduleSummary, 0, len(modules))
		for _, m := range modules {
			if !visibility.Visible(m.Scope(), identity.Viewer()) {
				continue
			}
			summary := moduleSummary{
				ID:           m.ID,
				Title:        m.Title,
				Description:  m.Description,
				SortOrder:    m.SortOrder,
				Required:     m.Required,
				Active:       m.Active,
				PassingScore: m.PassingScore,
			}
			if a, ok := best[m.ID]; ok {
				summary.BestScore = &a.Score
				summary.Passed = a.Passed
			}
			visible = append(visible, summary)
		}
		api.Success(c, visible)
	}
}

// GetModuleHandler returns a module with ordered sections and questions.
// The correct answer index never serializes.
func GetModuleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var module models.TrainingModule
		err := db.Preload("Sections", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC, id ASC")
		}).Preload("Questions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC, id ASC")
		}).First(&module, id).Error
		if err != nil {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}

		if !visibility.Visible(module.Scope(), identity.Viewer()) ||
			(!identity.Manager && !module.Active) {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}
		api.Success(c, module)
	}
}

type quizSubmission struct {
	Answers []int `json:"answers" binding:"required"`
}

// SubmitQuizHandler grades a submission against the module's questions,
// stores the attempt, and feeds the score into matching leaderboards when
// the module is tied to a category.
func SubmitQuizHandler(db *gorm.DB, svc *leaderboard.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var module models.TrainingModule
		if err := db.Preload("Questions").First(&module, id).Error; err != nil {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}
		if !visibility.Visible(module.Scope(), identity.Viewer()) ||
			(!identity.Manager && !module.Active) {
			api.Error(c, http.StatusNotFound, "Module not found")
			return
		}
		if len(module.Questions) == 0 {
			api.Error(c, http.StatusBadRequest, "module has no quiz")
			return
		}

		var req quizSubmission
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		result, err := Grade(&module, req.Answers)
		if err != nil {
			if errors.Is(err, ErrAnswerCount) {
				api.Error(c, http.StatusBadRequest, err.Error())
				return
			}
			api.Error(c, http.StatusInternalServerError, "failed to grade quiz")
			return
		}

		attempt, err := RecordAttempt(c.Request.Context(), db, svc, log, &module, identity.UserID, req.Answers, result)
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to save attempt")
			return
		}

		api.Success(c, gin.H{
			"attemptId":   attempt.ID,
			"score":       result.Score,
			"passed":      result.Passed,
			"correct":     result.Correct,
			"total":       result.Total,
			"completedAt": attempt.CompletedAt,
		})
	}
}

// ListAttemptsHandler returns the caller's attempts for one module, newest
// first.
func ListAttemptsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := auth.CurrentIdentity(c)
		id, ok := api.IDParam(c)
		if !ok {
			return
		}

		var attempts []models.QuizAttempt
		if err := db.Where("training_module_id = ? AND user_id = ?", id, identity.UserID).
			Order("completed_at DESC").
			Find(&attempts).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to list attempts")
			return
		}

		views := make([]attemptView, 0, len(attempts))
		for _, a := range attempts {
			views = append(views, attemptView{
				ID:          a.ID,
				Score:       a.Score,
				Passed:      a.Passed,
				CompletedAt: a.CompletedAt,
			})
		}
		api.Success(c, views)
	}
}

type moduleSummary struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	SortOrder    int      `json:"sortOrder"`
	Required     bool     `json:"required"`
	Active       bool     `json:"active"`
	PassingScore int      `json:"passingScore"`
	BestScore    *float64 `json:"bestScore"`
	Passed       bool     `json:"passed"`
}

type attemptView struct {
	ID          uint      `json:"id"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completedAt"`
}

func moduleFromRequest(req moduleRequest) models.TrainingModule {
	module := models.TrainingModule{
		Title:        req.Title,
		Description:  req.Description,
		SortOrder:    req.SortOrder,
		Required:     req.Required,
		Active:       true,
		PassingScore: 70,
		ScoreFeed:    req.ScoreFeed,
		VisibilityScope: models.VisibilityScope{
			VisibleToRoles:     req.VisibleToRoles,
			VisibleToPositions: req.VisibleToPositions,
		},
	}
	if req.Active != nil {
		module.Active = *req.Active
	}
	if req.PassingScore != nil {
		module.PassingScore = *req.PassingScore
	}

	sections := append([]sectionRequest(nil), req.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].SortOrder < sections[j].SortOrder })
	for _, s := range sections {
		module.Sections = append(module.Sections, models.TrainingSection{
			Title:     s.Title,
			Content:   s.Content,
			SortOrder: s.SortOrder,
		})
	}
	for _, q := range req.Questions {
		module.Questions = append(module.Questions, models.QuizQuestion{
			Prompt:       q.Prompt,
			Options:      datatypes.JSONSlice[string](q.Options),
			CorrectIndex: q.CorrectIndex,
			SortOrder:    q.SortOrder,
		})
	}
	return module
}
