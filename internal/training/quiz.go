package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

var ErrAnswerCount = errors.New("answer count does not match question count")

// GradeResult is the outcome of one quiz submission.
type GradeResult struct {
	Score   float64 `json:"score"`
	Passed  bool    `json:"passed"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
}

// Grade scores answers against the module's questions in display order.
// Answers out of option range count as wrong, not as errors.
func Grade(module *models.TrainingModule, answers []int) (GradeResult, error) {
	questions := append([]models.QuizQuestion(nil), module.Questions...)
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].SortOrder != questions[j].SortOrder {
			return questions[i].SortOrder < questions[j].SortOrder
		}
		return questions[i].ID < questions[j].ID
	})

	if len(answers) != len(questions) {
		return GradeResult{}, ErrAnswerCount
	}

	correct := 0
	for i, q := range questions {
		if answers[i] == q.CorrectIndex {
			correct++
		}
	}

	result := GradeResult{Correct: correct, Total: len(questions)}
	if result.Total > 0 {
		result.Score = math.Round(float64(correct)/float64(result.Total)*10000) / 100
	}
	result.Passed = result.Score >= float64(module.PassingScore)
	return result, nil
}

// RecordAttempt persists the graded attempt and, when the module feeds a
// leaderboard category, upserts the score into the current period of every
// active matching board. Feed failures are logged, not returned: the attempt
// itself already stands.
func RecordAttempt(ctx context.Context, db *gorm.DB, svc *leaderboard.Service, log *slog.Logger, module *models.TrainingModule, userID uint, answers []int, result GradeResult) (*models.QuizAttempt, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	attempt := models.QuizAttempt{
		TrainingModuleID: module.ID,
		UserID:           userID,
		Score:            result.Score,
		Passed:           result.Passed,
		Answers:          answersJSON,
		CompletedAt:      time.Now(),
	}
	if err := db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	if module.ScoreFeed != nil && svc != nil {
		feedScore(ctx, db, svc, log, module, userID, result.Score)
	}

	return &attempt, nil
}

func feedScore(ctx context.Context, db *gorm.DB, svc *leaderboard.Service, log *slog.Logger, module *models.TrainingModule, userID uint, score float64) {
	var boards []models.Leaderboard
	if err := db.WithContext(ctx).
		Where("active = ? AND category = ?", true, *module.ScoreFeed).
		Find(&boards).Error; err != nil {
		log.Error("quiz score feed lookup failed",
			"module_id", module.ID, "category", *module.ScoreFeed, "error", err)
		return
	}

	now := time.Now().UTC()
	for _, board := range boards {
		start, end := leaderboard.CurrentWindow(board.PeriodType, now)
		metrics := map[string]interface{}{"source": "training", "moduleId": module.ID}
		if err := svc.UpsertScore(ctx, board.ID, userID, score, start, end, metrics); err != nil {
			log.Error("quiz score feed upsert failed",
				"module_id", module.ID,
				"leaderboard_id", board.ID,
				"user_id", userID,
				"error", err)
		}
	}
}
