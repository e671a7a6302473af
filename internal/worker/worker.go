package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/config"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/crm"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/visibility"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, db *gorm.DB, crmClient *crm.Client, svc *leaderboard.Service) error {
	srv, mux, err := newServer(cfg, db, crmClient, svc)
	if err != nil {
		return err
	}

	// Note: Scheduler is started separately in main.go worker mode
	// and deferred there for shutdown coordination.
	// Run blocks and handles its own signal interception
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, db *gorm.DB, crmClient *crm.Client, svc *leaderboard.Service) (stop func(), err error) {
	srv, mux, err := newServer(cfg, db, crmClient, svc)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, db *gorm.DB, crmClient *crm.Client, svc *leaderboard.Service) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotificationFanout, handleNotificationFanout(logger, db))
	mux.HandleFunc(TaskLeaderboardSync, handleLeaderboardSync(logger, db, crmClient, svc))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleNotificationFanout materializes one Notification row per user who can
// see the published announcement. DedupID keeps retries from double-notifying
// users that were already written on an earlier attempt.
func handleNotificationFanout(logger *slog.Logger, db *gorm.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			AnnouncementID uint `json:"announcement_id"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		var announcement models.Announcement
		if err := db.WithContext(ctx).First(&announcement, payload.AnnouncementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Announcement not found", "announcement_id", payload.AnnouncementID)
				return fmt.Errorf("announcement not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("failed to fetch announcement: %w", err)
		}

		if !announcement.Published {
			logger.Info("Announcement unpublished before fan-out, skipping",
				"announcement_id", announcement.ID)
			return nil
		}

		var users []models.User
		if err := db.WithContext(ctx).Where("active = ?", true).Find(&users).Error; err != nil {
			return fmt.Errorf("failed to fetch users: %w", err)
		}

		scope := announcement.Scope()
		created := 0
		for _, u := range users {
			viewer := visibility.Viewer{Role: u.Role, Position: u.Position, Manager: u.IsManager()}
			if !visibility.Visible(scope, viewer) {
				continue
			}

			notification := models.Notification{
				UserID:  u.ID,
				Kind:    models.NotificationAnnouncement,
				Title:   announcement.Title,
				Body:    announcement.Content,
				Link:    fmt.Sprintf("/announcements/%d", announcement.ID),
				DedupID: fmt.Sprintf("announcement:%d:user:%d", announcement.ID, u.ID),
			}
			result := db.WithContext(ctx).
				Where("dedup_id = ?", notification.DedupID).
				FirstOrCreate(&notification)
			if result.Error != nil {
				return fmt.Errorf("failed to create notification: %w", result.Error)
			}
			created += int(result.RowsAffected)
		}

		logger.Info(
			"Announcement fan-out completed",
			"announcement_id", announcement.ID,
			"notified", created,
			"audience", len(users),
		)
		return nil
	}
}

// handleLeaderboardSync pulls period scores from the CRM feed and runs them
// through the bulk import pipeline. An empty payload (scheduler cron) syncs
// every active leaderboard; a leaderboard_id syncs just that one.
func handleLeaderboardSync(logger *slog.Logger, db *gorm.DB, crmClient *crm.Client, svc *leaderboard.Service) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			LeaderboardID uint `json:"leaderboard_id"`
		}
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
			}
		}

		query := db.WithContext(ctx).Where("active = ?", true)
		if payload.LeaderboardID != 0 {
			query = query.Where("id = ?", payload.LeaderboardID)
		}
		var boards []models.Leaderboard
		if err := query.Find(&boards).Error; err != nil {
			return fmt.Errorf("failed to fetch leaderboards: %w", err)
		}
		if payload.LeaderboardID != 0 && len(boards) == 0 {
			logger.Error("Leaderboard not found or inactive", "leaderboard_id", payload.LeaderboardID)
			return fmt.Errorf("leaderboard not found: %w", asynq.SkipRetry)
		}

		now := time.Now().UTC()
		var failed []string
		for _, board := range boards {
			if err := syncBoard(ctx, logger, crmClient, svc, board, now); err != nil {
				logger.Error("Leaderboard sync failed",
					"leaderboard_id", board.ID,
					"category", board.Category,
					"error", err.Error(),
				)
				failed = append(failed, board.Name)
			}
		}

		if len(failed) > 0 {
			// Retry the whole task; per-board idempotent upserts make the rerun safe.
			return fmt.Errorf("sync failed for %d of %d leaderboards: %v", len(failed), len(boards), failed)
		}
		return nil
	}
}

func syncBoard(ctx context.Context, logger *slog.Logger, crmClient *crm.Client, svc *leaderboard.Service, board models.Leaderboard, now time.Time) error {
	start, end := leaderboard.CurrentWindow(board.PeriodType, now)

	records, err := crmClient.PeriodScores(ctx, board.Category, start, end)
	if err != nil {
		return fmt.Errorf("crm fetch: %w", err)
	}
	if len(records) == 0 {
		logger.Info("No CRM records for period", "leaderboard_id", board.ID, "category", board.Category)
		return nil
	}

	rows := make([]leaderboard.ImportRow, 0, len(records))
	for _, rec := range records {
		row := leaderboard.ImportRow{Email: rec.Email, Score: rec.Score}
		if len(rec.Metrics) > 0 {
			row.Metrics = make(map[string]interface{}, len(rec.Metrics))
			for k, v := range rec.Metrics {
				row.Metrics[k] = v
			}
		}
		rows = append(rows, row)
	}

	result, err := svc.BulkImport(ctx, board.ID, start, end, rows)
	if err != nil {
		return fmt.Errorf("bulk import: %w", err)
	}

	logger.Info(
		"Leaderboard sync completed",
		"leaderboard_id", board.ID,
		"category", board.Category,
		"success", result.Success,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return nil
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
