package streams

import (
	"fmt"
	"log/slog"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"gorm.io/gorm"
)

// podiumSize is the rank threshold below which movements are worth a
// notification.
const podiumSize = 3

// NewRankEventHandler turns significant rank movements into per-user
// notifications. The dedup id keeps redelivered messages from creating
// duplicate rows.
func NewRankEventHandler(db *gorm.DB, logger *slog.Logger) func(RankChangeEvent) error {
	return func(event RankChangeEvent) error {
		improved := event.OldRank == 0 || event.NewRank < event.OldRank
		if !improved || event.NewRank > podiumSize {
			return nil
		}

		var board models.Leaderboard
		if err := db.First(&board, event.LeaderboardID).Error; err != nil {
			// Board deleted after the event was published; nothing to do.
			logger.Warn("rank event for missing leaderboard", "leaderboard_id", event.LeaderboardID)
			return nil
		}

		notification := models.Notification{
			UserID: event.UserID,
			Kind:   models.NotificationRankChange,
			Title:  fmt.Sprintf("You are #%d on %s", event.NewRank, board.Name),
			Body:   fmt.Sprintf("Your latest scores put you at rank %d for the current period. Keep it up!", event.NewRank),
			Link:   fmt.Sprintf("/leaderboards/%d", event.LeaderboardID),
			DedupID: fmt.Sprintf("rank:%d:%d:%d:%d",
				event.LeaderboardID, event.UserID, event.NewRank, event.PeriodStart.Unix()),
		}

		err := db.Where("dedup_id = ?", notification.DedupID).FirstOrCreate(&notification).Error
		if err != nil {
			return fmt.Errorf("create rank notification: %w", err)
		}

		logger.Info("rank notification created",
			"user_id", event.UserID,
			"leaderboard_id", event.LeaderboardID,
			"rank", event.NewRank)
		return nil
	}
}
