package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/worker"
)

// syncLeaderboardHandler kicks an immediate CRM score sync for one board
// instead of waiting for the scheduler. Lives here rather than in the
// leaderboard package because enqueueing goes through the worker client.
func syncLeaderboardHandler(db *gorm.DB) gin.HandlerFunc {
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
		if !board.Active {
			api.Error(c, http.StatusConflict, "leaderboard is inactive")
			return
		}

		if err := worker.EnqueueLeaderboardSync(board.ID); err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to enqueue sync")
			return
		}
		api.Message(c, "Sync enqueued")
	}
}
