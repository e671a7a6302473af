package streams

import "time"

// Stream name constants
const (
	StreamLeaderboardEvents = "leaderboard:events"
)

// Consumer group constants
const (
	GroupDashboardWorkers = "dashboard-workers"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// RankChangeEvent is one user's rank movement within a scoring period,
// published after every recomputation.
type RankChangeEvent struct {
	LeaderboardID uint      `json:"leaderboard_id"`
	UserID        uint      `json:"user_id"`
	EntryID       uint      `json:"entry_id"`
	OldRank       int       `json:"old_rank"` // 0 when newly ranked
	NewRank       int       `json:"new_rank"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}
