// Package crm provides the CRM score-feed integration for leaderboard syncs
package crm

// ScoreFeed represents the scored results returned by the CRM for one
// category and period window.
type ScoreFeed struct {
	Category string        `json:"category"`
	Records  []ScoreRecord `json:"records"`
}

// ScoreRecord represents a single rep's production pulled from the CRM
type ScoreRecord struct {
	Email   string             `json:"email"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}
