package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

// RankChange describes one user's rank movement after a recomputation.
// OldRank is 0 when the entry had no rank yet.
type RankChange struct {
	UserID  uint
	EntryID uint
	OldRank int
	NewRank int
}

// sortForRanking orders entries by score descending. Ties break by earlier
// creation, then by ID, so rank assignment is deterministic rather than
// whatever order storage returned rows.
func sortForRanking(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// RecomputeRanks rewrites the dense 1-based ranks for every entry in the
// period group and reports which users moved. The writes land as a single
// batched statement so a failure leaves the previous ranks intact. Must be
// called after any entry mutation within the group, before the mutating
// request returns.
func RecomputeRanks(ctx context.Context, store Store, p Period) ([]RankChange, error) {
	entries, err := store.EntriesInPeriod(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("fetch period entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	sortForRanking(entries)

	ranks := make(map[uint]int, len(entries))
	var changes []RankChange
	for i, entry := range entries {
		rank := i + 1
		ranks[entry.ID] = rank

		old := 0
		if entry.Rank != nil {
			old = *entry.Rank
		}
		if old != rank {
			changes = append(changes, RankChange{
				UserID:  entry.UserID,
				EntryID: entry.ID,
				OldRank: old,
				NewRank: rank,
			})
		}
	}

	if err := store.SaveRanks(ctx, p, ranks); err != nil {
		return nil, fmt.Errorf("save ranks: %w", err)
	}

	return changes, nil
}

// ApplyDisplayRanks fills in ranks on the fly for a fetched slice in which
// no entry carries a persisted rank (freshly imported, never ranked). The
// computed ranks are for display only and are not written back.
func ApplyDisplayRanks(entries []models.LeaderboardEntry) {
	for _, entry := range entries {
		if entry.Rank != nil {
			return
		}
	}

	sortForRanking(entries)
	for i := range entries {
		rank := i + 1
		entries[i].Rank = &rank
	}
}
