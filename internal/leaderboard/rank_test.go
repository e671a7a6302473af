package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

func testPeriod(boardID uint) Period {
	return Period{
		LeaderboardID: boardID,
		Start:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC),
	}
}

func seedEntries(store *memStore, p Period, scores ...float64) {
	for _, score := range scores {
		user := store.addUser("Rep", "")
		store.insert(&models.LeaderboardEntry{
			LeaderboardID: p.LeaderboardID,
			UserID:        user,
			Score:         score,
			PeriodStart:   p.Start,
			PeriodEnd:     p.End,
		})
	}
}

func TestRecomputeRanks(t *testing.T) {
	t.Run("ranks form a dense sequence ordered by score", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		p := testPeriod(board)
		seedEntries(store, p, 40, 100, 10, 70, 55)

		if _, err := RecomputeRanks(context.Background(), store, p); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		entries, _ := store.EntriesInPeriod(context.Background(), p)
		seen := map[int]bool{}
		for _, entry := range entries {
			if entry.Rank == nil {
				t.Fatalf("entry %d has no rank", entry.ID)
			}
			if *entry.Rank < 1 || *entry.Rank > len(entries) {
				t.Errorf("rank %d out of range 1..%d", *entry.Rank, len(entries))
			}
			if seen[*entry.Rank] {
				t.Errorf("duplicate rank %d", *entry.Rank)
			}
			seen[*entry.Rank] = true
		}

		for _, a := range entries {
			for _, b := range entries {
				if *a.Rank < *b.Rank && a.Score < b.Score {
					t.Errorf("rank %d (score %v) above rank %d (score %v)",
						*a.Rank, a.Score, *b.Rank, b.Score)
				}
			}
		}
	})

	t.Run("ties rank the earlier-created entry higher", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		p := testPeriod(board)
		seedEntries(store, p, 50, 50)

		if _, err := RecomputeRanks(context.Background(), store, p); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		entries, _ := store.EntriesInPeriod(context.Background(), p)
		if *entries[0].Rank != 1 || *entries[1].Rank != 2 {
			t.Errorf("tie order: got ranks %d, %d; want 1, 2 by creation order",
				*entries[0].Rank, *entries[1].Rank)
		}
	})

	t.Run("it reports rank movements", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		p := testPeriod(board)
		seedEntries(store, p, 100, 50)

		changes, err := RecomputeRanks(context.Background(), store, p)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("got %d changes, want 2 (both entries newly ranked)", len(changes))
		}

		// Leader's score drops below the runner-up.
		entries, _ := store.EntriesInPeriod(context.Background(), p)
		entries[0].Score = 10
		_ = store.UpdateEntry(context.Background(), &entries[0])

		changes, err = RecomputeRanks(context.Background(), store, p)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(changes) != 2 {
			t.Fatalf("got %d changes after swap, want 2", len(changes))
		}
		for _, change := range changes {
			if change.OldRank == change.NewRank {
				t.Errorf("unchanged rank reported as a movement: %+v", change)
			}
		}
	})

	t.Run("an empty group is a no-op", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("Empty")

		changes, err := RecomputeRanks(context.Background(), store, testPeriod(board))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if changes != nil {
			t.Errorf("got changes %v for empty group", changes)
		}
	})

	t.Run("a failed batch write propagates and leaves no partial ranks", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		p := testPeriod(board)
		seedEntries(store, p, 30, 20)
		store.failRankSave = errors.New("connection reset")

		if _, err := RecomputeRanks(context.Background(), store, p); err == nil {
			t.Fatalf("expected error")
		}

		entries, _ := store.EntriesInPeriod(context.Background(), p)
		for _, entry := range entries {
			if entry.Rank != nil {
				t.Errorf("entry %d ranked despite failed save", entry.ID)
			}
		}
	})
}

func TestApplyDisplayRanks(t *testing.T) {
	t.Run("it fills ranks when none are persisted", func(t *testing.T) {
		entries := []models.LeaderboardEntry{
			{Score: 10}, {Score: 30}, {Score: 20},
		}
		ApplyDisplayRanks(entries)

		if *entries[0].Rank != 1 || entries[0].Score != 30 {
			t.Errorf("top display entry = rank %v score %v", entries[0].Rank, entries[0].Score)
		}
		if *entries[2].Rank != 3 || entries[2].Score != 10 {
			t.Errorf("bottom display entry = rank %v score %v", entries[2].Rank, entries[2].Score)
		}
	})

	t.Run("it leaves persisted ranks untouched", func(t *testing.T) {
		one := 1
		entries := []models.LeaderboardEntry{
			{Score: 10, Rank: &one}, {Score: 30},
		}
		ApplyDisplayRanks(entries)

		if entries[0].Score != 10 || entries[1].Rank != nil {
			t.Errorf("slice with a persisted rank was reordered or refilled: %+v", entries)
		}
	})
}
