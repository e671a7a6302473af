package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	aprilStart = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	aprilEnd   = time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC)
)

func newTestService(store *memStore) *Service {
	return NewService(store, store, nil, nil)
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()

	t.Run("imports rank a fresh period", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		svc := newTestService(store)

		result, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{UserID: &u1, Score: 100},
			{UserID: &u2, Score: 50},
		})
		require.NoError(t, err)
		assert.Equal(t, &ImportResult{Success: 2, Errors: []string{}}, result)

		entries, err := svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, u1, entries[0].UserID)
		assert.Equal(t, 1, *entries[0].Rank)
		assert.Equal(t, u2, entries[1].UserID)
		assert.Equal(t, 2, *entries[1].Rank)
	})

	t.Run("re-import updates in place and reranks", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		svc := newTestService(store)

		_, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{UserID: &u1, Score: 100},
			{UserID: &u2, Score: 50},
		})
		require.NoError(t, err)

		// Ana's score collapses; the row must be overwritten, not duplicated.
		result, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{UserID: &u1, Score: 10},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Success)

		entries, err := svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 2, "re-import must not add rows")
		assert.Equal(t, u2, entries[0].UserID)
		assert.Equal(t, 1, *entries[0].Rank)
		assert.Equal(t, u1, entries[1].UserID)
		assert.Equal(t, 2, *entries[1].Rank)
		assert.Equal(t, 10.0, entries[1].Score)
	})

	t.Run("unknown emails are skipped with a named reason", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		svc := newTestService(store)

		result, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{Email: "nobody@x.com", Score: 5},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "nobody@x.com")
	})

	t.Run("mixed batches complete with per-row outcomes", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		svc := newTestService(store)

		result, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{Email: "ana@example.com", Score: 80},
			{Email: "ghost@x.com", Score: 20},
			{Score: 30},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 2, result.Skipped)
		assert.Len(t, result.Errors, 2)

		entries, err := svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, u1, entries[0].UserID)
	})

	t.Run("a missing leaderboard aborts the request", func(t *testing.T) {
		store := newMemStore()
		svc := newTestService(store)

		_, err := svc.BulkImport(ctx, 404, aprilStart, aprilEnd, []ImportRow{{Score: 1}})
		assert.ErrorIs(t, err, ErrLeaderboardNotFound)
	})

	t.Run("a failed recomputation is swallowed after a successful write", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		store.failRankSave = errors.New("connection reset")
		svc := newTestService(store)

		result, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{UserID: &u1, Score: 100},
		})
		require.NoError(t, err, "entry write succeeded; rank failure must not fail the request")
		assert.Equal(t, 1, result.Success)
	})
}

func TestEntryLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("strict create rejects a covered period", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		svc := newTestService(store)

		entry := models.LeaderboardEntry{
			LeaderboardID: board, UserID: u1, Score: 10,
			PeriodStart: aprilStart, PeriodEnd: aprilEnd,
		}
		require.NoError(t, svc.CreateEntry(ctx, &entry))

		dup := models.LeaderboardEntry{
			LeaderboardID: board, UserID: u1, Score: 99,
			PeriodStart: aprilStart, PeriodEnd: aprilEnd,
		}
		assert.ErrorIs(t, svc.CreateEntry(ctx, &dup), ErrDuplicateEntry)
	})

	t.Run("update reranks the period group", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		svc := newTestService(store)

		first := models.LeaderboardEntry{
			LeaderboardID: board, UserID: u1, Score: 100,
			PeriodStart: aprilStart, PeriodEnd: aprilEnd,
		}
		require.NoError(t, svc.CreateEntry(ctx, &first))
		second := models.LeaderboardEntry{
			LeaderboardID: board, UserID: u2, Score: 50,
			PeriodStart: aprilStart, PeriodEnd: aprilEnd,
		}
		require.NoError(t, svc.CreateEntry(ctx, &second))

		_, err := svc.UpdateEntry(ctx, first.ID, 5, nil)
		require.NoError(t, err)

		entries, err := svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, u2, entries[0].UserID)
		assert.Equal(t, 1, *entries[0].Rank)
	})

	t.Run("delete closes the gap in ranks", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		u3 := store.addUser("Cam", "cam@example.com")
		svc := newTestService(store)

		_, err := svc.BulkImport(ctx, board, aprilStart, aprilEnd, []ImportRow{
			{UserID: &u1, Score: 100},
			{UserID: &u2, Score: 50},
			{UserID: &u3, Score: 25},
		})
		require.NoError(t, err)

		entries, err := svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		require.NoError(t, svc.DeleteEntry(ctx, entries[0].ID))

		entries, err = svc.ListEntries(ctx, board, ListFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, *entries[0].Rank)
		assert.Equal(t, 2, *entries[1].Rank)
	})
}

type recordingPublisher struct {
	periods []Period
	changes [][]RankChange
}

func (r *recordingPublisher) PublishRankChanges(ctx context.Context, p Period, changes []RankChange) error {
	r.periods = append(r.periods, p)
	r.changes = append(r.changes, changes)
	return nil
}

func TestRankChangeEvents(t *testing.T) {
	store := newMemStore()
	board := store.addBoard("April Sales")
	u1 := store.addUser("Ana", "ana@example.com")
	publisher := &recordingPublisher{}
	svc := NewService(store, store, publisher, nil)

	_, err := svc.BulkImport(context.Background(), board, aprilStart, aprilEnd, []ImportRow{
		{UserID: &u1, Score: 100},
	})
	require.NoError(t, err)

	require.Len(t, publisher.changes, 1)
	assert.Equal(t, board, publisher.periods[0].LeaderboardID)
	assert.Equal(t, u1, publisher.changes[0][0].UserID)
	assert.Equal(t, 1, publisher.changes[0][0].NewRank)
}
