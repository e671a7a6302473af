package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"gorm.io/datatypes"
)

// EventPublisher receives rank movements after a recomputation. Publishing
// is best effort; failures are logged, never propagated to the caller.
type EventPublisher interface {
	PublishRankChanges(ctx context.Context, p Period, changes []RankChange) error
}

// Service wires the identity resolver and rank engine to storage. All
// dependencies are injected; there is no package-level state.
type Service struct {
	store  Store
	users  UserDirectory
	events EventPublisher // optional
	log    *slog.Logger
}

// NewService creates a Service. events may be nil when no stream publisher
// is configured.
func NewService(store Store, users UserDirectory, events EventPublisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, users: users, events: events, log: log}
}

// Leaderboard returns the board itself, for callers that need to apply
// visibility scoping before listing its entries.
func (s *Service) Leaderboard(ctx context.Context, id uint) (*models.Leaderboard, error) {
	return s.store.LeaderboardByID(ctx, id)
}

// ImportResult is the bulk-import summary reported back to the caller.
// Skipped counts rows that failed identity resolution, Failed counts rows
// that resolved but could not be persisted.
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// BulkImport upserts one entry per resolved row for the given period and
// recomputes ranks once at the end. Per-row failures are accumulated into
// the result; only a missing leaderboard or a failed directory lookup
// aborts the whole request.
func (s *Service) BulkImport(ctx context.Context, leaderboardID uint, periodStart, periodEnd time.Time, rows []ImportRow) (*ImportResult, error) {
	if _, err := s.store.LeaderboardByID(ctx, leaderboardID); err != nil {
		return nil, err
	}

	resolutions, err := ResolveRows(ctx, s.users, rows)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	for _, res := range resolutions {
		if !res.Resolved() {
			result.Skipped++
			result.Errors = append(result.Errors, res.SkipReason)
			continue
		}

		entry := models.LeaderboardEntry{
			LeaderboardID: leaderboardID,
			UserID:        res.UserID,
			Score:         res.Row.Score,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
			Metrics:       marshalMetrics(res.Row.Metrics),
		}

		if _, err := s.store.UpsertEntry(ctx, &entry); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("user %d: %v", res.UserID, err))
			continue
		}
		result.Success++
	}

	if result.Success > 0 {
		s.recompute(ctx, Period{LeaderboardID: leaderboardID, Start: periodStart, End: periodEnd})
	}

	return result, nil
}

// CreateEntry inserts strictly: a second entry for an already-covered
// (user, period) tuple is rejected with ErrDuplicateEntry. Ranks for the
// period group are recomputed before returning.
func (s *Service) CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	if _, err := s.store.LeaderboardByID(ctx, entry.LeaderboardID); err != nil {
		return err
	}
	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return err
	}
	s.recompute(ctx, periodOf(entry))
	return nil
}

// UpdateEntry overwrites an entry's score and metrics, then recomputes the
// period group.
func (s *Service) UpdateEntry(ctx context.Context, id uint, score float64, metrics map[string]interface{}) (*models.LeaderboardEntry, error) {
	entry, err := s.store.EntryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Score = score
	if metrics != nil {
		entry.Metrics = marshalMetrics(metrics)
	}
	if err := s.store.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.recompute(ctx, periodOf(entry))
	return entry, nil
}

// DeleteEntry removes an entry and recomputes the remaining group.
func (s *Service) DeleteEntry(ctx context.Context, id uint) error {
	entry, err := s.store.EntryByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.recompute(ctx, periodOf(entry))
	return nil
}

// UpsertScore is the single-entry counterpart of BulkImport's per-row
// semantics, used by the training quiz feed and the CRM sync.
func (s *Service) UpsertScore(ctx context.Context, leaderboardID, userID uint, score float64, periodStart, periodEnd time.Time, metrics map[string]interface{}) error {
	entry := models.LeaderboardEntry{
		LeaderboardID: leaderboardID,
		UserID:        userID,
		Score:         score,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Metrics:       marshalMetrics(metrics),
	}
	if _, err := s.store.UpsertEntry(ctx, &entry); err != nil {
		return err
	}
	s.recompute(ctx, Period{LeaderboardID: leaderboardID, Start: periodStart, End: periodEnd})
	return nil
}

// ListEntries returns filtered entries ordered by rank then score, with
// the lazy display-rank fallback applied when no entry has been ranked.
func (s *Service) ListEntries(ctx context.Context, leaderboardID uint, f ListFilter) ([]models.LeaderboardEntry, error) {
	if _, err := s.store.LeaderboardByID(ctx, leaderboardID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntries(ctx, leaderboardID, f)
	if err != nil {
		return nil, err
	}

	ApplyDisplayRanks(entries)
	return entries, nil
}

// recompute runs the rank engine for a period group and publishes the
// movements. Failures here must not fail the mutation that already
// succeeded, so they are logged and swallowed.
func (s *Service) recompute(ctx context.Context, p Period) {
	changes, err := RecomputeRanks(ctx, s.store, p)
	if err != nil {
		s.log.Error("rank recomputation failed",
			"leaderboard_id", p.LeaderboardID,
			"period_start", p.Start,
			"error", err)
		return
	}

	if s.events == nil || len(changes) == 0 {
		return
	}
	if err := s.events.PublishRankChanges(ctx, p, changes); err != nil {
		s.log.Warn("rank change publish failed",
			"leaderboard_id", p.LeaderboardID,
			"error", err)
	}
}

func periodOf(entry *models.LeaderboardEntry) Period {
	return Period{
		LeaderboardID: entry.LeaderboardID,
		Start:         entry.PeriodStart,
		End:           entry.PeriodEnd,
	}
}

func marshalMetrics(metrics map[string]interface{}) datatypes.JSON {
	if len(metrics) == 0 {
		return nil
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// IsNotFound reports whether err is one of the package's not-found
// sentinels, for handlers mapping errors to status codes.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeaderboardNotFound) || errors.Is(err, ErrEntryNotFound)
}
