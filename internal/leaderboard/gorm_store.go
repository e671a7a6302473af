package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"gorm.io/gorm"
)

// GormStore is the Postgres-backed Store and UserDirectory.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an injected gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LeaderboardByID(ctx context.Context, id uint) (*models.Leaderboard, error) {
	var board models.Leaderboard
	if err := s.db.WithContext(ctx).First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaderboardNotFound
		}
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	return &board, nil
}

func (s *GormStore) EntriesInPeriod(ctx context.Context, p Period) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Where("leaderboard_id = ? AND period_start = ? AND period_end = ?", p.LeaderboardID, p.Start, p.End).
		Preload("User").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("fetch period entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) ListEntries(ctx context.Context, leaderboardID uint, f ListFilter) ([]models.LeaderboardEntry, error) {
	q := s.db.WithContext(ctx).
		Model(&models.LeaderboardEntry{}).
		Joins("JOIN users ON users.id = leaderboard_entries.user_id AND users.deleted_at IS NULL").
		Where("leaderboard_entries.leaderboard_id = ?", leaderboardID).
		Preload("User")

	if f.Search != "" {
		q = q.Where("users.name ILIKE ?", "%"+f.Search+"%")
	}
	if f.Position != "" {
		q = q.Where("users.position = ?", f.Position)
	}
	if f.From != nil {
		q = q.Where("leaderboard_entries.period_start >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("leaderboard_entries.period_end <= ?", *f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entries []models.LeaderboardEntry
	if err := q.Order("leaderboard_entries.rank ASC NULLS LAST, leaderboard_entries.score DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) EntryByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	if err := s.db.WithContext(ctx).Preload("User").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("fetch entry: %w", err)
	}
	return &entry, nil
}

func (s *GormStore) CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	var existing models.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Where("leaderboard_id = ? AND user_id = ? AND period_start = ? AND period_end = ?",
			entry.LeaderboardID, entry.UserID, entry.PeriodStart, entry.PeriodEnd).
		First(&existing).Error
	if err == nil {
		return ErrDuplicateEntry
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check existing entry: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

func (s *GormStore) UpsertEntry(ctx context.Context, entry *models.LeaderboardEntry) (bool, error) {
	var existing models.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Where("leaderboard_id = ? AND user_id = ? AND period_start = ? AND period_end = ?",
			entry.LeaderboardID, entry.UserID, entry.PeriodStart, entry.PeriodEnd).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
			return false, fmt.Errorf("create entry: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existing entry: %w", err)
	}

	existing.Score = entry.Score
	if entry.Metrics != nil {
		existing.Metrics = entry.Metrics
	}
	err = s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"score":   existing.Score,
		"metrics": existing.Metrics,
	}).Error
	if err != nil {
		return false, fmt.Errorf("update entry: %w", err)
	}

	*entry = existing
	return false, nil
}

func (s *GormStore) UpdateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	err := s.db.WithContext(ctx).Model(entry).Updates(map[string]interface{}{
		"score":   entry.Score,
		"metrics": entry.Metrics,
	}).Error
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteEntry(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.LeaderboardEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SaveRanks writes every rank in one UPDATE ... CASE statement so the
// whole recomputation lands atomically; a mid-flight abort cannot leave
// the group half-ranked.
func (s *GormStore) SaveRanks(ctx context.Context, p Period, ranks map[uint]int) error {
	if len(ranks) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(ranks)*2+1)
	ids := make([]uint, 0, len(ranks))

	sb.WriteString("UPDATE leaderboard_entries SET rank = CASE id ")
	for id, rank := range ranks {
		sb.WriteString("WHEN ? THEN ? ")
		args = append(args, id, rank)
		ids = append(ids, id)
	}
	sb.WriteString("END, updated_at = NOW() WHERE id IN ?")
	args = append(args, ids)

	if err := s.db.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
		return fmt.Errorf("save ranks: %w", err)
	}
	return nil
}

// UserIDsByEmail implements UserDirectory. Emails are stored lowercased,
// so exact matching against the normalized input is case-insensitive.
func (s *GormStore) UserIDsByEmail(ctx context.Context, emails []string) (map[string]uint, error) {
	if len(emails) == 0 {
		return map[string]uint{}, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("lookup users by email: %w", err)
	}

	byEmail := make(map[string]uint, len(users))
	for _, user := range users {
		byEmail[models.NormalizeEmail(user.Email)] = user.ID
	}
	return byEmail, nil
}
