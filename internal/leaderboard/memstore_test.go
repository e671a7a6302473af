package leaderboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"gorm.io/gorm"
)

// memStore is the in-memory Store and UserDirectory the core tests run
// against.
type memStore struct {
	boards  map[uint]models.Leaderboard
	entries map[uint]*models.LeaderboardEntry
	users   map[uint]models.User

	nextID       uint
	clock        time.Time
	lookupCalls  int
	failRankSave error
}

func newMemStore() *memStore {
	return &memStore{
		boards:  map[uint]models.Leaderboard{},
		entries: map[uint]*models.LeaderboardEntry{},
		users:   map[uint]models.User{},
		clock:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addBoard(name string) uint {
	m.nextID++
	m.boards[m.nextID] = models.Leaderboard{
		Model:      gorm.Model{ID: m.nextID},
		Name:       name,
		Category:   models.CategorySales,
		PeriodType: models.PeriodMonthly,
		Active:     true,
	}
	return m.nextID
}

func (m *memStore) addUser(name, email string) uint {
	m.nextID++
	m.users[m.nextID] = models.User{
		Model:  gorm.Model{ID: m.nextID},
		Name:   name,
		Email:  models.NormalizeEmail(email),
		Role:   models.RoleUser,
		Active: true,
	}
	return m.nextID
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) LeaderboardByID(ctx context.Context, id uint) (*models.Leaderboard, error) {
	board, ok := m.boards[id]
	if !ok {
		return nil, ErrLeaderboardNotFound
	}
	return &board, nil
}

func (m *memStore) EntriesInPeriod(ctx context.Context, p Period) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	for _, entry := range m.entries {
		if entry.LeaderboardID == p.LeaderboardID &&
			entry.PeriodStart.Equal(p.Start) && entry.PeriodEnd.Equal(p.End) {
			copied := *entry
			copied.User = m.users[entry.UserID]
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListEntries(ctx context.Context, leaderboardID uint, f ListFilter) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	for _, entry := range m.entries {
		if entry.LeaderboardID != leaderboardID {
			continue
		}
		user := m.users[entry.UserID]
		if f.Search != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.Position != "" && (user.Position == nil || *user.Position != f.Position) {
			continue
		}
		if f.From != nil && entry.PeriodStart.Before(*f.From) {
			continue
		}
		if f.To != nil && entry.PeriodEnd.After(*f.To) {
			continue
		}
		copied := *entry
		copied.User = user
		out = append(out, copied)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		switch {
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		case ri == nil && rj != nil:
			return false
		case ri != nil && rj == nil:
			return true
		}
		return out[i].Score > out[j].Score
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) EntryByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	copied := *entry
	copied.User = m.users[entry.UserID]
	return &copied, nil
}

func (m *memStore) findTuple(entry *models.LeaderboardEntry) *models.LeaderboardEntry {
	for _, existing := range m.entries {
		if existing.LeaderboardID == entry.LeaderboardID &&
			existing.UserID == entry.UserID &&
			existing.PeriodStart.Equal(entry.PeriodStart) &&
			existing.PeriodEnd.Equal(entry.PeriodEnd) {
			return existing
		}
	}
	return nil
}

func (m *memStore) CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	if m.findTuple(entry) != nil {
		return ErrDuplicateEntry
	}
	m.insert(entry)
	return nil
}

func (m *memStore) UpsertEntry(ctx context.Context, entry *models.LeaderboardEntry) (bool, error) {
	if existing := m.findTuple(entry); existing != nil {
		existing.Score = entry.Score
		if entry.Metrics != nil {
			existing.Metrics = entry.Metrics
		}
		*entry = *existing
		return false, nil
	}
	m.insert(entry)
	return true, nil
}

func (m *memStore) insert(entry *models.LeaderboardEntry) {
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = m.tick()
	copied := *entry
	m.entries[entry.ID] = &copied
}

func (m *memStore) UpdateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	existing, ok := m.entries[entry.ID]
	if !ok {
		return ErrEntryNotFound
	}
	existing.Score = entry.Score
	existing.Metrics = entry.Metrics
	return nil
}

func (m *memStore) DeleteEntry(ctx context.Context, id uint) error {
	if _, ok := m.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memStore) SaveRanks(ctx context.Context, p Period, ranks map[uint]int) error {
	if m.failRankSave != nil {
		return m.failRankSave
	}
	for id, rank := range ranks {
		entry, ok := m.entries[id]
		if !ok {
			return errors.New("rank for unknown entry")
		}
		r := rank
		entry.Rank = &r
	}
	return nil
}

func (m *memStore) UserIDsByEmail(ctx context.Context, emails []string) (map[string]uint, error) {
	m.lookupCalls++
	byEmail := map[string]uint{}
	for _, email := range emails {
		for id, user := range m.users {
			if user.Email == models.NormalizeEmail(email) {
				byEmail[user.Email] = id
			}
		}
	}
	return byEmail, nil
}
