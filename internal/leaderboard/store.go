// Package leaderboard implements the ranking core: identity resolution for
// bulk imports, dense rank computation per scoring period, and the entry
// CRUD semantics built on them.
package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

var (
	// ErrLeaderboardNotFound is returned when the referenced leaderboard
	// does not exist.
	ErrLeaderboardNotFound = errors.New("leaderboard not found")

	// ErrEntryNotFound is returned when the referenced entry does not exist.
	ErrEntryNotFound = errors.New("leaderboard entry not found")

	// ErrDuplicateEntry is returned by strict creation when an entry
	// already covers the (leaderboard, user, period) tuple.
	ErrDuplicateEntry = errors.New("entry already exists for this user and period")
)

// Period identifies the scoring window whose entries compete against each
// other for ranking.
type Period struct {
	LeaderboardID uint
	Start         time.Time
	End           time.Time
}

// ListFilter narrows an entry listing. Zero values mean "no restriction";
// the filter is an explicit struct rather than an open key/value bag so the
// boundary can validate it.
type ListFilter struct {
	Search   string // case-insensitive substring of the user's name
	Position string
	From     *time.Time // period start at or after
	To       *time.Time // period end at or before
	Limit    int
}

// Store is the persistence capability the rank engine and import service
// depend on. The gorm implementation lives in gorm_store.go; tests use the
// in-memory fake from memstore_test.go.
type Store interface {
	LeaderboardByID(ctx context.Context, id uint) (*models.Leaderboard, error)

	// EntriesInPeriod returns every entry in the period group with its
	// user preloaded, in insertion order.
	EntriesInPeriod(ctx context.Context, p Period) ([]models.LeaderboardEntry, error)

	// ListEntries returns filtered entries for a leaderboard ordered by
	// rank ascending then score descending, users preloaded.
	ListEntries(ctx context.Context, leaderboardID uint, f ListFilter) ([]models.LeaderboardEntry, error)

	EntryByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error)

	// CreateEntry inserts strictly, returning ErrDuplicateEntry when the
	// (leaderboard, user, period) tuple is already covered.
	CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error

	// UpsertEntry creates the entry or, when the tuple already exists,
	// overwrites score and metrics in place. Reports whether a new row
	// was created.
	UpsertEntry(ctx context.Context, entry *models.LeaderboardEntry) (created bool, err error)

	// UpdateEntry persists a changed score/metrics on an existing entry.
	UpdateEntry(ctx context.Context, entry *models.LeaderboardEntry) error

	DeleteEntry(ctx context.Context, id uint) error

	// SaveRanks writes the computed rank for every entry in the period
	// group as one batched statement, so the whole recomputation lands
	// atomically. Keys are entry IDs.
	SaveRanks(ctx context.Context, p Period, ranks map[uint]int) error
}

// UserDirectory is the user-lookup capability the identity resolver needs.
type UserDirectory interface {
	// UserIDsByEmail resolves the given emails in one batched lookup.
	// Keys of the returned map are lowercased emails; absent keys mean no
	// such user.
	UserIDsByEmail(ctx context.Context, emails []string) (map[string]uint, error)
}
