package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

// ImportRow is one bulk-import entry. Exactly one of UserID/Email must be
// set; any JSON fields beyond the known ones are carried in Metrics and
// never used for ranking.
type ImportRow struct {
	UserID  *uint
	Email   string
	Score   float64
	Metrics map[string]interface{}
}

// rowKnownFields are consumed by the import itself; everything else in the
// row lands in the metrics bag.
var rowKnownFields = map[string]bool{"userId": true, "email": true, "score": true}

// UnmarshalJSON splits a row into its identity/score fields and the
// open-ended metrics bag.
func (r *ImportRow) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["userId"].(float64); ok {
		id := uint(v)
		r.UserID = &id
	}
	if v, ok := raw["email"].(string); ok {
		r.Email = v
	}
	if v, ok := raw["score"].(float64); ok {
		r.Score = v
	}

	for key, value := range raw {
		if rowKnownFields[key] {
			continue
		}
		if r.Metrics == nil {
			r.Metrics = map[string]interface{}{}
		}
		r.Metrics[key] = value
	}

	return nil
}

// Resolution is the per-row outcome of identity resolution. SkipReason is
// empty for resolved rows.
type Resolution struct {
	Row        ImportRow
	UserID     uint
	SkipReason string
}

// Resolved reports whether the row mapped to a canonical user.
func (r Resolution) Resolved() bool { return r.SkipReason == "" }

// ResolveRows maps each bulk-import row to a canonical user identity.
// Rows carrying a userId are taken at face value; rows carrying only an
// email are matched case-insensitively against one batched directory
// lookup. A row that resolves to nothing is reported, never fatal: the
// returned slice always has one element per input row, in order. The only
// error condition is the directory lookup itself failing.
func ResolveRows(ctx context.Context, dir UserDirectory, rows []ImportRow) ([]Resolution, error) {
	// Collect distinct emails needing lookup so the directory is hit once
	// for the whole batch.
	seen := map[string]bool{}
	var emails []string
	for _, row := range rows {
		if row.UserID != nil || row.Email == "" {
			continue
		}
		normalized := models.NormalizeEmail(row.Email)
		if !seen[normalized] {
			seen[normalized] = true
			emails = append(emails, normalized)
		}
	}

	byEmail := map[string]uint{}
	if len(emails) > 0 {
		var err error
		byEmail, err = dir.UserIDsByEmail(ctx, emails)
		if err != nil {
			return nil, fmt.Errorf("batched user lookup: %w", err)
		}
	}

	results := make([]Resolution, 0, len(rows))
	for _, row := range rows {
		res := Resolution{Row: row}

		switch {
		case math.IsNaN(row.Score) || math.IsInf(row.Score, 0):
			res.SkipReason = "score is not a finite number"
		case row.UserID != nil:
			res.UserID = *row.UserID
		case row.Email != "":
			id, ok := byEmail[models.NormalizeEmail(row.Email)]
			if !ok {
				res.SkipReason = fmt.Sprintf("user with email %s not found", row.Email)
			} else {
				res.UserID = id
			}
		default:
			res.SkipReason = "entry has neither userId nor email"
		}

		results = append(results, res)
	}

	return results, nil
}
