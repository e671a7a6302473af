package onboarding

import (
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

func strPtr(s string) *string { return &s }

func TestAppliesTo(t *testing.T) {
	targeted := models.OnboardingTrack{
		ForPositions: datatypes.JSONSlice[string]{models.PositionTrainee, models.PositionSalesRep},
	}
	untargeted := models.OnboardingTrack{}

	t.Run("it applies untargeted tracks to everyone", func(t *testing.T) {
		if !appliesTo(untargeted, nil) {
			t.Error("untargeted track should apply to a positionless user")
		}
		if !appliesTo(untargeted, strPtr(models.PositionExecutive)) {
			t.Error("untargeted track should apply to any position")
		}
	})

	t.Run("it matches the viewer position against the target list", func(t *testing.T) {
		if !appliesTo(targeted, strPtr(models.PositionTrainee)) {
			t.Error("TRAINEE should match a track targeting TRAINEE")
		}
		if appliesTo(targeted, strPtr(models.PositionExecutive)) {
			t.Error("EXECUTIVE should not match a trainee track")
		}
	})

	t.Run("it denies targeted tracks to users without a position", func(t *testing.T) {
		if appliesTo(targeted, nil) {
			t.Error("positionless user should not match a targeted track")
		}
	})
}

func TestBuildTrackView(t *testing.T) {
	now := time.Now()
	track := models.OnboardingTrack{
		Model: gorm.Model{ID: 1},
		Name:  "Ramp-up",
		Steps: []models.OnboardingStep{
			{Model: gorm.Model{ID: 10}, Title: "Shadow a call", SortOrder: 0},
			{Model: gorm.Model{ID: 11}, Title: "First solo pitch", SortOrder: 1},
			{Model: gorm.Model{ID: 12}, Title: "CRM setup", SortOrder: 2},
		},
	}
	completed := map[uint]time.Time{10: now, 12: now}

	view := buildTrackView(track, completed)
	if view.Total != 3 || view.Completed != 2 {
		t.Errorf("progress = %d/%d, want 2/3", view.Completed, view.Total)
	}
	if view.Steps[0].CompletedAt == nil || view.Steps[1].CompletedAt != nil {
		t.Error("completion flags attached to the wrong steps")
	}
}
