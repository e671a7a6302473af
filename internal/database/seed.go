package database

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("email = ?", "admin@repdash.local").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("devpassword"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	position := func(p string) *string { return &p }

	admin := models.User{
		Email:        "admin@repdash.local",
		Name:         "Dev Admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Position:     position(models.PositionExecutive),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	reps := []models.User{
		{Email: "alex.rivera@example.com", Name: "Alex Rivera", PasswordHash: string(hash), Role: models.RoleUser, Position: position(models.PositionSalesRep)},
		{Email: "jordan.lee@example.com", Name: "Jordan Lee", PasswordHash: string(hash), Role: models.RoleUser, Position: position(models.PositionSeniorRep)},
		{Email: "sam.okafor@example.com", Name: "Sam Okafor", PasswordHash: string(hash), Role: models.RoleUser, Position: position(models.PositionTrainee)},
	}
	if err := db.Create(&reps).Error; err != nil {
		return err
	}

	board := models.Leaderboard{
		Name:       "Monthly Sales",
		Category:   models.CategorySales,
		PeriodType: models.PeriodMonthly,
		Active:     true,
	}
	if err := db.Create(&board).Error; err != nil {
		return err
	}

	announcement := models.Announcement{
		Title:       "Welcome to the dashboard",
		Content:     "Scores sync from the CRM every morning. Check the leaderboard tab for standings.",
		Priority:    models.PriorityNormal,
		Published:   true,
		PublishedAt: timePtr(time.Now()),
		CreatedByID: admin.ID,
	}
	if err := db.Create(&announcement).Error; err != nil {
		return err
	}

	link := models.ImportantLink{
		Title:    "CRM Portal",
		URL:      "https://crm.example.com",
		Category: "TOOLS",
		Active:   true,
	}
	if err := db.Create(&link).Error; err != nil {
		return err
	}

	track := models.OnboardingTrack{
		Name:         "New Rep Ramp-up",
		Description:  "First two weeks on the floor.",
		ForPositions: datatypes.JSONSlice[string]{models.PositionTrainee, models.PositionSalesRep},
		Active:       true,
		Steps: []models.OnboardingStep{
			{Title: "Shadow a senior rep call", SortOrder: 0, Required: true},
			{Title: "Complete CRM setup", SortOrder: 1, Required: true},
			{Title: "First solo pitch", SortOrder: 2, Required: true},
		},
	}
	if err := db.Create(&track).Error; err != nil {
		return err
	}

	feed := models.CategoryTraining
	module := models.TrainingModule{
		Title:        "Objection Handling Basics",
		Description:  "Core rebuttals for the five most common objections.",
		Required:     true,
		Active:       true,
		PassingScore: 70,
		ScoreFeed:    &feed,
		Sections: []models.TrainingSection{
			{Title: "Price objections", Content: "Lead with value, not discounts.", SortOrder: 0},
			{Title: "Timing objections", Content: "Anchor on the cost of waiting.", SortOrder: 1},
		},
		Questions: []models.QuizQuestion{
			{Prompt: "A prospect says the price is too high. What do you lead with?", Options: datatypes.JSONSlice[string]{"A discount", "The value delivered", "A competitor comparison"}, CorrectIndex: 1, SortOrder: 0},
			{Prompt: "What does a timing objection usually mean?", Options: datatypes.JSONSlice[string]{"They will never buy", "The value case is not urgent yet", "They want a discount"}, CorrectIndex: 1, SortOrder: 1},
		},
	}
	if err := db.Create(&module).Error; err != nil {
		return err
	}

	log.Println("Seeded dev data: 4 users, 1 leaderboard, 1 announcement, 1 link, 1 onboarding track, 1 training module")
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }
