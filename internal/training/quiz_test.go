package training

import (
	"errors"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
)

func quizModule(passing int, correct ...int) *models.TrainingModule {
	m := &models.TrainingModule{PassingScore: passing}
	for i, idx := range correct {
		m.Questions = append(m.Questions, models.QuizQuestion{
			Model:        gorm.Model{ID: uint(i + 1)},
			Prompt:       "q",
			Options:      datatypes.JSONSlice[string]{"a", "b", "c"},
			CorrectIndex: idx,
			SortOrder:    i,
		})
	}
	return m
}

func TestGrade(t *testing.T) {
	t.Run("it scores a perfect submission at 100", func(t *testing.T) {
		result, err := Grade(quizModule(70, 0, 1, 2), []int{0, 1, 2})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if result.Score != 100 || !result.Passed || result.Correct != 3 {
			t.Errorf("got %+v, want score 100 passed", result)
		}
	})

	t.Run("it fails below the passing score", func(t *testing.T) {
		result, err := Grade(quizModule(70, 0, 1, 2), []int{0, 0, 0})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if result.Correct != 1 {
			t.Errorf("correct = %d, want 1", result.Correct)
		}
		if result.Passed {
			t.Error("expected a failing attempt")
		}
	})

	t.Run("it rounds scores to two decimals", func(t *testing.T) {
		result, err := Grade(quizModule(0, 0, 0, 0), []int{0, 1, 1})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if result.Score != 33.33 {
			t.Errorf("score = %v, want 33.33", result.Score)
		}
	})

	t.Run("it passes exactly at the threshold", func(t *testing.T) {
		result, err := Grade(quizModule(50, 0, 0), []int{0, 2})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if !result.Passed {
			t.Errorf("score %v at threshold 50 should pass", result.Score)
		}
	})

	t.Run("it grades answers against display order, not insert order", func(t *testing.T) {
		m := &models.TrainingModule{PassingScore: 100}
		m.Questions = []models.QuizQuestion{
			{Model: gorm.Model{ID: 1}, Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectIndex: 1, SortOrder: 2},
			{Model: gorm.Model{ID: 2}, Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectIndex: 0, SortOrder: 1},
		}
		result, err := Grade(m, []int{0, 1})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if !result.Passed {
			t.Errorf("answers in sort order should both be correct, got %+v", result)
		}
	})

	t.Run("it rejects a mismatched answer count", func(t *testing.T) {
		_, err := Grade(quizModule(70, 0, 1), []int{0})
		if !errors.Is(err, ErrAnswerCount) {
			t.Errorf("err = %v, want ErrAnswerCount", err)
		}
	})

	t.Run("it treats out-of-range answers as wrong", func(t *testing.T) {
		result, err := Grade(quizModule(70, 0), []int{7})
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if result.Correct != 0 {
			t.Errorf("correct = %d, want 0", result.Correct)
		}
	})
}
