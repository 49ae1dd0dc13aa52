package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 4.5, AverageRating([]models.Review{{ReviewerRating: 4}, {ReviewerRating: 5}}))
	assert.Equal(t, 4.3, AverageRating([]models.Review{{ReviewerRating: 4}, {ReviewerRating: 4}, {ReviewerRating: 5}}))
	assert.Equal(t, 1.7, AverageRating([]models.Review{{ReviewerRating: 1}, {ReviewerRating: 2}, {ReviewerRating: 2}}))
}

func TestComputeStats(t *testing.T) {
	teachers := []models.Teacher{
		{
			ID: "a", Rating: 4.8, PricePerHour: 30, LessonsDone: 1000,
			Languages: []string{"English", "Spanish"}, Levels: []string{"A1 Beginner"},
			Reviews: []models.Review{{ReviewerRating: 5}, {ReviewerRating: 4}},
		},
		{
			ID: "b", Rating: 4.6, PricePerHour: 25, LessonsDone: 500,
			Languages: []string{"English"}, Levels: []string{"A1 Beginner", "B1 Intermediate"},
			Reviews: []models.Review{{ReviewerRating: 4}},
		},
	}

	want := models.TeacherStats{
		Total:         2,
		AverageRating: 4.7,
		AveragePrice:  28,
		TotalLessons:  1500,
		TotalReviews:  3,
		Languages:     map[string]int{"English": 2, "Spanish": 1},
		Levels:        map[string]int{"A1 Beginner": 2, "B1 Intermediate": 1},
	}

	if diff := cmp.Diff(want, ComputeStats(teachers)); diff != "" {
		t.Fatalf("unexpected stats (-want +got):\n%s", diff)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageRating)
	assert.NotNil(t, stats.Languages)
	assert.NotNil(t, stats.Levels)
}
