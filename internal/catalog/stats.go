package catalog

import (
	"math"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

// AverageRating is the arithmetic mean of the reviewer ratings rounded to one
// decimal place, or 0 when there are no reviews.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.ReviewerRating
	}
	return roundTo(float64(sum)/float64(len(reviews)), 1)
}

// ComputeStats aggregates the catalog for the landing page.
func ComputeStats(teachers []models.Teacher) models.TeacherStats {
	stats := models.TeacherStats{
		Languages: map[string]int{},
		Levels:    map[string]int{},
	}
	if len(teachers) == 0 {
		return stats
	}

	var ratingSum, priceSum float64
	for _, t := range teachers {
		ratingSum += t.Rating
		priceSum += t.PricePerHour
		stats.TotalLessons += t.LessonsDone
		stats.TotalReviews += len(t.Reviews)
		for _, lang := range t.Languages {
			stats.Languages[lang]++
		}
		for _, level := range t.Levels {
			stats.Levels[level]++
		}
	}

	stats.Total = len(teachers)
	stats.AverageRating = roundTo(ratingSum/float64(stats.Total), 1)
	stats.AveragePrice = math.Round(priceSum / float64(stats.Total))
	return stats
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
