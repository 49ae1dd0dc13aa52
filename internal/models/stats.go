package models

// TeacherStats aggregates the catalog.
type TeacherStats struct {
	Total         int            `json:"total"`
	AverageRating float64        `json:"averageRating"`
	AveragePrice  float64        `json:"averagePrice"`
	TotalLessons  int            `json:"totalLessons"`
	TotalReviews  int            `json:"totalReviews"`
	Languages     map[string]int `json:"languages"`
	Levels        map[string]int `json:"levels"`
}
