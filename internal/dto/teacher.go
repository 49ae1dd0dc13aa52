package dto

import "github.com/noah-isme/learnlingo-api/internal/models"

// TeachersResponse is the public catalog listing body.
type TeachersResponse struct {
	Teachers   []models.Teacher `json:"teachers"`
	TotalCount int              `json:"totalCount"`
}

// StatsSummary is the public landing-page counters body.
type StatsSummary struct {
	TutorsCount        int `json:"tutorsCount"`
	ReviewsCount       int `json:"reviewsCount"`
	SubjectsCount      int `json:"subjectsCount"`
	NationalitiesCount int `json:"nationalitiesCount"`
}

// TeacherQuery captures the raw listing query string.
type TeacherQuery struct {
	Limit    string `form:"limit"`
	Offset   string `form:"offset"`
	Language string `form:"language"`
	Level    string `form:"level"`
	Price    string `form:"price"`
	Search   string `form:"search"`
}
