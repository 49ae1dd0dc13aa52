package dto

import "github.com/noah-isme/learnlingo-api/internal/models"

// FavoritesState reports the caller's favorite ids.
type FavoritesState struct {
	TeacherIDs []string `json:"teacherIds"`
	Loading    bool     `json:"loading"`
}

// FavoriteTeachers lists the caller's favorite teachers.
type FavoriteTeachers struct {
	Teachers []models.Teacher `json:"teachers"`
	Loading  bool             `json:"loading"`
}
