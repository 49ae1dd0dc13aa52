package models

import "time"

// Teacher is a tutor listed in the marketplace catalog.
type Teacher struct {
	ID           string   `json:"id" db:"id" firestore:"-"`
	Name         string   `json:"name" db:"name" firestore:"name"`
	Surname      string   `json:"surname" db:"surname" firestore:"surname"`
	Languages    []string `json:"languages" db:"-" firestore:"languages"`
	Levels       []string `json:"levels" db:"-" firestore:"levels"`
	PricePerHour float64  `json:"price_per_hour" db:"price_per_hour" firestore:"price_per_hour"`
	Rating       float64  `json:"rating" db:"rating" firestore:"rating"`
	LessonsDone  int      `json:"lessons_done" db:"lessons_done" firestore:"lessons_done"`
	Reviews      []Review `json:"reviews" db:"-" firestore:"reviews"`
	Conditions   []string `json:"conditions" db:"-" firestore:"conditions"`
	Experience   string   `json:"experience" db:"experience" firestore:"experience"`
	LessonInfo   string   `json:"lesson_info" db:"lesson_info" firestore:"lesson_info"`
	AvatarURL    *string  `json:"avatar_url,omitempty" db:"avatar_url" firestore:"avatar_url,omitempty"`
}

// FullName joins name and surname the way the booking form displays it.
func (t Teacher) FullName() string {
	switch {
	case t.Surname == "":
		return t.Name
	case t.Name == "":
		return t.Surname
	default:
		return t.Name + " " + t.Surname
	}
}

// Review is an immutable student review of a teacher.
type Review struct {
	ReviewerName   string    `json:"reviewer_name" db:"reviewer_name" firestore:"reviewer_name"`
	ReviewerRating int       `json:"reviewer_rating" db:"reviewer_rating" firestore:"reviewer_rating"`
	Comment        string    `json:"comment" db:"comment" firestore:"comment"`
	Date           time.Time `json:"date" db:"reviewed_at" firestore:"date"`
}

// CreateReviewRequest is the payload for adding a review.
type CreateReviewRequest struct {
	ReviewerName   string `json:"reviewer_name" validate:"omitempty,max=120"`
	ReviewerRating int    `json:"reviewer_rating" validate:"required,min=1,max=5"`
	Comment        string `json:"comment" validate:"required,max=2000"`
}
