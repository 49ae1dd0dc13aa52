// Package gateway is the boundary to the remote data store. Every backend
// returns *Error values so callers can branch on Kind instead of inspecting
// driver-specific shapes.
package gateway

import (
	"context"
	"time"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

// TeacherStore reads the catalog and maintains teacher reviews.
type TeacherStore interface {
	GetTeachers(ctx context.Context) ([]models.Teacher, error)
	GetTeacher(ctx context.Context, id string) (*models.Teacher, error)
	AddReview(ctx context.Context, teacherID string, review models.Review) (*models.Teacher, error)
	DeleteReview(ctx context.Context, teacherID string, index int) (*models.Teacher, error)
}

// FavoriteStore persists the per-user favorite flags. Adding a favorite also
// bumps the user's lastLogin.
type FavoriteStore interface {
	GetUserFavorites(ctx context.Context, userID string) ([]string, error)
	SetFavorite(ctx context.Context, userID, teacherID string, present bool) error
	ClearFavorites(ctx context.Context, userID string) error
}

// BookingStore persists trial-lesson requests.
type BookingStore interface {
	CreateBooking(ctx context.Context, userID string, in models.BookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

// UserStore persists account records.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// SessionStore persists sign-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is a complete backend.
type Store interface {
	TeacherStore
	FavoriteStore
	BookingStore
	UserStore
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}

func newBooking(userID string, id string, in models.BookingInput, now time.Time) *models.Booking {
	booking := &models.Booking{
		ID:          id,
		UserID:      userID,
		TeacherID:   in.TeacherID,
		TeacherName: in.TeacherName,
		StudentName: in.StudentName,
		Email:       in.Email,
		Phone:       in.Phone,
		Kind:        in.Kind(),
		Status:      models.BookingPending,
		CreatedAt:   now,
	}
	if in.Reason != "" {
		reason := in.Reason
		booking.Reason = &reason
	}
	if in.Date != "" {
		date, at := in.Date, in.Time
		booking.Date = &date
		booking.Time = &at
	}
	return booking
}
