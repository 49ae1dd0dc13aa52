package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

const bookingColumns = "id, user_id, teacher_id, teacher_name, student_name, email, phone, kind, reason, lesson_date, lesson_time, status, created_at"

// BookingRepository persists trial-lesson requests.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create stores the booking and bumps the owner's last_login in one transaction.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO bookings (id, user_id, teacher_id, teacher_name, student_name, email, phone, kind, reason, lesson_date, lesson_time, status, created_at) VALUES (:id, :user_id, :teacher_id, :teacher_name, :student_name, :email, :phone, :kind, :reason, :lesson_date, :lesson_time, :status, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, booking.UserID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at DESC", bookingColumns)
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
