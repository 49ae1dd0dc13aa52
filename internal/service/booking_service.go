package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/validation"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
	"github.com/noah-isme/learnlingo-api/pkg/export"
)

// Booking result messages.
const (
	MsgLessonBooked  = "Lesson successfully booked!"
	MsgNotAuthorized = "User is not authorized"
)

type bookingStore interface {
	CreateBooking(ctx context.Context, userID string, in models.BookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

type bookingNotifier interface {
	BookingCreated(booking models.Booking)
}

// BookingService validates and submits trial-lesson requests. Submissions
// are never retried; a failed booking needs a new submission.
type BookingService struct {
	store     bookingStore
	notifier  bookingNotifier
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService. notifier may be nil.
func NewBookingService(store bookingStore, notifier bookingNotifier, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{store: store, notifier: notifier, validator: validate, metrics: metrics, logger: logger}
}

// Submit books a lesson for user. Validation and authorization failures
// never reach the store.
func (s *BookingService) Submit(ctx context.Context, user *models.AuthUser, in models.BookingInput) models.ActionResult {
	result := s.submit(ctx, user, in)
	s.metrics.RecordBooking(result.Success)
	return result
}

func (s *BookingService) submit(ctx context.Context, user *models.AuthUser, in models.BookingInput) models.ActionResult {
	if user == nil || user.ID == "" {
		return models.Failed(MsgNotAuthorized)
	}

	in = normalizeBooking(in)
	if err := s.validator.Struct(in); err != nil {
		return models.Failed(validation.Message(err))
	}

	start := time.Now()
	booking, err := s.store.CreateBooking(ctx, user.ID, in)
	s.metrics.ObserveGatewayCall("create_booking", time.Since(start))
	if err != nil {
		s.logger.Warn("booking failed", zap.String("user_id", user.ID), zap.String("teacher_id", in.TeacherID), zap.Error(err))
		return models.Failed(gateway.Message(err))
	}

	s.logger.Info("lesson booked", zap.String("booking_id", booking.ID), zap.String("user_id", user.ID), zap.String("kind", booking.Kind))
	if s.notifier != nil {
		s.notifier.BookingCreated(*booking)
	}
	return models.Succeeded(MsgLessonBooked)
}

// List returns the user's bookings, newest first.
func (s *BookingService) List(ctx context.Context, user *models.AuthUser) ([]models.Booking, error) {
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, MsgNotAuthorized)
	}
	start := time.Now()
	bookings, err := s.store.ListBookings(ctx, user.ID)
	s.metrics.ObserveGatewayCall("list_bookings", time.Since(start))
	if err != nil {
		return nil, gateway.AppError(err, "bookings not found")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// Export renders the user's bookings as a csv or pdf download.
func (s *BookingService) Export(ctx context.Context, user *models.AuthUser, format string) (*export.Document, error) {
	bookings, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	doc, err := export.Render(bookingTable(bookings), format, "learnlingo-bookings")
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export bookings")
	}
	return doc, nil
}

func bookingTable(bookings []models.Booking) export.Table {
	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		when := ""
		if b.Date != nil && b.Time != nil {
			when = *b.Date + " " + *b.Time
		}
		reason := ""
		if b.Reason != nil {
			reason = *b.Reason
		}
		rows = append(rows, []string{
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
			b.TeacherName,
			b.Kind,
			reason,
			when,
			b.StudentName,
			b.Email,
			b.Phone,
			string(b.Status),
		})
	}
	return export.Table{
		Title:   "LearnLingo lesson requests",
		Headers: []string{"Requested", "Teacher", "Kind", "Reason", "Lesson", "Name", "Email", "Phone", "Status"},
		Rows:    rows,
	}
}

func normalizeBooking(in models.BookingInput) models.BookingInput {
	in.TeacherID = strings.TrimSpace(in.TeacherID)
	in.TeacherName = strings.TrimSpace(in.TeacherName)
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	return in
}
