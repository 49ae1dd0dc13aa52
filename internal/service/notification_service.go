package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/pkg/jobs"
	"github.com/noah-isme/learnlingo-api/pkg/mailer"
)

const jobBookingConfirmation = "booking_confirmation"

// NotificationConfig sizes the mail worker pool.
type NotificationConfig struct {
	Workers int
	Retries int
}

// NotificationService mails booking confirmations in the background.
// Delivery is best effort and never affects the booking result.
type NotificationService struct {
	queue   *jobs.Queue
	sender  mailer.Sender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service and its queue.
func NewNotificationService(sender mailer.Sender, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
		OnDone: func(o jobs.Outcome) {
			metrics.RecordNotification(o.Err == nil)
		},
	})
	return s
}

// Start launches the mail workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// BookingCreated queues a confirmation for booking.
func (s *NotificationService) BookingCreated(booking models.Booking) {
	err := s.queue.Enqueue(jobs.Job{ID: booking.ID, Kind: jobBookingConfirmation, Payload: booking})
	if err != nil {
		s.logger.Warn("booking confirmation not queued", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Kind {
	case jobBookingConfirmation:
		booking, ok := job.Payload.(models.Booking)
		if !ok {
			return fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return s.sender.Send(ctx, bookingConfirmation(booking))
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func bookingConfirmation(b models.Booking) mailer.Message {
	when := "a trial lesson"
	if b.Kind == models.BookingKindScheduled && b.Date != nil && b.Time != nil {
		when = fmt.Sprintf("a lesson on %s at %s", *b.Date, *b.Time)
	}
	body := fmt.Sprintf("Hi %s,\n\nThanks for booking %s with %s. The teacher will contact you at %s to confirm.\n\nLearnLingo",
		b.StudentName, when, b.TeacherName, b.Phone)
	return mailer.Message{
		ToName:    b.StudentName,
		ToAddress: b.Email,
		Subject:   "Your LearnLingo lesson request",
		PlainText: body,
	}
}
