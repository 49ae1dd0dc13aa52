package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/validation"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

type reviewStore interface {
	AddReview(ctx context.Context, teacherID string, review models.Review) (*models.Teacher, error)
	DeleteReview(ctx context.Context, teacherID string, index int) (*models.Teacher, error)
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// ReviewService appends and removes teacher reviews. The store recomputes the
// teacher's rating in the same write.
type ReviewService struct {
	store     reviewStore
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(store reviewStore, catalog catalogInvalidator, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{store: store, catalog: catalog, validator: validate, logger: logger, now: time.Now}
}

// Add appends a review dated now. The reviewer name defaults to the
// author's display name.
func (s *ReviewService) Add(ctx context.Context, author *models.AuthUser, teacherID string, req models.CreateReviewRequest) (*models.Teacher, error) {
	if author == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.ReviewerName = strings.TrimSpace(req.ReviewerName)
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Message(err))
	}
	name := req.ReviewerName
	if name == "" {
		name = author.DisplayName
	}
	if name == "" {
		name = author.Email
	}

	teacher, err := s.store.AddReview(ctx, teacherID, models.Review{
		ReviewerName:   name,
		ReviewerRating: req.ReviewerRating,
		Comment:        req.Comment,
		Date:           s.now().UTC(),
	})
	if err != nil {
		return nil, gateway.AppError(err, "teacher not found")
	}
	s.catalog.Invalidate(ctx)
	s.logger.Info("review added", zap.String("teacher_id", teacherID), zap.String("user_id", author.ID), zap.Float64("rating", teacher.Rating))
	return teacher, nil
}

// Delete removes the review at index.
func (s *ReviewService) Delete(ctx context.Context, teacherID string, index int) (*models.Teacher, error) {
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review index must not be negative")
	}
	teacher, err := s.store.DeleteReview(ctx, teacherID, index)
	if err != nil {
		return nil, gateway.AppError(err, "review not found")
	}
	s.catalog.Invalidate(ctx)
	s.logger.Info("review deleted", zap.String("teacher_id", teacherID), zap.Int("index", index))
	return teacher, nil
}
