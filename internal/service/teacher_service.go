package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/catalog"
	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

type teacherStore interface {
	GetTeachers(ctx context.Context) ([]models.Teacher, error)
	GetTeacher(ctx context.Context, id string) (*models.Teacher, error)
}

// TeacherService serves catalog reads, caching the full collection.
type TeacherService struct {
	store   teacherStore
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(store teacherStore, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{store: store, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// All returns every teacher in store order.
func (s *TeacherService) All(ctx context.Context) ([]models.Teacher, error) {
	var cached []models.Teacher
	if hit, _ := s.cache.Get(ctx, cacheKeyTeachers, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	teachers, err := s.store.GetTeachers(ctx)
	s.metrics.ObserveGatewayCall("get_teachers", time.Since(start))
	if err != nil {
		return nil, gateway.AppError(err, "teachers not found")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	_ = s.cache.Set(ctx, cacheKeyTeachers, teachers, s.ttl)
	return teachers, nil
}

// List filters and paginates the catalog.
func (s *TeacherService) List(ctx context.Context, filter catalog.Filter) (catalog.Page, error) {
	teachers, err := s.All(ctx)
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.FilterAndPaginate(teachers, filter), nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	start := time.Now()
	teacher, err := s.store.GetTeacher(ctx, id)
	s.metrics.ObserveGatewayCall("get_teacher", time.Since(start))
	if err != nil {
		return nil, gateway.AppError(err, "teacher not found")
	}
	return teacher, nil
}

// ByIDs returns the teachers with the given ids in the order given. Unknown
// ids are skipped.
func (s *TeacherService) ByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return []models.Teacher{}, nil
	}
	teachers, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.ByIDs(teachers, ids), nil
}

// Invalidate drops cached catalog reads after a write.
func (s *TeacherService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cachePatternTeachers, cachePatternStats); err != nil {
		s.logger.Warn("catalog cache not invalidated", zap.Error(err))
	}
}
