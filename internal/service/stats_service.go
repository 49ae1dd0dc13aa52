package service

import (
	"context"
	"time"

	"github.com/noah-isme/learnlingo-api/internal/catalog"
	"github.com/noah-isme/learnlingo-api/internal/dto"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

type teacherLister interface {
	All(ctx context.Context) ([]models.Teacher, error)
}

// StatsService aggregates catalog statistics.
type StatsService struct {
	teachers teacherLister
	cache    *CacheService
	ttl      time.Duration
}

// NewStatsService constructs a StatsService.
func NewStatsService(teachers teacherLister, cache *CacheService, ttl time.Duration) *StatsService {
	return &StatsService{teachers: teachers, cache: cache, ttl: ttl}
}

// Stats returns the full aggregate.
func (s *StatsService) Stats(ctx context.Context) (models.TeacherStats, error) {
	var cached models.TeacherStats
	if hit, _ := s.cache.Get(ctx, cacheKeyStats, &cached); hit {
		return cached, nil
	}
	teachers, err := s.teachers.All(ctx)
	if err != nil {
		return models.TeacherStats{}, err
	}
	stats := catalog.ComputeStats(teachers)
	_ = s.cache.Set(ctx, cacheKeyStats, stats, s.ttl)
	return stats, nil
}

// Summary returns the landing-page counters.
func (s *StatsService) Summary(ctx context.Context) (dto.StatsSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return dto.StatsSummary{}, err
	}
	return dto.StatsSummary{
		TutorsCount:        stats.Total,
		ReviewsCount:       stats.TotalReviews,
		SubjectsCount:      len(stats.Languages),
		NationalitiesCount: stats.Total,
	}, nil
}
