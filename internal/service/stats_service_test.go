package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnlingo-api/internal/dto"
)

func TestStatsServiceSummary(t *testing.T) {
	teachers := NewTeacherService(&fakeTeacherStore{teachers: sampleTeachers()}, nil, nil, 0, nil)
	svc := NewStatsService(teachers, nil, 0)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.StatsSummary{TutorsCount: 3, ReviewsCount: 3, SubjectsCount: 3, NationalitiesCount: 3}, summary)
}

func TestStatsServiceUsesCache(t *testing.T) {
	store := &fakeTeacherStore{teachers: sampleTeachers()}
	cache := NewCacheService(newMemoryCache(), nil, 0, nil, true)
	svc := NewStatsService(NewTeacherService(store, nil, nil, 0, nil), cache, 0)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	second, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listed)
	assert.Equal(t, 150, first.TotalLessons)
	assert.Equal(t, 2, first.Languages["English"])
}

func TestStatsServiceFailure(t *testing.T) {
	svc := NewStatsService(NewTeacherService(&fakeTeacherStore{err: errors.New("down")}, nil, nil, 0, nil), nil, 0)
	_, err := svc.Summary(context.Background())
	assert.Error(t, err)
}
