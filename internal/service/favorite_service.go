package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/dto"
	"github.com/noah-isme/learnlingo-api/internal/favorites"
	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

type teacherFinder interface {
	ByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

// FavoriteService maps HTTP requests onto the session's favorites engine.
type FavoriteService struct {
	registry *favorites.Registry
	teachers teacherFinder
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(registry *favorites.Registry, teachers teacherFinder, metrics *MetricsService, logger *zap.Logger) *FavoriteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoriteService{registry: registry, teachers: teachers, metrics: metrics, logger: logger}
}

// timedFavorites records gateway_call_duration_seconds around every favorites
// store call made by the engines.
type timedFavorites struct {
	gw      favorites.Gateway
	metrics *MetricsService
}

// NewTimedFavoritesGateway wraps gw so each call is timed on metrics.
func NewTimedFavoritesGateway(gw favorites.Gateway, metrics *MetricsService) favorites.Gateway {
	if metrics == nil {
		return gw
	}
	return &timedFavorites{gw: gw, metrics: metrics}
}

func (t *timedFavorites) GetUserFavorites(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()
	defer func() { t.metrics.ObserveGatewayCall("get_favorites", time.Since(start)) }()
	return t.gw.GetUserFavorites(ctx, userID)
}

func (t *timedFavorites) SetFavorite(ctx context.Context, userID, teacherID string, present bool) error {
	start := time.Now()
	defer func() { t.metrics.ObserveGatewayCall("set_favorite", time.Since(start)) }()
	return t.gw.SetFavorite(ctx, userID, teacherID, present)
}

func (t *timedFavorites) ClearFavorites(ctx context.Context, userID string) error {
	start := time.Now()
	defer func() { t.metrics.ObserveGatewayCall("clear_favorites", time.Since(start)) }()
	return t.gw.ClearFavorites(ctx, userID)
}

// engine returns the session engine once its initial load settled or ctx
// ended, whichever comes first.
func (s *FavoriteService) engine(ctx context.Context, claims *models.JWTClaims) *favorites.Engine {
	e := s.registry.Engine(ctx, claims.SessionID(), claims.AuthUser())
	e.Reload(ctx)
	select {
	case <-e.Ready():
	case <-ctx.Done():
	}
	return e
}

// State returns the caller's favorite ids.
func (s *FavoriteService) State(ctx context.Context, claims *models.JWTClaims) (dto.FavoritesState, error) {
	if claims == nil {
		return dto.FavoritesState{}, appErrors.Clone(appErrors.ErrUnauthorized, favorites.MsgSignIn)
	}
	e := s.engine(ctx, claims)
	if err := e.Err(); err != nil {
		return dto.FavoritesState{}, gateway.AppError(err, "favorites not found")
	}
	return dto.FavoritesState{TeacherIDs: e.Favorites(), Loading: e.Loading()}, nil
}

// Teachers returns the full records of the caller's favorites.
func (s *FavoriteService) Teachers(ctx context.Context, claims *models.JWTClaims) (dto.FavoriteTeachers, error) {
	state, err := s.State(ctx, claims)
	if err != nil {
		return dto.FavoriteTeachers{}, err
	}
	teachers, err := s.teachers.ByIDs(ctx, state.TeacherIDs)
	if err != nil {
		return dto.FavoriteTeachers{}, err
	}
	return dto.FavoriteTeachers{Teachers: teachers, Loading: state.Loading}, nil
}

// Toggle flips one teacher.
func (s *FavoriteService) Toggle(ctx context.Context, claims *models.JWTClaims, teacherID string) models.ActionResult {
	if claims == nil {
		return models.Failed(favorites.MsgSignIn)
	}
	result := s.engine(ctx, claims).Toggle(ctx, teacherID)
	s.metrics.RecordFavoriteMutation("toggle", result.Success)
	return result
}

// Clear removes every favorite.
func (s *FavoriteService) Clear(ctx context.Context, claims *models.JWTClaims) models.ActionResult {
	if claims == nil {
		return models.Failed(favorites.MsgSignIn)
	}
	result := s.engine(ctx, claims).Clear(ctx)
	s.metrics.RecordFavoriteMutation("clear", result.Success)
	return result
}
