package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type sessionPurger interface {
	PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

type enginePruner interface {
	Prune(idle time.Duration) int
}

// MaintenanceService removes expired sessions and idle favorites engines.
type MaintenanceService struct {
	sessions   sessionPurger
	engines    enginePruner
	engineIdle time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(sessions sessionPurger, engines enginePruner, engineIdle time.Duration, metrics *MetricsService, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{sessions: sessions, engines: engines, engineIdle: engineIdle, metrics: metrics, logger: logger, now: time.Now}
}

// Sweep runs one maintenance pass. Engines are pruned even when the session
// purge fails.
func (s *MaintenanceService) Sweep(ctx context.Context) error {
	pruned := 0
	if s.engines != nil && s.engineIdle > 0 {
		pruned = s.engines.Prune(s.engineIdle)
	}

	start := time.Now()
	purged, err := s.sessions.PurgeSessions(ctx, s.now().UTC())
	s.metrics.ObserveGatewayCall("purge_sessions", time.Since(start))
	if err != nil {
		return err
	}
	s.metrics.AddSessionsPurged(purged)
	if purged > 0 || pruned > 0 {
		s.logger.Info("maintenance sweep", zap.Int64("sessions_purged", purged), zap.Int("engines_pruned", pruned))
	}
	return nil
}
