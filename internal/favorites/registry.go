package favorites

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

// Registry owns one Engine per sign-in session. Engines of the same user
// share a Gate so a pair can only be in flight once across sessions.
type Registry struct {
	gateway Gateway
	gate    *Gate
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	ended   map[string]time.Time
}

type entry struct {
	engine   *Engine
	lastUsed time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry(gw Gateway, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		gateway: gw,
		gate:    NewGate(),
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
		ended:   make(map[string]time.Time),
	}
}

// Engine returns the session's engine, creating it and starting its initial
// load when needed. A session that already ended gets a detached signed-out
// engine so a request racing sign-out cannot bring it back.
func (r *Registry) Engine(ctx context.Context, sessionID string, user *models.AuthUser) *Engine {
	r.mu.Lock()
	if _, gone := r.ended[sessionID]; gone {
		r.mu.Unlock()
		return NewEngine(r.gateway, r.gate, r.logger)
	}
	e, ok := r.entries[sessionID]
	if !ok {
		e = &entry{engine: NewEngine(r.gateway, r.gate, r.logger.With(zap.String("session_id", sessionID)))}
		r.entries[sessionID] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	e.engine.SetUser(ctx, user)
	return e.engine
}

// Lookup returns an existing engine without creating one.
func (r *Registry) Lookup(sessionID string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.engine, true
}

// Drop signs the session's engine out and forgets it.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	r.ended[sessionID] = r.now()
	r.mu.Unlock()

	if ok {
		e.engine.SetUser(context.Background(), nil)
	}
}

// OnUserChanged follows identity notifications: a nil user ends the session.
func (r *Registry) OnUserChanged(sessionID string, user *models.AuthUser) {
	if user == nil {
		r.Drop(sessionID)
		return
	}
	r.Engine(context.Background(), sessionID, user)
}

// Prune drops engines unused for longer than idle and returns how many went.
// Ended sessions older than idle are forgotten too.
func (r *Registry) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	for id, at := range r.ended {
		if at.Before(cutoff) {
			delete(r.ended, id)
		}
	}
	var stale []*Engine
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e.engine)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, engine := range stale {
		engine.SetUser(context.Background(), nil)
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
