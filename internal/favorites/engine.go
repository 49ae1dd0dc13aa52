// Package favorites keeps a per-session working copy of a user's favorite
// teachers in sync with the remote store using optimistic updates.
package favorites

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

// Result messages.
const (
	MsgAdded          = "Added to favorites"
	MsgRemoved        = "Removed from favorites"
	MsgCleared        = "Favorites cleared"
	MsgAlreadyPresent = "This teacher is already in favorites"
	MsgNotPresent     = "This teacher is not in favorites"
	MsgSignIn         = "Please sign in to manage favorites"
	MsgInProgress     = "Operation in progress"
	MsgLoading        = "Favorites are still loading"
	MsgLoadFailed     = "Favorites could not be loaded, please try again"
	MsgMissingTeacher = "Teacher id is required"
)

// Gateway is the part of the remote store the engine talks to.
type Gateway interface {
	GetUserFavorites(ctx context.Context, userID string) ([]string, error)
	SetFavorite(ctx context.Context, userID, teacherID string, present bool) error
	ClearFavorites(ctx context.Context, userID string) error
}

// Engine is the favorites state of one session. All methods are safe for
// concurrent use. The mutex is never held across a gateway call; every
// continuation compares the session epoch it captured before touching state.
type Engine struct {
	gateway Gateway
	gate    *Gate
	logger  *zap.Logger

	mu       sync.Mutex
	user     *models.AuthUser
	epoch    uint64
	set      map[string]struct{}
	pending  map[string]bool
	clearing bool
	loading  bool
	loadErr  error
	ready    chan struct{}
}

// NewEngine builds a signed-out engine. A nil gate gives the engine a private
// one, which only serialises mutations within this engine.
func NewEngine(gw Gateway, gate *Gate, logger *zap.Logger) *Engine {
	if gate == nil {
		gate = NewGate()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		gateway: gw,
		gate:    gate,
		logger:  logger,
		set:     make(map[string]struct{}),
		pending: make(map[string]bool),
		ready:   closedChan(),
	}
}

// SetUser switches the session identity. A nil user signs out: the working
// set is cleared before SetUser returns and in-flight operations are
// abandoned. A new user triggers exactly one background load of their
// favorites. Setting the current user again is a no-op.
func (e *Engine) SetUser(ctx context.Context, user *models.AuthUser) {
	e.mu.Lock()
	if user != nil && e.user != nil && e.user.ID == user.ID {
		e.user = user
		e.mu.Unlock()
		return
	}

	e.epoch++
	e.user = user
	e.set = make(map[string]struct{})
	e.pending = make(map[string]bool)
	e.clearing = false
	e.loadErr = nil

	if user == nil {
		e.loading = false
		e.ready = closedChan()
		e.mu.Unlock()
		return
	}

	e.loading = true
	ready := make(chan struct{})
	e.ready = ready
	epoch := e.epoch
	userID := user.ID
	e.mu.Unlock()

	go e.load(context.WithoutCancel(ctx), epoch, userID, ready)
}

func (e *Engine) load(ctx context.Context, epoch uint64, userID string, ready chan struct{}) {
	defer close(ready)
	ids, err := e.gateway.GetUserFavorites(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	e.loading = false
	if err != nil {
		e.loadErr = err
		e.logger.Warn("initial favorites load failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	fresh := toSet(ids)
	for id, want := range e.pending {
		applyLocked(fresh, id, want)
	}
	e.set = fresh
}

// Reload restarts the initial load after it failed. It does nothing while
// signed out, while loading, or once a load has succeeded.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	if e.user == nil || e.loading || e.loadErr == nil {
		e.mu.Unlock()
		return
	}
	e.loadErr = nil
	e.loading = true
	ready := make(chan struct{})
	e.ready = ready
	epoch := e.epoch
	userID := e.user.ID
	e.mu.Unlock()

	go e.load(context.WithoutCancel(ctx), epoch, userID, ready)
}

// User returns the signed-in user or nil.
func (e *Engine) User() *models.AuthUser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user
}

// IsFavorite reports whether teacherID is in the working set. It is false for
// every id while the initial load is outstanding.
func (e *Engine) IsFavorite(teacherID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return false
	}
	_, ok := e.set[teacherID]
	return ok
}

// Loading reports whether the initial load is outstanding.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Ready is closed once the current session's initial load has settled.
func (e *Engine) Ready() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Err returns the initial load error, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Favorites returns the working set sorted by teacher id.
func (e *Engine) Favorites() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return []string{}
	}
	return sortedKeys(e.set)
}

// Pending reports whether a mutation for teacherID is in flight.
func (e *Engine) Pending(teacherID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[teacherID]
	return e.clearing || ok
}

// Toggle adds teacherID when absent and removes it when present. The working
// set changes immediately; the returned result reflects the remote outcome.
func (e *Engine) Toggle(ctx context.Context, teacherID string) models.ActionResult {
	e.mu.Lock()
	if res, blocked := e.guardLocked(teacherID); blocked {
		e.mu.Unlock()
		return res
	}
	_, present := e.set[teacherID]
	e.mu.Unlock()

	if present {
		return e.remove(ctx, teacherID)
	}
	return e.add(ctx, teacherID)
}

func (e *Engine) add(ctx context.Context, teacherID string) models.ActionResult {
	return e.mutate(ctx, teacherID, true)
}

func (e *Engine) remove(ctx context.Context, teacherID string) models.ActionResult {
	return e.mutate(ctx, teacherID, false)
}

func (e *Engine) guardLocked(teacherID string) (models.ActionResult, bool) {
	switch {
	case e.user == nil:
		return models.Failed(MsgSignIn), true
	case teacherID == "":
		return models.Failed(MsgMissingTeacher), true
	case e.loading:
		return models.Failed(MsgLoading), true
	case e.loadErr != nil:
		return models.Failed(MsgLoadFailed), true
	case e.clearing:
		return models.Failed(MsgInProgress), true
	}
	if _, busy := e.pending[teacherID]; busy {
		return models.Failed(MsgInProgress), true
	}
	return models.ActionResult{}, false
}

func (e *Engine) mutate(ctx context.Context, teacherID string, want bool) models.ActionResult {
	e.mu.Lock()
	if res, blocked := e.guardLocked(teacherID); blocked {
		e.mu.Unlock()
		return res
	}
	if _, present := e.set[teacherID]; present == want {
		e.mu.Unlock()
		if want {
			return models.Failed(MsgAlreadyPresent)
		}
		return models.Failed(MsgNotPresent)
	}
	userID := e.user.ID
	if !e.gate.tryAcquire(userID, teacherID) {
		e.mu.Unlock()
		return models.Failed(MsgInProgress)
	}
	epoch := e.epoch
	e.pending[teacherID] = want
	applyLocked(e.set, teacherID, want)
	e.mu.Unlock()

	err := e.gateway.SetFavorite(ctx, userID, teacherID, want)
	e.gate.release(userID, teacherID)

	if err != nil {
		e.mu.Lock()
		if e.epoch == epoch {
			delete(e.pending, teacherID)
			applyLocked(e.set, teacherID, !want)
		}
		e.mu.Unlock()
		e.logger.Warn("favorite mutation failed",
			zap.String("user_id", userID),
			zap.String("teacher_id", teacherID),
			zap.Bool("present", want),
			zap.Error(err),
		)
		return models.Failed(gateway.Message(err))
	}

	e.reconcile(ctx, epoch, userID, func() { delete(e.pending, teacherID) })
	if want {
		return models.Succeeded(MsgAdded)
	}
	return models.Succeeded(MsgRemoved)
}

// Clear removes every favorite. It is refused while any toggle is in flight.
func (e *Engine) Clear(ctx context.Context) models.ActionResult {
	e.mu.Lock()
	switch {
	case e.user == nil:
		e.mu.Unlock()
		return models.Failed(MsgSignIn)
	case e.loading:
		e.mu.Unlock()
		return models.Failed(MsgLoading)
	case e.loadErr != nil:
		e.mu.Unlock()
		return models.Failed(MsgLoadFailed)
	case e.clearing || len(e.pending) > 0:
		e.mu.Unlock()
		return models.Failed(MsgInProgress)
	}
	userID := e.user.ID
	if !e.gate.tryAcquire(userID, "") {
		e.mu.Unlock()
		return models.Failed(MsgInProgress)
	}
	epoch := e.epoch
	snapshot := e.set
	e.set = make(map[string]struct{})
	e.clearing = true
	e.mu.Unlock()

	err := e.gateway.ClearFavorites(ctx, userID)
	e.gate.release(userID, "")

	if err != nil {
		e.mu.Lock()
		if e.epoch == epoch {
			e.set = snapshot
			e.clearing = false
		}
		e.mu.Unlock()
		e.logger.Warn("clear favorites failed", zap.String("user_id", userID), zap.Error(err))
		return models.Failed(gateway.Message(err))
	}

	e.reconcile(ctx, epoch, userID, func() { e.clearing = false })
	return models.Succeeded(MsgCleared)
}

// reconcile re-reads the remote set after a successful write so the settled
// state matches the store even when another device changed it meanwhile.
// settle runs under the lock before the remote set is applied; mutations
// still in flight are laid over the fresh copy.
func (e *Engine) reconcile(ctx context.Context, epoch uint64, userID string, settle func()) {
	ids, err := e.gateway.GetUserFavorites(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	settle()
	if err != nil {
		e.logger.Warn("favorites reconciliation failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	fresh := toSet(ids)
	for id, want := range e.pending {
		applyLocked(fresh, id, want)
	}
	e.set = fresh
}

func applyLocked(set map[string]struct{}, teacherID string, present bool) {
	if present {
		set[teacherID] = struct{}{}
		return
	}
	delete(set, teacherID)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for id := range set {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
