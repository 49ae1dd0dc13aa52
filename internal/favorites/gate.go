package favorites

import "sync"

// Gate enforces at most one in-flight mutation per (user, teacher) pair across
// every engine of that user. A whole-user claim, used by Clear, excludes all
// per-teacher claims of the same user and vice versa.
type Gate struct {
	mu    sync.Mutex
	users map[string]*userClaims
}

type userClaims struct {
	all bool
	ids map[string]struct{}
}

// NewGate constructs an empty Gate.
func NewGate() *Gate {
	return &Gate{users: make(map[string]*userClaims)}
}

// tryAcquire claims teacherID for userID; an empty teacherID claims the whole
// user. It never blocks.
func (g *Gate) tryAcquire(userID, teacherID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	claims, ok := g.users[userID]
	if !ok {
		claims = &userClaims{ids: make(map[string]struct{})}
		g.users[userID] = claims
	}
	if claims.all {
		return false
	}
	if teacherID == "" {
		if len(claims.ids) > 0 {
			return false
		}
		claims.all = true
		return true
	}
	if _, busy := claims.ids[teacherID]; busy {
		return false
	}
	claims.ids[teacherID] = struct{}{}
	return true
}

func (g *Gate) release(userID, teacherID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	claims, ok := g.users[userID]
	if !ok {
		return
	}
	if teacherID == "" {
		claims.all = false
	} else {
		delete(claims.ids, teacherID)
	}
	if !claims.all && len(claims.ids) == 0 {
		delete(g.users, userID)
	}
}
