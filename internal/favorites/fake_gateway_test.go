package favorites

import (
	"context"
	"sort"
	"sync"
)

// fakeGateway keeps favorites in memory. Hooks run before the default
// behaviour and may block to hold an operation in flight.
type fakeGateway struct {
	mu        sync.Mutex
	favorites map[string]map[string]bool
	getCalls  int
	setCalls  int
	clears    int

	beforeGet   func(userID string) error
	beforeSet   func(userID, teacherID string, present bool) error
	beforeClear func(userID string) error
}

func newFakeGateway(initial map[string][]string) *fakeGateway {
	g := &fakeGateway{favorites: make(map[string]map[string]bool)}
	for user, ids := range initial {
		g.favorites[user] = make(map[string]bool)
		for _, id := range ids {
			g.favorites[user][id] = true
		}
	}
	return g
}

func (g *fakeGateway) GetUserFavorites(_ context.Context, userID string) ([]string, error) {
	g.mu.Lock()
	g.getCalls++
	hook := g.beforeGet
	g.mu.Unlock()
	if hook != nil {
		if err := hook(userID); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	ids := []string{}
	for id, present := range g.favorites[userID] {
		if present {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (g *fakeGateway) SetFavorite(_ context.Context, userID, teacherID string, present bool) error {
	g.mu.Lock()
	g.setCalls++
	hook := g.beforeSet
	g.mu.Unlock()
	if hook != nil {
		if err := hook(userID, teacherID, present); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(userID, teacherID, present)
	return nil
}

func (g *fakeGateway) ClearFavorites(_ context.Context, userID string) error {
	g.mu.Lock()
	g.clears++
	hook := g.beforeClear
	g.mu.Unlock()
	if hook != nil {
		if err := hook(userID); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.favorites, userID)
	return nil
}

// put writes directly, simulating another device.
func (g *fakeGateway) put(userID, teacherID string, present bool) {
	if g.favorites[userID] == nil {
		g.favorites[userID] = make(map[string]bool)
	}
	if present {
		g.favorites[userID][teacherID] = true
		return
	}
	delete(g.favorites[userID], teacherID)
}

func (g *fakeGateway) remote(userID string) []string {
	ids, _ := g.GetUserFavorites(context.Background(), userID)
	return ids
}

func (g *fakeGateway) calls() (get, set, clear int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getCalls, g.setCalls, g.clears
}

// holdSet makes SetFavorite block until the returned release is called and
// reports each entry on the started channel.
func (g *fakeGateway) holdSet(result error) (started <-chan string, release func()) {
	startedCh := make(chan string, 8)
	gate := make(chan struct{})
	var once sync.Once
	g.mu.Lock()
	g.beforeSet = func(_, teacherID string, _ bool) error {
		startedCh <- teacherID
		<-gate
		return result
	}
	g.mu.Unlock()
	return startedCh, func() { once.Do(func() { close(gate) }) }
}
