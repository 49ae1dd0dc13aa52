package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

var (
	alice = &models.AuthUser{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"}
	bob   = &models.AuthUser{ID: "bob", Email: "bob@example.com", DisplayName: "Bob"}
)

func signedIn(t *testing.T, gw *fakeGateway, user *models.AuthUser) *Engine {
	t.Helper()
	e := NewEngine(gw, nil, nil)
	e.SetUser(context.Background(), user)
	waitReady(t, e)
	return e
}

func waitReady(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("initial load did not settle")
	}
}

func waitStarted(t *testing.T, started <-chan string) string {
	t.Helper()
	select {
	case id := <-started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("gateway call was not issued")
		return ""
	}
}

func TestToggleIsOptimistic(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	started, release := gw.holdSet(nil)
	defer release()

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)

	assert.True(t, e.IsFavorite("t1"))
	assert.True(t, e.Pending("t1"))

	release()
	res := <-done
	assert.Equal(t, models.Succeeded(MsgAdded), res)
	assert.True(t, e.IsFavorite("t1"))
	assert.False(t, e.Pending("t1"))
	assert.Equal(t, []string{"t1"}, gw.remote("alice"))
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	failure := &gateway.Error{Kind: gateway.KindTransport, Op: "add to favorites", Err: errors.New("connection reset")}
	started, release := gw.holdSet(failure)

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)
	assert.True(t, e.IsFavorite("t1"))

	release()
	res := <-done
	assert.False(t, res.Success)
	assert.Equal(t, "failed to add to favorites: connection reset", res.Message)
	assert.False(t, e.IsFavorite("t1"))
	assert.False(t, e.Pending("t1"))
}

func TestRemoveRollsBackOnFailure(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1"}})
	e := signedIn(t, gw, alice)
	started, release := gw.holdSet(&gateway.Error{Kind: gateway.KindPermission, Op: "remove from favorites"})

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)
	assert.False(t, e.IsFavorite("t1"))

	release()
	res := <-done
	assert.False(t, res.Success)
	assert.True(t, e.IsFavorite("t1"))
}

func TestToggleAlternates(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res := e.Toggle(ctx, "t1")
		require.True(t, res.Success)
		if i%2 == 0 {
			assert.Equal(t, MsgAdded, res.Message)
			assert.True(t, e.IsFavorite("t1"))
		} else {
			assert.Equal(t, MsgRemoved, res.Message)
			assert.False(t, e.IsFavorite("t1"))
		}
	}
	assert.Empty(t, gw.remote("alice"))
	assert.Empty(t, e.Favorites())
}

func TestConcurrentToggleIsRejected(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	started, release := gw.holdSet(nil)
	defer release()

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)

	second := e.Toggle(context.Background(), "t1")
	assert.Equal(t, models.Failed(MsgInProgress), second)
	_, sets, _ := gw.calls()
	assert.Equal(t, 1, sets)
	assert.True(t, e.IsFavorite("t1"))

	release()
	assert.True(t, (<-done).Success)
}

func TestDistinctTeachersProceedIndependently(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	started, release := gw.holdSet(nil)

	done := make(chan models.ActionResult, 2)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	go func() { done <- e.Toggle(context.Background(), "t2") }()
	waitStarted(t, started)
	waitStarted(t, started)

	assert.Equal(t, []string{"t1", "t2"}, e.Favorites())
	release()
	assert.True(t, (<-done).Success)
	assert.True(t, (<-done).Success)
	assert.Equal(t, []string{"t1", "t2"}, e.Favorites())
}

func TestSignOutClearsSynchronouslyAndIgnoresStaleCompletion(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1"}})
	e := signedIn(t, gw, alice)
	require.True(t, e.IsFavorite("t1"))
	started, release := gw.holdSet(nil)

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t2") }()
	waitStarted(t, started)

	e.SetUser(context.Background(), nil)
	assert.False(t, e.IsFavorite("t1"))
	assert.False(t, e.IsFavorite("t2"))
	assert.Nil(t, e.User())

	release()
	<-done
	assert.False(t, e.IsFavorite("t2"))
	assert.Empty(t, e.Favorites())
	assert.False(t, e.Pending("t2"))
}

func TestStaleCompletionDoesNotLeakIntoNextUser(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"bob": {"b1"}})
	e := signedIn(t, gw, alice)
	failure := errors.New("timeout")
	started, release := gw.holdSet(failure)

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)

	e.SetUser(context.Background(), bob)
	waitReady(t, e)
	release()
	assert.False(t, (<-done).Success)

	assert.Equal(t, []string{"b1"}, e.Favorites())
	assert.False(t, e.IsFavorite("t1"))
}

func TestInitialLoad(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t2", "t1"}})
	hold := make(chan struct{})
	gw.beforeGet = func(string) error {
		<-hold
		return nil
	}

	e := NewEngine(gw, nil, nil)
	e.SetUser(context.Background(), alice)

	assert.True(t, e.Loading())
	assert.False(t, e.IsFavorite("t1"))
	assert.Empty(t, e.Favorites())
	assert.Equal(t, models.Failed(MsgLoading), e.Toggle(context.Background(), "t3"))

	close(hold)
	waitReady(t, e)
	assert.False(t, e.Loading())
	assert.True(t, e.IsFavorite("t1"))
	assert.Equal(t, []string{"t1", "t2"}, e.Favorites())

	e.SetUser(context.Background(), alice)
	gets, _, _ := gw.calls()
	assert.Equal(t, 1, gets)
}

func TestInitialLoadFailure(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.beforeGet = func(string) error { return errors.New("permission denied") }

	e := signedIn(t, gw, alice)
	assert.False(t, e.Loading())
	assert.EqualError(t, e.Err(), "permission denied")
	assert.Empty(t, e.Favorites())
}

func TestMutationsRefusedAfterFailedLoad(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1"}})
	gw.beforeGet = func(string) error { return errors.New("boom") }
	e := signedIn(t, gw, alice)
	require.Error(t, e.Err())

	assert.Equal(t, models.Failed(MsgLoadFailed), e.Toggle(context.Background(), "t1"))
	assert.Equal(t, models.Failed(MsgLoadFailed), e.Clear(context.Background()))

	_, sets, clears := gw.calls()
	assert.Zero(t, sets)
	assert.Zero(t, clears)
	assert.Equal(t, []string{"t1"}, gw.remote("alice"))
	assert.False(t, e.Pending("t1"))

	gw.mu.Lock()
	gw.beforeGet = nil
	gw.mu.Unlock()
	e.Reload(context.Background())
	waitReady(t, e)

	assert.Equal(t, models.Succeeded(MsgRemoved), e.Toggle(context.Background(), "t1"))
	assert.Empty(t, gw.remote("alice"))
}

func TestReloadAfterFailedLoad(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t2"}})
	gw.beforeGet = func(string) error { return errors.New("unavailable") }
	e := signedIn(t, gw, alice)
	require.Error(t, e.Err())

	gw.mu.Lock()
	gw.beforeGet = nil
	gw.mu.Unlock()

	e.Reload(context.Background())
	waitReady(t, e)
	assert.NoError(t, e.Err())
	assert.Equal(t, []string{"t2"}, e.Favorites())

	gets, _, _ := gw.calls()
	e.Reload(context.Background())
	after, _, _ := gw.calls()
	assert.Equal(t, gets, after)
}

func TestNotSignedIn(t *testing.T) {
	gw := newFakeGateway(nil)
	e := NewEngine(gw, nil, nil)

	assert.Equal(t, models.Failed(MsgSignIn), e.Toggle(context.Background(), "t1"))
	assert.Equal(t, models.Failed(MsgSignIn), e.Clear(context.Background()))
	assert.False(t, e.IsFavorite("t1"))
	gets, sets, clears := gw.calls()
	assert.Zero(t, gets+sets+clears)
}

func TestNoOpGuards(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1"}})
	e := signedIn(t, gw, alice)

	assert.Equal(t, models.Failed(MsgAlreadyPresent), e.add(context.Background(), "t1"))
	assert.Equal(t, models.Failed(MsgNotPresent), e.remove(context.Background(), "t2"))
	assert.Equal(t, models.Failed(MsgMissingTeacher), e.Toggle(context.Background(), ""))
	_, sets, _ := gw.calls()
	assert.Zero(t, sets)
}

func TestReconcileAdoptsRemoteChanges(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1"}})
	e := signedIn(t, gw, alice)

	gw.mu.Lock()
	gw.put("alice", "other-device", true)
	gw.put("alice", "t1", false)
	gw.mu.Unlock()

	res := e.Toggle(context.Background(), "t2")
	require.True(t, res.Success)
	assert.Equal(t, []string{"other-device", "t2"}, e.Favorites())
}

func TestReconcileKeepsOtherPendingMutations(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)

	hold := make(chan struct{})
	started := make(chan string, 2)
	gw.beforeSet = func(_, teacherID string, _ bool) error {
		started <- teacherID
		if teacherID == "slow" {
			<-hold
		}
		return nil
	}

	slow := make(chan models.ActionResult, 1)
	go func() { slow <- e.Toggle(context.Background(), "slow") }()
	require.Equal(t, "slow", waitStarted(t, started))

	require.True(t, e.Toggle(context.Background(), "fast").Success)
	assert.True(t, e.IsFavorite("slow"))
	assert.True(t, e.IsFavorite("fast"))

	close(hold)
	assert.True(t, (<-slow).Success)
	assert.Equal(t, []string{"fast", "slow"}, e.Favorites())
}

func TestClear(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1", "t2"}})
	e := signedIn(t, gw, alice)

	res := e.Clear(context.Background())
	assert.Equal(t, models.Succeeded(MsgCleared), res)
	assert.Empty(t, e.Favorites())
	assert.Empty(t, gw.remote("alice"))
}

func TestClearRestoresOnFailure(t *testing.T) {
	gw := newFakeGateway(map[string][]string{"alice": {"t1", "t2"}})
	e := signedIn(t, gw, alice)
	gw.beforeClear = func(string) error { return errors.New("unavailable") }

	res := e.Clear(context.Background())
	assert.Equal(t, models.Failed("unavailable"), res)
	assert.Equal(t, []string{"t1", "t2"}, e.Favorites())
}

func TestClearRefusedWhileToggleInFlight(t *testing.T) {
	gw := newFakeGateway(nil)
	e := signedIn(t, gw, alice)
	started, release := gw.holdSet(nil)

	done := make(chan models.ActionResult, 1)
	go func() { done <- e.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)

	assert.Equal(t, models.Failed(MsgInProgress), e.Clear(context.Background()))
	release()
	<-done
	_, _, clears := gw.calls()
	assert.Zero(t, clears)
}

func TestSharedGateAcrossSessions(t *testing.T) {
	gw := newFakeGateway(nil)
	gate := NewGate()
	laptop := NewEngine(gw, gate, nil)
	phone := NewEngine(gw, gate, nil)
	laptop.SetUser(context.Background(), alice)
	phone.SetUser(context.Background(), alice)
	waitReady(t, laptop)
	waitReady(t, phone)

	started, release := gw.holdSet(nil)
	done := make(chan models.ActionResult, 1)
	go func() { done <- laptop.Toggle(context.Background(), "t1") }()
	waitStarted(t, started)

	assert.Equal(t, models.Failed(MsgInProgress), phone.Toggle(context.Background(), "t1"))
	assert.Equal(t, models.Failed(MsgInProgress), phone.Clear(context.Background()))

	release()
	assert.True(t, (<-done).Success)
	assert.Equal(t, models.Succeeded(MsgAdded), phone.Toggle(context.Background(), "t1"))
	assert.True(t, phone.IsFavorite("t1"))
	assert.Equal(t, []string{"t1"}, gw.remote("alice"))
}
