package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnlingo-api/internal/favorites"
	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/identity"
	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/internal/validation"
	"github.com/noah-isme/learnlingo-api/pkg/response"
)

// memoryStore is an in-memory gateway.Store.
type memoryStore struct {
	mu         sync.Mutex
	teachers   []models.Teacher
	users      map[string]*models.User
	sessions   map[string]*models.Session
	favorites  map[string]map[string]bool
	bookings   map[string][]models.Booking
	teachersFn func() error
}

var _ gateway.Store = (*memoryStore)(nil)

func newMemoryStore(teachers ...models.Teacher) *memoryStore {
	return &memoryStore{
		teachers:  teachers,
		users:     map[string]*models.User{},
		sessions:  map[string]*models.Session{},
		favorites: map[string]map[string]bool{},
		bookings:  map[string][]models.Booking{},
	}
}

func (m *memoryStore) GetTeachers(context.Context) ([]models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.teachersFn != nil {
		if err := m.teachersFn(); err != nil {
			return nil, err
		}
	}
	out := make([]models.Teacher, len(m.teachers))
	copy(out, m.teachers)
	return out, nil
}

func (m *memoryStore) GetTeacher(_ context.Context, id string) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teachers {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("load teacher")
}

func (m *memoryStore) AddReview(_ context.Context, teacherID string, review models.Review) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teachers {
		if m.teachers[i].ID == teacherID {
			m.teachers[i].Reviews = append(m.teachers[i].Reviews, review)
			cp := m.teachers[i]
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("add review")
}

func (m *memoryStore) DeleteReview(_ context.Context, teacherID string, index int) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teachers {
		if m.teachers[i].ID == teacherID && index < len(m.teachers[i].Reviews) {
			r := m.teachers[i].Reviews
			m.teachers[i].Reviews = append(r[:index:index], r[index+1:]...)
			cp := m.teachers[i]
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("delete review")
}

func (m *memoryStore) GetUserFavorites(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for id := range m.favorites[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memoryStore) SetFavorite(_ context.Context, userID, teacherID string, present bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.favorites[userID] == nil {
		m.favorites[userID] = map[string]bool{}
	}
	if present {
		m.favorites[userID][teacherID] = true
	} else {
		delete(m.favorites[userID], teacherID)
	}
	return nil
}

func (m *memoryStore) ClearFavorites(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites, userID)
	return nil
}

func (m *memoryStore) CreateBooking(_ context.Context, userID string, in models.BookingInput) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := models.Booking{
		ID: fmt.Sprintf("b%d", len(m.bookings[userID])+1), UserID: userID, TeacherID: in.TeacherID, TeacherName: in.TeacherName,
		StudentName: in.StudentName, Email: in.Email, Phone: in.Phone, Kind: in.Kind(), Status: models.BookingPending, CreatedAt: time.Now(),
	}
	if in.Reason != "" {
		reason := in.Reason
		b.Reason = &reason
	}
	m.bookings[userID] = append([]models.Booking{b}, m.bookings[userID]...)
	return &b, nil
}

func (m *memoryStore) ListBookings(_ context.Context, userID string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Booking(nil), m.bookings[userID]...), nil
}

func (m *memoryStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gateway.NotFound("load user")
}

func (m *memoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("load user")
}

func (m *memoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("u%d", len(m.users)+1)
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryStore) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.LastLogin = at
		return nil
	}
	return gateway.NotFound("update last login")
}

func (m *memoryStore) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memoryStore) FindSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gateway.NotFound("load session")
}

func (m *memoryStore) RevokeSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.RevokedAt = &at
	}
	return nil
}

func (m *memoryStore) PurgeSessions(context.Context, time.Time) (int64, error) { return 0, nil }
func (m *memoryStore) Ping(context.Context) error                              { return nil }
func (m *memoryStore) Close() error                                            { return nil }

func (m *memoryStore) addUser(t *testing.T, id, email, password string, role models.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	m.users[id] = &models.User{ID: id, Email: email, Name: "User " + id, PasswordHash: &h, Provider: models.ProviderPassword, Role: role}
}

type testServer struct {
	router   *gin.Engine
	store    *memoryStore
	registry *favorites.Registry
	provider *identity.Provider
}

func catalogFixture() []models.Teacher {
	return []models.Teacher{
		{ID: "a", Name: "Ann", Surname: "Lee", Languages: []string{"en"}, Levels: []string{"A1"}, PricePerHour: 10, Reviews: []models.Review{{ReviewerRating: 5}}},
		{ID: "b", Name: "Bo", Surname: "Ng", Languages: []string{"fr"}, Levels: []string{"B2"}, PricePerHour: 30},
		{ID: "c", Name: "Cy", Surname: "Oz", Languages: []string{"en", "de"}, Levels: []string{"A1"}, PricePerHour: 25},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newMemoryStore(catalogFixture()...)
	validate := validation.New()
	metrics := service.NewMetricsService()

	provider := identity.NewProvider(store, store, nil, validate, nil, identity.Config{Secret: "test-secret", TokenTTL: time.Hour})
	registry := favorites.NewRegistry(store, nil)
	provider.Subscribe(func(ev identity.Event) { registry.OnUserChanged(ev.SessionID, ev.User) })

	teachers := service.NewTeacherService(store, nil, metrics, 0, nil)
	handlers := Handlers{
		Auth:      NewAuthHandler(provider, CookieConfig{Name: "session", TTL: time.Hour}),
		Teachers:  NewTeacherHandler(teachers),
		Stats:     NewStatsHandler(service.NewStatsService(teachers, nil, 0)),
		Favorites: NewFavoriteHandler(service.NewFavoriteService(registry, teachers, metrics, nil)),
		Bookings:  NewBookingHandler(service.NewBookingService(store, nil, validate, metrics, nil)),
		Reviews:   NewReviewHandler(service.NewReviewService(store, teachers, validate, nil)),
		Metrics:   NewMetricsHandler(metrics, map[string]Pinger{"store": store}),
	}

	router := gin.New()
	Register(router, handlers, RouteConfig{Prefix: "/api", CookieName: "session", Auth: provider})
	return &testServer{router: router, store: store, registry: registry, provider: provider}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data models.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data.AccessToken
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) response.Envelope {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	var out response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
