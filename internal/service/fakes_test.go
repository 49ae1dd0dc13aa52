package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

type fakeTeacherStore struct {
	mu       sync.Mutex
	teachers []models.Teacher
	err      error
	listed   int
	reviews  map[string][]models.Review
}

func (f *fakeTeacherStore) GetTeachers(context.Context) ([]models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Teacher, len(f.teachers))
	copy(out, f.teachers)
	return out, nil
}

func (f *fakeTeacherStore) GetTeacher(_ context.Context, id string) (*models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.teachers {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("load teacher")
}

func (f *fakeTeacherStore) AddReview(_ context.Context, teacherID string, review models.Review) (*models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.teachers {
		if f.teachers[i].ID == teacherID {
			f.teachers[i].Reviews = append(f.teachers[i].Reviews, review)
			cp := f.teachers[i]
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("add review")
}

func (f *fakeTeacherStore) DeleteReview(_ context.Context, teacherID string, index int) (*models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.teachers {
		if f.teachers[i].ID == teacherID {
			reviews := f.teachers[i].Reviews
			if index >= len(reviews) {
				return nil, gateway.NotFound("delete review")
			}
			f.teachers[i].Reviews = append(reviews[:index:index], reviews[index+1:]...)
			cp := f.teachers[i]
			return &cp, nil
		}
	}
	return nil, gateway.NotFound("delete review")
}

type fakeBookingStore struct {
	mu       sync.Mutex
	created  []models.Booking
	err      error
	calls    int
	bookings []models.Booking
}

func (f *fakeBookingStore) CreateBooking(_ context.Context, userID string, in models.BookingInput) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	b := models.Booking{
		ID:          "booking-1",
		UserID:      userID,
		TeacherID:   in.TeacherID,
		TeacherName: in.TeacherName,
		StudentName: in.StudentName,
		Email:       in.Email,
		Phone:       in.Phone,
		Kind:        in.Kind(),
		Status:      models.BookingPending,
	}
	f.created = append(f.created, b)
	return &b, nil
}

func (f *fakeBookingStore) ListBookings(_ context.Context, _ string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings, f.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (r *recordingNotifier) BookingCreated(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, b)
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }
