package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnlingo-api/internal/models"
	"github.com/noah-isme/learnlingo-api/internal/repository"
)

// SQLStore is the Postgres backend composed from the sqlx repositories.
type SQLStore struct {
	db        *sqlx.DB
	teachers  *repository.TeacherRepository
	users     *repository.UserRepository
	favorites *repository.FavoriteRepository
	bookings  *repository.BookingRepository
	sessions  *repository.SessionRepository
	now       func() time.Time
}

// NewSQLStore wires the repositories over db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:        db,
		teachers:  repository.NewTeacherRepository(db),
		users:     repository.NewUserRepository(db),
		favorites: repository.NewFavoriteRepository(db),
		bookings:  repository.NewBookingRepository(db),
		sessions:  repository.NewSessionRepository(db),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) GetTeachers(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	return teachers, sqlError("load teachers", err)
}

func (s *SQLStore) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	return teacher, sqlError("load teacher", err)
}

func (s *SQLStore) AddReview(ctx context.Context, teacherID string, review models.Review) (*models.Teacher, error) {
	teacher, err := s.teachers.AppendReview(ctx, teacherID, review)
	return teacher, sqlError("add review", err)
}

func (s *SQLStore) DeleteReview(ctx context.Context, teacherID string, index int) (*models.Teacher, error) {
	teacher, err := s.teachers.DeleteReview(ctx, teacherID, index)
	return teacher, sqlError("delete review", err)
}

func (s *SQLStore) GetUserFavorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.favorites.ListIDs(ctx, userID)
	return ids, sqlError("load favorites", err)
}

func (s *SQLStore) SetFavorite(ctx context.Context, userID, teacherID string, present bool) error {
	if present {
		return sqlError("add to favorites", s.favorites.Add(ctx, userID, teacherID, s.now()))
	}
	return sqlError("remove from favorites", s.favorites.Remove(ctx, userID, teacherID))
}

func (s *SQLStore) ClearFavorites(ctx context.Context, userID string) error {
	return sqlError("clear favorites", s.favorites.Clear(ctx, userID))
}

func (s *SQLStore) CreateBooking(ctx context.Context, userID string, in models.BookingInput) (*models.Booking, error) {
	booking := newBooking(userID, uuid.NewString(), in, s.now())
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, sqlError("create booking", err)
	}
	return booking, nil
}

func (s *SQLStore) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	return bookings, sqlError("load bookings", err)
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	return user, sqlError("load user", err)
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	return user, sqlError("load user", err)
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	return sqlError("create user", s.users.Create(ctx, user))
}

func (s *SQLStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return sqlError("update last login", s.users.UpdateLastLogin(ctx, userID, at))
}

func (s *SQLStore) CreateSession(ctx context.Context, session *models.Session) error {
	return sqlError("create session", s.sessions.Create(ctx, session))
}

func (s *SQLStore) FindSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	return session, sqlError("load session", err)
}

func (s *SQLStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	return sqlError("revoke session", s.sessions.Revoke(ctx, id, at))
}

func (s *SQLStore) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, cutoff)
	return n, sqlError("purge sessions", err)
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return sqlError("ping database", s.db.PingContext(ctx))
}

// Close closes the database pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
