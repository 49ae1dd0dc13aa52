package gateway

import (
	"context"
	"errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/noah-isme/learnlingo-api/internal/catalog"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

// Firestore collection layout.
const (
	teachersCollection = "teachers"
	usersCollection    = "users"
	bookingsCollection = "bookings"
	sessionsCollection = "sessions"
	favoritesField     = "favorites"
	lastLoginField     = "lastLogin"
)

// FirestoreStore is the document-store backend. Favorites live inline on the
// user document as a map of teacher id to true; bookings are a subcollection
// of the user.
type FirestoreStore struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, now: func() time.Time { return time.Now().UTC() }}
}

var _ Store = (*FirestoreStore)(nil)

func (s *FirestoreStore) users() *firestore.CollectionRef {
	return s.client.Collection(usersCollection)
}

func (s *FirestoreStore) GetTeachers(ctx context.Context) ([]models.Teacher, error) {
	iter := s.client.Collection(teachersCollection).Documents(ctx)
	defer iter.Stop()

	teachers := []models.Teacher{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoreError("load teachers", err)
		}
		teacher, err := teacherFromSnapshot(snap)
		if err != nil {
			return nil, firestoreError("load teachers", err)
		}
		teachers = append(teachers, *teacher)
	}
	return teachers, nil
}

func (s *FirestoreStore) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	snap, err := s.client.Collection(teachersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("load teacher", err)
	}
	teacher, err := teacherFromSnapshot(snap)
	return teacher, firestoreError("load teacher", err)
}

func (s *FirestoreStore) AddReview(ctx context.Context, teacherID string, review models.Review) (*models.Teacher, error) {
	return s.updateReviews(ctx, "add review", teacherID, func(reviews []models.Review) ([]models.Review, error) {
		return append(reviews, review), nil
	})
}

func (s *FirestoreStore) DeleteReview(ctx context.Context, teacherID string, index int) (*models.Teacher, error) {
	return s.updateReviews(ctx, "delete review", teacherID, func(reviews []models.Review) ([]models.Review, error) {
		if index < 0 || index >= len(reviews) {
			return nil, NotFound("delete review")
		}
		return append(reviews[:index:index], reviews[index+1:]...), nil
	})
}

func (s *FirestoreStore) updateReviews(ctx context.Context, op, teacherID string, edit func([]models.Review) ([]models.Review, error)) (*models.Teacher, error) {
	ref := s.client.Collection(teachersCollection).Doc(teacherID)
	var updated *models.Teacher
	err := s.client.RunTransaction(ctx, func(ctx context.Context, txn *firestore.Transaction) error {
		snap, err := txn.Get(ref)
		if err != nil {
			return err
		}
		teacher, err := teacherFromSnapshot(snap)
		if err != nil {
			return err
		}
		reviews, err := edit(teacher.Reviews)
		if err != nil {
			return err
		}
		teacher.Reviews = reviews
		teacher.Rating = catalog.AverageRating(reviews)
		updated = teacher
		return txn.Update(ref, []firestore.Update{
			{Path: "reviews", Value: reviews},
			{Path: "rating", Value: teacher.Rating},
		})
	})
	if err != nil {
		return nil, firestoreError(op, err)
	}
	return updated, nil
}

func (s *FirestoreStore) GetUserFavorites(ctx context.Context, userID string) ([]string, error) {
	snap, err := s.users().Doc(userID).Get(ctx)
	if err != nil {
		return nil, firestoreError("load favorites", err)
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, firestoreError("load favorites", err)
	}
	ids := make([]string, 0, len(user.Favorites))
	for id, present := range user.Favorites {
		if present {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FirestoreStore) SetFavorite(ctx context.Context, userID, teacherID string, present bool) error {
	ref := s.users().Doc(userID)
	if present {
		_, err := ref.Update(ctx, []firestore.Update{
			{FieldPath: firestore.FieldPath{favoritesField, teacherID}, Value: true},
			{Path: lastLoginField, Value: s.now()},
		})
		return firestoreError("add to favorites", err)
	}
	_, err := ref.Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{favoritesField, teacherID}, Value: firestore.Delete},
	})
	return firestoreError("remove from favorites", err)
}

func (s *FirestoreStore) ClearFavorites(ctx context.Context, userID string) error {
	_, err := s.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: favoritesField, Value: map[string]bool{}},
	})
	return firestoreError("clear favorites", err)
}

func (s *FirestoreStore) CreateBooking(ctx context.Context, userID string, in models.BookingInput) (*models.Booking, error) {
	userRef := s.users().Doc(userID)
	booking := newBooking(userID, uuid.NewString(), in, s.now())
	batch := s.client.Batch()
	batch.Set(userRef.Collection(bookingsCollection).Doc(booking.ID), booking)
	batch.Update(userRef, []firestore.Update{{Path: lastLoginField, Value: booking.CreatedAt}})
	if _, err := batch.Commit(ctx); err != nil {
		return nil, firestoreError("create booking", err)
	}
	return booking, nil
}

func (s *FirestoreStore) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	iter := s.users().Doc(userID).Collection(bookingsCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	bookings := []models.Booking{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoreError("load bookings", err)
		}
		var booking models.Booking
		if err := snap.DataTo(&booking); err != nil {
			return nil, firestoreError("load bookings", err)
		}
		booking.UserID = userID
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (s *FirestoreStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("load user", err)
	}
	return userFromSnapshot(snap)
}

func (s *FirestoreStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := s.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, NotFound("load user")
	}
	if err != nil {
		return nil, firestoreError("load user", err)
	}
	return userFromSnapshot(snap)
}

func (s *FirestoreStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Provider == "" {
		user.Provider = models.ProviderPassword
	}
	if user.Favorites == nil {
		user.Favorites = map[string]bool{}
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastLogin.IsZero() {
		user.LastLogin = user.CreatedAt
	}
	_, err := s.users().Doc(user.ID).Create(ctx, user)
	return firestoreError("create user", err)
}

func (s *FirestoreStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.users().Doc(userID).Update(ctx, []firestore.Update{{Path: lastLoginField, Value: at}})
	return firestoreError("update last login", err)
}

func (s *FirestoreStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	_, err := s.client.Collection(sessionsCollection).Doc(session.ID).Create(ctx, session)
	return firestoreError("create session", err)
}

func (s *FirestoreStore) FindSession(ctx context.Context, id string) (*models.Session, error) {
	snap, err := s.client.Collection(sessionsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("load session", err)
	}
	var session models.Session
	if err := snap.DataTo(&session); err != nil {
		return nil, firestoreError("load session", err)
	}
	session.ID = snap.Ref.ID
	return &session, nil
}

func (s *FirestoreStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.client.Collection(sessionsCollection).Doc(id).Update(ctx, []firestore.Update{{Path: "revokedAt", Value: at}})
	if IsNotFound(firestoreError("revoke session", err)) {
		return nil
	}
	return firestoreError("revoke session", err)
}

func (s *FirestoreStore) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	iter := s.client.Collection(sessionsCollection).Where("expiresAt", "<", cutoff).Documents(ctx)
	defer iter.Stop()

	var purged int64
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return purged, firestoreError("purge sessions", err)
		}
		if _, err := snap.Ref.Delete(ctx, firestore.LastUpdateTime(snap.UpdateTime)); err != nil {
			return purged, firestoreError("purge sessions", err)
		}
		purged++
	}
	return purged, nil
}

// Ping reads a single teacher document to verify connectivity.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(teachersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return firestoreError("ping firestore", err)
	}
	return nil
}

// Close releases the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func teacherFromSnapshot(snap *firestore.DocumentSnapshot) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := snap.DataTo(&teacher); err != nil {
		return nil, err
	}
	teacher.ID = snap.Ref.ID
	if teacher.Reviews == nil {
		teacher.Reviews = []models.Review{}
	}
	return &teacher, nil
}

func userFromSnapshot(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, firestoreError("load user", err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}
