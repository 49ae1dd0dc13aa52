package gateway

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

func newSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewSQLStore(sqlx.NewDb(db, "sqlmock"))
	store.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestSQLStoreSetFavoriteDispatches(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_favorites").WithArgs("u1", "t1", store.now()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET last_login").WithArgs("u1", store.now()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_favorites WHERE user_id = $1 AND teacher_id = $2")).
		WithArgs("u1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetFavorite(context.Background(), "u1", "t1", true))
	require.NoError(t, store.SetFavorite(context.Background(), "u1", "t1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreWrapsFailures(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectQuery("SELECT teacher_id FROM user_favorites").WillReturnError(errors.New("connection refused"))
	_, err := store.GetUserFavorites(context.Background(), "u1")

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, KindTransport, gwErr.Kind)
	assert.Equal(t, "load favorites", gwErr.Op)

	mock.ExpectQuery("FROM teachers WHERE id = \\$1").WillReturnError(sql.ErrNoRows)
	_, err = store.GetTeacher(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestSQLStoreCreateBooking(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE users SET last_login").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := store.CreateBooking(context.Background(), "u1", models.BookingInput{
		TeacherID: "t1", TeacherName: "Jane Smith", StudentName: "Sam",
		Email: "sam@example.com", Phone: "+380671234567", Date: "2026-11-02", Time: "18:30",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.BookingKindScheduled, booking.Kind)
	assert.Nil(t, booking.Reason)
	require.NotNil(t, booking.Time)
	assert.Equal(t, "18:30", *booking.Time)
	assert.Equal(t, store.now(), booking.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
