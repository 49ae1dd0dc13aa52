package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/models"
	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

func trialInput() models.BookingInput {
	return models.BookingInput{
		TeacherID:   "t1",
		TeacherName: "Jane Smith",
		StudentName: "Sam Student",
		Email:       " Sam@Example.com ",
		Phone:       "+380 67 123 4567",
		Reason:      "career",
	}
}

func TestBookingSubmitSuccess(t *testing.T) {
	store := &fakeBookingStore{}
	notifier := &recordingNotifier{}
	metrics := NewMetricsService()
	svc := NewBookingService(store, notifier, nil, metrics, nil)

	result := svc.Submit(context.Background(), student, trialInput())
	assert.Equal(t, models.Succeeded(MsgLessonBooked), result)
	require.Len(t, store.created, 1)
	assert.Equal(t, "sam@example.com", store.created[0].Email)
	assert.Equal(t, models.BookingKindTrial, store.created[0].Kind)
	require.Len(t, notifier.bookings, 1)
	assert.Equal(t, "booking-1", notifier.bookings[0].ID)
	assert.Equal(t, uint64(1), metrics.Snapshot().BookingsSubmitted)
	assert.Equal(t, uint64(1), gatewaySamples(t, metrics, "create_booking"))

	_, err := svc.List(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gatewaySamples(t, metrics, "list_bookings"))
}

func TestBookingSubmitScheduled(t *testing.T) {
	store := &fakeBookingStore{}
	svc := NewBookingService(store, nil, nil, nil, nil)
	in := trialInput()
	in.Reason = ""
	in.Date = "2025-04-01"
	in.Time = "18:30"

	result := svc.Submit(context.Background(), student, in)
	assert.True(t, result.Success)
	assert.Equal(t, models.BookingKindScheduled, store.created[0].Kind)
}

func TestBookingSubmitMalformedEmailSkipsGateway(t *testing.T) {
	store := &fakeBookingStore{}
	svc := NewBookingService(store, nil, nil, nil, nil)
	in := trialInput()
	in.Email = "not-an-email"

	result := svc.Submit(context.Background(), student, in)
	assert.False(t, result.Success)
	assert.Equal(t, "Please enter a valid email", result.Message)
	assert.Zero(t, store.calls)
}

func TestBookingSubmitValidationCases(t *testing.T) {
	cases := map[string]func(*models.BookingInput){
		"missing name":         func(in *models.BookingInput) { in.StudentName = "" },
		"bad phone":            func(in *models.BookingInput) { in.Phone = "call me" },
		"unknown reason":       func(in *models.BookingInput) { in.Reason = "fun" },
		"no reason or date":    func(in *models.BookingInput) { in.Reason = "" },
		"date without time":    func(in *models.BookingInput) { in.Reason = ""; in.Date = "2025-04-01" },
		"malformed date":       func(in *models.BookingInput) { in.Reason = ""; in.Date = "01/04/2025"; in.Time = "10:00" },
		"missing teacher name": func(in *models.BookingInput) { in.TeacherName = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := &fakeBookingStore{}
			svc := NewBookingService(store, nil, nil, nil, nil)
			in := trialInput()
			mutate(&in)

			result := svc.Submit(context.Background(), student, in)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Message)
			assert.Zero(t, store.calls)
		})
	}
}

func TestBookingSubmitRequiresUser(t *testing.T) {
	store := &fakeBookingStore{}
	svc := NewBookingService(store, nil, nil, nil, nil)

	result := svc.Submit(context.Background(), nil, trialInput())
	assert.Equal(t, models.Failed(MsgNotAuthorized), result)
	assert.Zero(t, store.calls)
}

func TestBookingSubmitGatewayFailure(t *testing.T) {
	store := &fakeBookingStore{err: &gateway.Error{Kind: gateway.KindPermission, Op: "create booking", Err: errors.New("permission denied")}}
	notifier := &recordingNotifier{}
	svc := NewBookingService(store, notifier, nil, nil, nil)

	result := svc.Submit(context.Background(), student, trialInput())
	assert.Equal(t, models.Failed("failed to create booking: permission denied"), result)
	assert.Equal(t, 1, store.calls)
	assert.Empty(t, notifier.bookings)
}

func TestBookingList(t *testing.T) {
	store := &fakeBookingStore{}
	svc := NewBookingService(store, nil, nil, nil, nil)

	bookings, err := svc.List(context.Background(), student)
	require.NoError(t, err)
	assert.NotNil(t, bookings)

	_, err = svc.List(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestBookingExportCSV(t *testing.T) {
	date, at := "2025-04-01", "18:30"
	store := &fakeBookingStore{bookings: []models.Booking{{
		ID: "b1", TeacherName: "Jane Smith", StudentName: "Sam", Email: "sam@example.com", Phone: "+380671234567",
		Kind: models.BookingKindScheduled, Date: &date, Time: &at, Status: models.BookingPending,
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}}}
	svc := NewBookingService(store, nil, nil, nil, nil)

	doc, err := svc.Export(context.Background(), student, "csv")
	require.NoError(t, err)
	assert.Equal(t, "learnlingo-bookings.csv", doc.Filename)
	assert.Contains(t, string(doc.Body), "2025-03-01 09:00,Jane Smith,scheduled,,2025-04-01 18:30,Sam,sam@example.com,+380671234567,pending")
}

func TestBookingExportRejectsUnknownFormat(t *testing.T) {
	svc := NewBookingService(&fakeBookingStore{}, nil, nil, nil, nil)

	_, err := svc.Export(context.Background(), student, "docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(context.Background(), nil, "csv")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
