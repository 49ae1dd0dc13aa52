package models

import "time"

// BookingStatus is owned by back-office tooling; clients only create pending bookings.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking variants.
const (
	BookingKindTrial     = "trial"
	BookingKindScheduled = "scheduled"
)

// BookingReasons lists the accepted trial-lesson motivations.
var BookingReasons = []string{"career", "kids", "abroad", "exams", "hobby"}

// BookingInput is the trial-lesson request submitted by a student. A trial
// booking carries a reason; a scheduled booking carries a date and time.
type BookingInput struct {
	TeacherID   string `json:"teacherId" validate:"required"`
	TeacherName string `json:"teacherName" validate:"required,max=200"`
	StudentName string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,phone"`
	Reason      string `json:"reason,omitempty" validate:"required_without=Date,omitempty,oneof=career kids abroad exams hobby"`
	Date        string `json:"date,omitempty" validate:"required_without=Reason,omitempty,datetime=2006-01-02"`
	Time        string `json:"time,omitempty" validate:"required_with=Date,omitempty,datetime=15:04"`
}

// Kind reports which booking variant the input describes.
func (in BookingInput) Kind() string {
	if in.Date != "" {
		return BookingKindScheduled
	}
	return BookingKindTrial
}

// Booking is a persisted trial-lesson request.
type Booking struct {
	ID          string        `json:"id" db:"id" firestore:"id"`
	UserID      string        `json:"userId" db:"user_id" firestore:"-"`
	TeacherID   string        `json:"teacherId" db:"teacher_id" firestore:"teacherId"`
	TeacherName string        `json:"teacherName" db:"teacher_name" firestore:"teacherName"`
	StudentName string        `json:"studentName" db:"student_name" firestore:"studentName"`
	Email       string        `json:"email" db:"email" firestore:"email"`
	Phone       string        `json:"phone" db:"phone" firestore:"phone"`
	Kind        string        `json:"kind" db:"kind" firestore:"kind"`
	Reason      *string       `json:"reason,omitempty" db:"reason" firestore:"reason,omitempty"`
	Date        *string       `json:"date,omitempty" db:"lesson_date" firestore:"date,omitempty"`
	Time        *string       `json:"time,omitempty" db:"lesson_time" firestore:"time,omitempty"`
	Status      BookingStatus `json:"status" db:"status" firestore:"status"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at" firestore:"createdAt"`
}
