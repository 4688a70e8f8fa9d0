package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusReviewed  BookingStatus = "reviewed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusScheduled: {BookingStatusConfirmed, BookingStatusReviewed},
	BookingStatusConfirmed: {BookingStatusConfirmed, BookingStatusReviewed},
	BookingStatusReviewed:  {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is an interview-practice reservation. At most one live booking may exist per
// (evaluator, slot, day); soft-deleted rows are excluded from the unique index.
type Booking struct {
	ID            uuid.UUID      `json:"id" gorm:"primaryKey;type:VARCHAR(36);"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	UserID        uuid.UUID      `json:"user_id" gorm:"not null;type:VARCHAR(36);index"`
	EvaluatorID   uuid.UUID      `json:"evaluator_id" gorm:"not null;type:VARCHAR(36);uniqueIndex:bookings_live_slot_idx,where:deleted_at IS NULL"`
	Slot          Slot           `json:"slot" gorm:"not null;type:VARCHAR(32);uniqueIndex:bookings_live_slot_idx,where:deleted_at IS NULL"`
	ScheduledAt   time.Time      `json:"scheduled_at" gorm:"not null;uniqueIndex:bookings_live_slot_idx,where:deleted_at IS NULL"`
	Status        BookingStatus  `json:"status" gorm:"not null;type:VARCHAR(20);default:scheduled"`
	InterviewLink string         `json:"interview_link,omitempty"`
	Score         *float64       `json:"score,omitempty"`
	Feedback      string         `json:"feedback,omitempty" gorm:"type:TEXT"`
}

type BookingList []Booking

func (b Booking) String() string {
	val, _ := json.Marshal(b)
	return string(val)
}
