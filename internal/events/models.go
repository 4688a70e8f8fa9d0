package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssignmentMessageKind string = "portal.events.assignment"
	ReviewMessageKind     string = "portal.events.review"
	BookingMessageKind    string = "portal.events.booking"
)

// AssignmentEvent reports where a task ended up after an assignment attempt. EvaluatorID is
// nil when the task was left in the pool.
type AssignmentEvent struct {
	TaskID      uuid.UUID  `json:"task_id"`
	Kind        string     `json:"kind"`
	EvaluatorID *uuid.UUID `json:"evaluator_id,omitempty"`
	Outcome     string     `json:"outcome"`
}

type ReviewEvent struct {
	TaskID      uuid.UUID `json:"task_id"`
	Kind        string    `json:"kind"`
	EvaluatorID uuid.UUID `json:"evaluator_id"`
	Score       float64   `json:"score"`
}

type BookingEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	EvaluatorID uuid.UUID `json:"evaluator_id"`
	Slot        string    `json:"slot"`
	Day         time.Time `json:"day"`
	Status      string    `json:"status"`
}
