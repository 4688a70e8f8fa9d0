package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrTaskNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "task")
}

func NewErrEvaluatorNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "evaluator")
}

func NewErrBookingNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "booking")
}

type ErrInvalidArgument struct {
	error
}

func NewErrInvalidArgument(format string, args ...any) *ErrInvalidArgument {
	return &ErrInvalidArgument{fmt.Errorf(format, args...)}
}

type ErrForbidden struct {
	error
}

func NewErrBookingForbidden(bookingID, evaluatorID uuid.UUID) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("evaluator %s is not assigned to booking %s", evaluatorID, bookingID)}
}

func NewErrTaskForbidden(taskID, evaluatorID uuid.UUID) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("evaluator %s is not assigned to task %s", evaluatorID, taskID)}
}

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(id uuid.UUID, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("booking %s cannot move from %s to %s", id, from, to)}
}

// ErrStorage wraps a failure of the underlying store. The cause stays reachable through
// errors.Is and errors.As.
type ErrStorage struct {
	error
}

func NewErrStorage(op string, cause error) *ErrStorage {
	return &ErrStorage{fmt.Errorf("%s: %w", op, cause)}
}

func (e *ErrStorage) Unwrap() error {
	return e.error
}
