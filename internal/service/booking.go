package service

import (
	"context"
	"errors"
	"time"

	"github.com/evalportal/assessment-portal/internal/events"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/evalportal/assessment-portal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingResult is the outcome of a slot request. Booking is nil when every active evaluator
// is already taken for the slot.
type BookingResult struct {
	Booking *model.Booking
}

func (r BookingResult) NoCapacity() bool {
	return r.Booking == nil
}

type BookingService struct {
	store  store.Store
	pool   EvaluatorPool
	events EventPublisher
	log    *zap.SugaredLogger
}

type BookingOption func(*BookingService)

// WithBookingEvents publishes an event for every booking state change.
func WithBookingEvents(p EventPublisher) BookingOption {
	return func(s *BookingService) {
		s.events = p
	}
}

func NewBookingService(s store.Store, pool EvaluatorPool, opts ...BookingOption) *BookingService {
	svc := &BookingService{
		store:  s,
		pool:   pool,
		events: noopPublisher{},
		log:    zap.S().Named("booking_service"),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

func bookingEvent(b model.Booking) events.BookingEvent {
	return events.BookingEvent{
		BookingID:   b.ID,
		EvaluatorID: b.EvaluatorID,
		Slot:        b.Slot.String(),
		Day:         b.ScheduledAt,
		Status:      string(b.Status),
	}
}

// BookSlot reserves the slot on the requested day with the first active evaluator, in pool
// order, who is free. Losing a race on an evaluator moves on to the next one.
func (b *BookingService) BookSlot(ctx context.Context, userID uuid.UUID, slotLabel string, date time.Time) (BookingResult, error) {
	slot, err := model.ParseSlot(slotLabel)
	if err != nil {
		return BookingResult{}, NewErrInvalidArgument("invalid slot: %s", slotLabel)
	}
	if date.IsZero() {
		return BookingResult{}, NewErrInvalidArgument("date is required")
	}
	day := model.BookingDay(date)

	evaluators, err := b.pool.ListActive(ctx)
	if err != nil {
		metrics.IncreaseBookingsTotalMetric(metrics.OutcomeFailed)
		return BookingResult{}, err
	}

	for _, evaluator := range evaluators {
		conflict, err := b.store.Booking().FindLiveConflict(ctx, evaluator.ID, slot, day)
		if err != nil {
			metrics.IncreaseBookingsTotalMetric(metrics.OutcomeFailed)
			return BookingResult{}, NewErrStorage("failed to check slot availability", err)
		}
		if conflict != nil {
			continue
		}

		booking, err := b.store.Booking().Create(ctx, model.Booking{
			UserID:      userID,
			EvaluatorID: evaluator.ID,
			Slot:        slot,
			ScheduledAt: day,
			Status:      model.BookingStatusScheduled,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				metrics.IncreaseBookingsTotalMetric(metrics.OutcomeRetried)
				b.log.Debugw("slot taken concurrently, trying next evaluator", "evaluator_id", evaluator.ID, "slot", slot, "day", day)
				continue
			}
			metrics.IncreaseBookingsTotalMetric(metrics.OutcomeFailed)
			return BookingResult{}, NewErrStorage("failed to create booking", err)
		}

		metrics.IncreaseBookingsTotalMetric(metrics.OutcomeBooked)
		b.log.Infow("slot booked", "booking_id", booking.ID, "user_id", userID, "evaluator_id", evaluator.ID, "slot", slot, "day", day)
		publish(ctx, b.events, b.log, events.BookingMessageKind, bookingEvent(*booking))
		return BookingResult{Booking: booking}, nil
	}

	metrics.IncreaseBookingsTotalMetric(metrics.OutcomeNoCapacity)
	b.log.Infow("no evaluator available for slot", "user_id", userID, "slot", slot, "day", day)
	return BookingResult{}, nil
}

func (b *BookingService) Confirm(ctx context.Context, bookingID, evaluatorID uuid.UUID, link string) (*model.Booking, error) {
	booking, err := b.ownedBooking(ctx, bookingID, evaluatorID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusConfirmed) {
		return nil, NewErrInvalidTransition(bookingID, string(booking.Status), string(model.BookingStatusConfirmed))
	}

	booking.Status = model.BookingStatusConfirmed
	booking.InterviewLink = link

	return b.update(ctx, *booking)
}

func (b *BookingService) Review(ctx context.Context, bookingID, evaluatorID uuid.UUID, score float64, feedback string) (*model.Booking, error) {
	if score < 0 || score > 10 {
		return nil, NewErrInvalidArgument("score must be between 0 and 10")
	}

	booking, err := b.ownedBooking(ctx, bookingID, evaluatorID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusReviewed) {
		return nil, NewErrInvalidTransition(bookingID, string(booking.Status), string(model.BookingStatusReviewed))
	}

	booking.Status = model.BookingStatusReviewed
	booking.Score = &score
	booking.Feedback = feedback

	return b.update(ctx, *booking)
}

// Delete cancels a booking in any state and frees its slot.
func (b *BookingService) Delete(ctx context.Context, bookingID uuid.UUID) error {
	if err := b.store.Booking().Delete(ctx, bookingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrBookingNotFound(bookingID)
		}
		return NewErrStorage("failed to delete booking", err)
	}

	b.log.Infow("booking deleted", "booking_id", bookingID)
	publish(ctx, b.events, b.log, events.BookingMessageKind, events.BookingEvent{BookingID: bookingID, Status: "deleted"})
	return nil
}

func (b *BookingService) Get(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := b.store.Booking().Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrBookingNotFound(bookingID)
		}
		return nil, NewErrStorage("failed to read booking", err)
	}
	return booking, nil
}

func (b *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) (model.BookingList, error) {
	bookings, err := b.store.Booking().List(ctx, store.NewBookingQueryFilter().ByUserID(userID), nil)
	if err != nil {
		return nil, NewErrStorage("failed to list bookings", err)
	}
	return bookings, nil
}

// ListForEvaluator lists the evaluator's bookings, restricted to statuses when any are given.
func (b *BookingService) ListForEvaluator(ctx context.Context, evaluatorID uuid.UUID, statuses ...model.BookingStatus) (model.BookingList, error) {
	filter := store.NewBookingQueryFilter().ByEvaluatorID(evaluatorID)
	if len(statuses) > 0 {
		filter = filter.ByStatus(statuses...)
	}

	bookings, err := b.store.Booking().List(ctx, filter, nil)
	if err != nil {
		return nil, NewErrStorage("failed to list bookings", err)
	}
	return bookings, nil
}

func (b *BookingService) ownedBooking(ctx context.Context, bookingID, evaluatorID uuid.UUID) (*model.Booking, error) {
	booking, err := b.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.EvaluatorID != evaluatorID {
		return nil, NewErrBookingForbidden(bookingID, evaluatorID)
	}
	return booking, nil
}

func (b *BookingService) update(ctx context.Context, booking model.Booking) (*model.Booking, error) {
	updated, err := b.store.Booking().Update(ctx, booking)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrBookingNotFound(booking.ID)
		}
		return nil, NewErrStorage("failed to update booking", err)
	}
	publish(ctx, b.events, b.log, events.BookingMessageKind, bookingEvent(*updated))
	return updated, nil
}
