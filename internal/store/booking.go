package store

import (
	"context"
	"errors"
	"time"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking interface {
	List(ctx context.Context, filter *BookingQueryFilter, opts *QueryOptions) (model.BookingList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	Create(ctx context.Context, booking model.Booking) (*model.Booking, error)
	Update(ctx context.Context, booking model.Booking) (*model.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindLiveConflict(ctx context.Context, evaluatorID uuid.UUID, slot model.Slot, day time.Time) (*model.Booking, error)
}

type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) Booking {
	return &BookingStore{db: db}
}

func (b *BookingStore) List(ctx context.Context, filter *BookingQueryFilter, opts *QueryOptions) (model.BookingList, error) {
	var bookings model.BookingList
	tx := (*BaseQuerier)(filter).apply(getDB(ctx, b.db))

	if opts == nil || len(opts.QueryFn) == 0 {
		tx = tx.Order("scheduled_at").Order("created_at")
	} else {
		tx = (*BaseQuerier)(opts).apply(tx)
	}

	if err := tx.Model(&bookings).Find(&bookings).Error; err != nil {
		return nil, err
	}

	return bookings, nil
}

// Get returns a live booking. Soft deleted bookings are reported as not found.
func (b *BookingStore) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking := &model.Booking{}

	if err := getDB(ctx, b.db).Where("id = ?", id.String()).First(booking).Error; err != nil {
		return nil, translateError(err)
	}

	return booking, nil
}

// Create inserts a booking. ErrDuplicateKey means a live booking already holds the same
// evaluator, slot and day.
func (b *BookingStore) Create(ctx context.Context, booking model.Booking) (*model.Booking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = model.BookingStatusScheduled
	}
	booking.ScheduledAt = model.BookingDay(booking.ScheduledAt)

	if err := getDB(ctx, b.db).Create(&booking).Error; err != nil {
		return nil, translateError(err)
	}

	return &booking, nil
}

// Update persists the mutable fields of a live booking.
func (b *BookingStore) Update(ctx context.Context, booking model.Booking) (*model.Booking, error) {
	result := getDB(ctx, b.db).Model(&model.Booking{}).
		Where("id = ?", booking.ID.String()).
		Updates(map[string]any{
			"status":         booking.Status,
			"interview_link": booking.InterviewLink,
			"score":          booking.Score,
			"feedback":       booking.Feedback,
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return b.Get(ctx, booking.ID)
}

// Delete soft deletes the booking, which releases its slot for new bookings.
func (b *BookingStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := getDB(ctx, b.db).Where("id = ?", id.String()).Delete(&model.Booking{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// FindLiveConflict returns the live booking holding (evaluator, slot, day), or nil.
func (b *BookingStore) FindLiveConflict(ctx context.Context, evaluatorID uuid.UUID, slot model.Slot, day time.Time) (*model.Booking, error) {
	booking := &model.Booking{}

	err := getDB(ctx, b.db).
		Where("evaluator_id = ? AND slot = ? AND scheduled_at = ?", evaluatorID.String(), slot, model.BookingDay(day)).
		Take(booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return booking, nil
}
