package store

import (
	"time"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b *BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	if b == nil {
		return tx
	}
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

func sortBy(tx *gorm.DB, sort SortOrder) *gorm.DB {
	switch sort {
	case SortByID:
		return tx.Order("id")
	case SortByUpdatedTime:
		return tx.Order("updated_at").Order("id")
	case SortByCreatedTime:
		return tx.Order("created_at").Order("id")
	default:
		return tx
	}
}

type QueryOptions BaseQuerier

func NewQueryOptions() *QueryOptions {
	return &QueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *QueryOptions) WithSortOrder(sort SortOrder) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return sortBy(tx, sort)
	})
	return o
}

func (o *QueryOptions) WithLimit(limit int) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

type EvaluatorQueryFilter BaseQuerier

func NewEvaluatorQueryFilter() *EvaluatorQueryFilter {
	return &EvaluatorQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *EvaluatorQueryFilter) ByActive(active bool) *EvaluatorQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_active = ?", active)
	})
	return f
}

func (f *EvaluatorQueryFilter) ByEmail(email string) *EvaluatorQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("email = ?", email)
	})
	return f
}

type TaskQueryFilter BaseQuerier

func NewTaskQueryFilter() *TaskQueryFilter {
	return &TaskQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *TaskQueryFilter) ByKind(kind model.TaskKind) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("kind = ?", kind)
	})
	return f
}

func (f *TaskQueryFilter) ByStatus(statuses ...model.TaskStatus) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return f
}

func (f *TaskQueryFilter) ByEvaluatorID(id uuid.UUID) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("evaluator_id = ?", id.String())
	})
	return f
}

func (f *TaskQueryFilter) ByUserID(id uuid.UUID) *TaskQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", id.String())
	})
	return f
}

type BookingQueryFilter BaseQuerier

func NewBookingQueryFilter() *BookingQueryFilter {
	return &BookingQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *BookingQueryFilter) ByUserID(id uuid.UUID) *BookingQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", id.String())
	})
	return f
}

func (f *BookingQueryFilter) ByEvaluatorID(id uuid.UUID) *BookingQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("evaluator_id = ?", id.String())
	})
	return f
}

func (f *BookingQueryFilter) ByStatus(statuses ...model.BookingStatus) *BookingQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return f
}

func (f *BookingQueryFilter) ByDay(day time.Time) *BookingQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("scheduled_at = ?", model.BookingDay(day))
	})
	return f
}
