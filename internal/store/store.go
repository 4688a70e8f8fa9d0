package store

import (
	"context"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Evaluator() Evaluator
	Task() Task
	Booking() Booking
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db        *gorm.DB
	evaluator Evaluator
	task      Task
	booking   Booking
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		evaluator: NewEvaluatorStore(db),
		task:      NewTaskStore(db),
		booking:   NewBookingStore(db),
		db:        db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Evaluator() Evaluator {
	return s.evaluator
}

func (s *DataStore) Task() Task {
	return s.task
}

func (s *DataStore) Booking() Booking {
	return s.booking
}

// InitialMigration creates the schema with gorm's auto migration. Deployments backed by
// postgres use the goose migrations instead; this is meant for sqlite and tests.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Evaluator{},
		&model.EvaluatorAssignment{},
		&model.ReviewTask{},
		&model.Booking{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
