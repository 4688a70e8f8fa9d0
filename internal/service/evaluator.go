package service

import (
	"context"
	"errors"
	"strings"

	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EvaluatorService struct {
	store store.Store
	log   *zap.SugaredLogger
}

func NewEvaluatorService(s store.Store) *EvaluatorService {
	return &EvaluatorService{store: s, log: zap.S().Named("evaluator_service")}
}

// Register adds an active evaluator to the pool.
func (e *EvaluatorService) Register(ctx context.Context, name, email string) (*model.Evaluator, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, NewErrInvalidArgument("name and email are required")
	}

	evaluator, err := e.store.Evaluator().Create(ctx, model.Evaluator{
		Name:     name,
		Email:    email,
		IsActive: true,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrInvalidArgument("evaluator with email %s already exists", email)
		}
		return nil, NewErrStorage("failed to create evaluator", err)
	}

	e.log.Infow("evaluator registered", "evaluator_id", evaluator.ID)
	return evaluator, nil
}

func (e *EvaluatorService) Get(ctx context.Context, id uuid.UUID) (*model.Evaluator, error) {
	evaluator, err := e.store.Evaluator().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrEvaluatorNotFound(id)
		}
		return nil, NewErrStorage("failed to read evaluator", err)
	}
	return evaluator, nil
}

func (e *EvaluatorService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Evaluator, error) {
	evaluator, err := e.store.Evaluator().SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrEvaluatorNotFound(id)
		}
		return nil, NewErrStorage("failed to update evaluator", err)
	}

	e.log.Infow("evaluator availability changed", "evaluator_id", id, "active", active)
	return evaluator, nil
}

// Toggle flips the evaluator's active flag.
func (e *EvaluatorService) Toggle(ctx context.Context, id uuid.UUID) (*model.Evaluator, error) {
	evaluator, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.SetActive(ctx, id, !evaluator.IsActive)
}

func (e *EvaluatorService) List(ctx context.Context) (model.EvaluatorList, error) {
	evaluators, err := e.store.Evaluator().List(ctx, nil, nil)
	if err != nil {
		return nil, NewErrStorage("failed to list evaluators", err)
	}
	return evaluators, nil
}
