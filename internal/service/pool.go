package service

import (
	"context"

	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/evalportal/assessment-portal/pkg/metrics"
)

// EvaluatorPool is the read side of the evaluator registry used by assignment and booking.
type EvaluatorPool interface {
	// ListActive returns the active evaluators ordered by creation time then id.
	ListActive(ctx context.Context) (model.EvaluatorList, error)
}

type storePool struct {
	store store.Store
}

func NewEvaluatorPool(s store.Store) EvaluatorPool {
	return &storePool{store: s}
}

func (p *storePool) ListActive(ctx context.Context) (model.EvaluatorList, error) {
	evaluators, err := p.store.Evaluator().List(
		ctx,
		store.NewEvaluatorQueryFilter().ByActive(true),
		store.NewQueryOptions().WithSortOrder(store.SortByCreatedTime),
	)
	if err != nil {
		return nil, NewErrStorage("failed to list active evaluators", err)
	}

	metrics.UpdateActiveEvaluatorsMetric(len(evaluators))
	return evaluators, nil
}
