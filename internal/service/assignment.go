package service

import (
	"context"
	"errors"
	"math/rand"

	"github.com/evalportal/assessment-portal/internal/events"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/evalportal/assessment-portal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Picker returns an index in [0, n). n is always positive.
type Picker func(n int) int

// AssignmentResult is the outcome of an assignment attempt. Evaluator is nil when the task
// was left in the pool because nobody was active.
type AssignmentResult struct {
	Task      model.ReviewTask
	Evaluator *model.Evaluator
}

func (r AssignmentResult) NoCapacity() bool {
	return r.Evaluator == nil
}

type AssignmentService struct {
	store  store.Store
	pool   EvaluatorPool
	picker Picker
	events EventPublisher
	log    *zap.SugaredLogger
}

type AssignmentOption func(*AssignmentService)

// WithAssignmentEvents publishes an event for every assigned or pooled task.
func WithAssignmentEvents(p EventPublisher) AssignmentOption {
	return func(s *AssignmentService) {
		s.events = p
	}
}

// WithPicker replaces the uniform random choice of evaluator.
func WithPicker(p Picker) AssignmentOption {
	return func(s *AssignmentService) {
		s.picker = p
	}
}

func NewAssignmentService(s store.Store, pool EvaluatorPool, opts ...AssignmentOption) *AssignmentService {
	svc := &AssignmentService{
		store:  s,
		pool:   pool,
		picker: rand.Intn,
		events: noopPublisher{},
		log:    zap.S().Named("assignment_service"),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Assign binds the task to one randomly chosen active evaluator. A task that is already bound
// is returned as is. With no active evaluator the task is parked in the pool and the result
// reports NoCapacity; that is not an error.
func (a *AssignmentService) Assign(ctx context.Context, taskID uuid.UUID, kind model.TaskKind) (AssignmentResult, error) {
	return a.assign(ctx, taskID, kind, false)
}

// AssignSubmitted is Assign for a task that was just created in the pool. Parking it counts
// as a pooled outcome even though its status does not change.
func (a *AssignmentService) AssignSubmitted(ctx context.Context, taskID uuid.UUID, kind model.TaskKind) (AssignmentResult, error) {
	return a.assign(ctx, taskID, kind, true)
}

func (a *AssignmentService) assign(ctx context.Context, taskID uuid.UUID, kind model.TaskKind, submitted bool) (AssignmentResult, error) {
	if !kind.IsValid() {
		return AssignmentResult{}, NewErrInvalidArgument("unknown task kind %q", kind)
	}

	task, err := a.getTask(ctx, kind, taskID)
	if err != nil {
		return AssignmentResult{}, err
	}

	if task.IsAssigned() {
		return a.currentBinding(ctx, *task)
	}

	evaluators, err := a.pool.ListActive(ctx)
	if err != nil {
		metrics.IncreaseAssignmentsTotalMetric(kind.String(), metrics.OutcomeFailed)
		return AssignmentResult{}, err
	}

	if len(evaluators) == 0 {
		return a.park(ctx, *task, submitted)
	}

	chosen := evaluators[a.picker(len(evaluators))]

	bound, err := a.bind(ctx, *task, chosen)
	if err != nil {
		if errors.Is(err, store.ErrStaleRecord) {
			// another assigner won the race, report its binding
			a.log.Debugw("task bound concurrently", "task_id", taskID, "kind", kind)
			task, err := a.getTask(ctx, kind, taskID)
			if err != nil {
				return AssignmentResult{}, err
			}
			return a.currentBinding(ctx, *task)
		}
		metrics.IncreaseAssignmentsTotalMetric(kind.String(), metrics.OutcomeFailed)
		return AssignmentResult{}, NewErrStorage("failed to assign task", err)
	}

	metrics.IncreaseAssignmentsTotalMetric(kind.String(), metrics.OutcomeAssigned)
	a.log.Infow("task assigned", "task_id", taskID, "kind", kind, "evaluator_id", chosen.ID)
	publish(ctx, a.events, a.log, events.AssignmentMessageKind, events.AssignmentEvent{
		TaskID:      taskID,
		Kind:        kind.String(),
		EvaluatorID: &chosen.ID,
		Outcome:     metrics.OutcomeAssigned,
	})

	return AssignmentResult{Task: *bound, Evaluator: &chosen}, nil
}

// bind moves the task out of the pool and appends it to the evaluator's list in one
// transaction.
func (a *AssignmentService) bind(ctx context.Context, task model.ReviewTask, evaluator model.Evaluator) (*model.ReviewTask, error) {
	var bound *model.ReviewTask

	err := store.WithTransaction(ctx, a.store, func(ctx context.Context) error {
		var err error
		bound, err = a.store.Task().SetAssignment(ctx, task.Kind, task.ID, &evaluator.ID, model.TaskStatusPending, model.TaskStatusInPool)
		if err != nil {
			return err
		}
		return a.store.Evaluator().AppendAssignedTask(ctx, evaluator.ID, task.ID, task.Kind)
	})
	if err != nil {
		return nil, err
	}

	return bound, nil
}

func (a *AssignmentService) park(ctx context.Context, task model.ReviewTask, submitted bool) (AssignmentResult, error) {
	if task.Status == model.TaskStatusInPool && task.EvaluatorID == nil {
		if submitted {
			a.reportPooled(ctx, task)
		}
		return AssignmentResult{Task: task}, nil
	}

	parked, err := a.store.Task().SetAssignment(ctx, task.Kind, task.ID, nil, model.TaskStatusInPool, task.Status)
	if err != nil {
		if errors.Is(err, store.ErrStaleRecord) {
			current, err := a.getTask(ctx, task.Kind, task.ID)
			if err != nil {
				return AssignmentResult{}, err
			}
			return a.currentBinding(ctx, *current)
		}
		return AssignmentResult{}, NewErrStorage("failed to pool task", err)
	}

	a.reportPooled(ctx, *parked)
	return AssignmentResult{Task: *parked}, nil
}

// reportPooled records a task entering the pool. Tasks that stay pooled across sweeps are
// reported once.
func (a *AssignmentService) reportPooled(ctx context.Context, task model.ReviewTask) {
	metrics.IncreaseAssignmentsTotalMetric(task.Kind.String(), metrics.OutcomePooled)
	a.log.Infow("no active evaluator, task left in pool", "task_id", task.ID, "kind", task.Kind)
	publish(ctx, a.events, a.log, events.AssignmentMessageKind, events.AssignmentEvent{
		TaskID:  task.ID,
		Kind:    task.Kind.String(),
		Outcome: metrics.OutcomePooled,
	})
}

func (a *AssignmentService) currentBinding(ctx context.Context, task model.ReviewTask) (AssignmentResult, error) {
	if !task.IsAssigned() {
		return AssignmentResult{Task: task}, nil
	}

	evaluator, err := a.store.Evaluator().Get(ctx, *task.EvaluatorID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return AssignmentResult{}, NewErrEvaluatorNotFound(*task.EvaluatorID)
		}
		return AssignmentResult{}, NewErrStorage("failed to read evaluator", err)
	}

	return AssignmentResult{Task: task, Evaluator: evaluator}, nil
}

func (a *AssignmentService) getTask(ctx context.Context, kind model.TaskKind, id uuid.UUID) (*model.ReviewTask, error) {
	task, err := a.store.Task().Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTaskNotFound(id)
		}
		return nil, NewErrStorage("failed to read task", err)
	}
	return task, nil
}
