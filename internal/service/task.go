package service

import (
	"context"
	"errors"

	"github.com/evalportal/assessment-portal/internal/events"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitForm carries a student's review submission. Written work needs a writing type and
// either inline content or a media URL; public speaking needs the media URL.
type SubmitForm struct {
	UserID      uuid.UUID      `validate:"required"`
	Kind        model.TaskKind `validate:"required,oneof=public_speaking written_communication"`
	Title       string         `validate:"required,max=200"`
	WritingType string         `validate:"required_if=Kind written_communication,omitempty,oneof='Email' 'Essay' 'Formal Letter' 'Informal Letter' 'Blog'"`
	Content     string         `validate:"required_without=MediaURL"`
	MediaURL    string         `validate:"required_without=Content,omitempty,url"`
}

type TaskService struct {
	store    store.Store
	assigner *AssignmentService
	sweeper  *PoolSweeper
	validate *validator.Validate
	events   EventPublisher
	log      *zap.SugaredLogger
}

type TaskOption func(*TaskService)

// WithReviewEvents publishes an event for every recorded review.
func WithReviewEvents(p EventPublisher) TaskOption {
	return func(s *TaskService) {
		s.events = p
	}
}

func NewTaskService(s store.Store, assigner *AssignmentService, sweeper *PoolSweeper, opts ...TaskOption) *TaskService {
	svc := &TaskService{
		store:    s,
		assigner: assigner,
		sweeper:  sweeper,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		events:   noopPublisher{},
		log:      zap.S().Named("task_service"),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Submit stores the task in the pool and immediately tries to assign it.
func (t *TaskService) Submit(ctx context.Context, form SubmitForm) (AssignmentResult, error) {
	if err := t.validate.Struct(form); err != nil {
		return AssignmentResult{}, NewErrInvalidArgument("invalid submission: %s", err)
	}
	if form.Kind == model.PublicSpeakingKind && form.MediaURL == "" {
		return AssignmentResult{}, NewErrInvalidArgument("invalid submission: a video is required")
	}

	task, err := t.store.Task().Create(ctx, model.ReviewTask{
		Kind:        form.Kind,
		Status:      model.TaskStatusInPool,
		UserID:      form.UserID,
		Title:       form.Title,
		WritingType: form.WritingType,
		Content:     form.Content,
		MediaURL:    form.MediaURL,
	})
	if err != nil {
		return AssignmentResult{}, NewErrStorage("failed to create task", err)
	}

	t.log.Infow("task submitted", "task_id", task.ID, "kind", task.Kind, "user_id", task.UserID)

	return t.assigner.AssignSubmitted(ctx, task.ID, task.Kind)
}

// FetchUnmarked sweeps the pools and lists the evaluator's pending tasks of the kind. A failed
// sweep is logged and does not prevent the listing.
func (t *TaskService) FetchUnmarked(ctx context.Context, kind model.TaskKind, evaluatorID uuid.UUID) (model.ReviewTaskList, error) {
	if !kind.IsValid() {
		return nil, NewErrInvalidArgument("unknown task kind %q", kind)
	}

	report, err := t.sweeper.SweepAll(ctx)
	switch {
	case err != nil:
		t.log.Errorw("sweep before fetch failed", "evaluator_id", evaluatorID, "error", err)
	case report.Err != nil:
		t.log.Warnw("sweep before fetch finished with errors", "evaluator_id", evaluatorID, "error", report.Err)
	}

	tasks, err := t.store.Task().List(ctx, store.NewTaskQueryFilter().
		ByKind(kind).
		ByStatus(model.TaskStatusPending).
		ByEvaluatorID(evaluatorID), nil)
	if err != nil {
		return nil, NewErrStorage("failed to list unmarked tasks", err)
	}

	return tasks, nil
}

// SubmitFeedback records the evaluator's score and feedback and marks the task reviewed. A
// reviewed task may be reviewed again by the same evaluator.
func (t *TaskService) SubmitFeedback(ctx context.Context, kind model.TaskKind, taskID, evaluatorID uuid.UUID, score float64, feedback string) (*model.ReviewTask, error) {
	if !kind.IsValid() {
		return nil, NewErrInvalidArgument("unknown task kind %q", kind)
	}
	if feedback == "" {
		return nil, NewErrInvalidArgument("feedback is required")
	}
	if score < 0 || score > 10 {
		return nil, NewErrInvalidArgument("score must be between 0 and 10")
	}

	task, err := t.store.Task().Get(ctx, kind, taskID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTaskNotFound(taskID)
		}
		return nil, NewErrStorage("failed to read task", err)
	}

	if !task.IsAssigned() || !task.AssignedTo(evaluatorID) {
		return nil, NewErrTaskForbidden(taskID, evaluatorID)
	}

	reviewed, err := t.store.Task().SetReview(ctx, kind, taskID, score, feedback)
	if err != nil {
		return nil, NewErrStorage("failed to store feedback", err)
	}

	t.log.Infow("task reviewed", "task_id", taskID, "kind", kind, "evaluator_id", evaluatorID)
	publish(ctx, t.events, t.log, events.ReviewMessageKind, events.ReviewEvent{
		TaskID:      taskID,
		Kind:        kind.String(),
		EvaluatorID: evaluatorID,
		Score:       score,
	})
	return reviewed, nil
}

// Get returns one task of the kind with its feedback, if any.
func (t *TaskService) Get(ctx context.Context, kind model.TaskKind, taskID uuid.UUID) (*model.ReviewTask, error) {
	if !kind.IsValid() {
		return nil, NewErrInvalidArgument("unknown task kind %q", kind)
	}

	task, err := t.store.Task().Get(ctx, kind, taskID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTaskNotFound(taskID)
		}
		return nil, NewErrStorage("failed to read task", err)
	}
	return task, nil
}

// ListReviewed lists the student's reviewed tasks of the kind.
func (t *TaskService) ListReviewed(ctx context.Context, kind model.TaskKind, userID uuid.UUID) (model.ReviewTaskList, error) {
	if !kind.IsValid() {
		return nil, NewErrInvalidArgument("unknown task kind %q", kind)
	}

	tasks, err := t.store.Task().List(ctx, store.NewTaskQueryFilter().
		ByKind(kind).
		ByStatus(model.TaskStatusReviewed).
		ByUserID(userID), nil)
	if err != nil {
		return nil, NewErrStorage("failed to list reviewed tasks", err)
	}

	return tasks, nil
}
