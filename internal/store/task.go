package store

import (
	"context"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task interface {
	List(ctx context.Context, filter *TaskQueryFilter, opts *QueryOptions) (model.ReviewTaskList, error)
	Get(ctx context.Context, kind model.TaskKind, id uuid.UUID) (*model.ReviewTask, error)
	Create(ctx context.Context, task model.ReviewTask) (*model.ReviewTask, error)
	SetAssignment(ctx context.Context, kind model.TaskKind, id uuid.UUID, evaluatorID *uuid.UUID, status, expected model.TaskStatus) (*model.ReviewTask, error)
	SetReview(ctx context.Context, kind model.TaskKind, id uuid.UUID, score float64, feedback string) (*model.ReviewTask, error)
}

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) Task {
	return &TaskStore{db: db}
}

// List lists review tasks, oldest first unless opts say otherwise.
func (t *TaskStore) List(ctx context.Context, filter *TaskQueryFilter, opts *QueryOptions) (model.ReviewTaskList, error) {
	var tasks model.ReviewTaskList
	tx := (*BaseQuerier)(filter).apply(getDB(ctx, t.db))

	if opts == nil || len(opts.QueryFn) == 0 {
		tx = sortBy(tx, SortByCreatedTime)
	} else {
		tx = (*BaseQuerier)(opts).apply(tx)
	}

	if err := tx.Model(&tasks).Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (t *TaskStore) Get(ctx context.Context, kind model.TaskKind, id uuid.UUID) (*model.ReviewTask, error) {
	task := &model.ReviewTask{}

	if err := getDB(ctx, t.db).Where("id = ? AND kind = ?", id.String(), kind).First(task).Error; err != nil {
		return nil, translateError(err)
	}

	return task, nil
}

func (t *TaskStore) Create(ctx context.Context, task model.ReviewTask) (*model.ReviewTask, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	if err := getDB(ctx, t.db).Create(&task).Error; err != nil {
		return nil, translateError(err)
	}

	return &task, nil
}

// SetAssignment moves the task to status and binds it to evaluatorID, provided the stored
// status still equals expected. ErrStaleRecord is returned when another writer got there
// first; ErrRecordNotFound when the task does not exist at all.
func (t *TaskStore) SetAssignment(ctx context.Context, kind model.TaskKind, id uuid.UUID, evaluatorID *uuid.UUID, status, expected model.TaskStatus) (*model.ReviewTask, error) {
	var evaluator any
	if evaluatorID != nil {
		evaluator = evaluatorID.String()
	}

	result := getDB(ctx, t.db).Model(&model.ReviewTask{}).
		Where("id = ? AND kind = ? AND status = ?", id.String(), kind, expected).
		Updates(map[string]any{
			"status":       status,
			"evaluator_id": evaluator,
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := t.Get(ctx, kind, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleRecord
	}

	return t.Get(ctx, kind, id)
}

func (t *TaskStore) SetReview(ctx context.Context, kind model.TaskKind, id uuid.UUID, score float64, feedback string) (*model.ReviewTask, error) {
	result := getDB(ctx, t.db).Model(&model.ReviewTask{}).
		Where("id = ? AND kind = ?", id.String(), kind).
		Updates(map[string]any{
			"status":   model.TaskStatusReviewed,
			"score":    score,
			"feedback": feedback,
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return t.Get(ctx, kind, id)
}
