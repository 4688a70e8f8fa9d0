package store

import (
	"context"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Evaluator interface {
	List(ctx context.Context, filter *EvaluatorQueryFilter, opts *QueryOptions) (model.EvaluatorList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Evaluator, error)
	Create(ctx context.Context, evaluator model.Evaluator) (*model.Evaluator, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Evaluator, error)
	AppendAssignedTask(ctx context.Context, evaluatorID, taskID uuid.UUID, kind model.TaskKind) error
	ListAssignedTasks(ctx context.Context, evaluatorID uuid.UUID) ([]model.EvaluatorAssignment, error)
}

type EvaluatorStore struct {
	db *gorm.DB
}

func NewEvaluatorStore(db *gorm.DB) Evaluator {
	return &EvaluatorStore{db: db}
}

// List lists evaluators. Without a sort option the order is creation time then id, which is
// the pool order every caller relies on.
func (e *EvaluatorStore) List(ctx context.Context, filter *EvaluatorQueryFilter, opts *QueryOptions) (model.EvaluatorList, error) {
	var evaluators model.EvaluatorList
	tx := (*BaseQuerier)(filter).apply(getDB(ctx, e.db))

	if opts == nil || len(opts.QueryFn) == 0 {
		tx = sortBy(tx, SortByCreatedTime)
	} else {
		tx = (*BaseQuerier)(opts).apply(tx)
	}

	if err := tx.Model(&evaluators).Find(&evaluators).Error; err != nil {
		return nil, err
	}

	return evaluators, nil
}

func (e *EvaluatorStore) Get(ctx context.Context, id uuid.UUID) (*model.Evaluator, error) {
	evaluator := &model.Evaluator{}

	err := getDB(ctx, e.db).
		Preload("AssignedTasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Where("id = ?", id.String()).
		First(evaluator).Error
	if err != nil {
		return nil, translateError(err)
	}

	return evaluator, nil
}

func (e *EvaluatorStore) Create(ctx context.Context, evaluator model.Evaluator) (*model.Evaluator, error) {
	if evaluator.ID == uuid.Nil {
		evaluator.ID = uuid.New()
	}

	if err := getDB(ctx, e.db).Omit(clause.Associations).Create(&evaluator).Error; err != nil {
		return nil, translateError(err)
	}

	return &evaluator, nil
}

func (e *EvaluatorStore) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Evaluator, error) {
	result := getDB(ctx, e.db).Model(&model.Evaluator{}).
		Where("id = ?", id.String()).
		Update("is_active", active)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return e.Get(ctx, id)
}

// AppendAssignedTask records the task in the evaluator's assigned list. Appending a task that
// is already listed is a no-op, so a retried assignment never duplicates an entry.
func (e *EvaluatorStore) AppendAssignedTask(ctx context.Context, evaluatorID, taskID uuid.UUID, kind model.TaskKind) error {
	entry := model.EvaluatorAssignment{
		EvaluatorID: evaluatorID,
		TaskID:      taskID,
		TaskKind:    kind,
	}

	err := getDB(ctx, e.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "evaluator_id"}, {Name: "task_id"}},
			DoNothing: true,
		}).
		Create(&entry).Error

	return translateError(err)
}

func (e *EvaluatorStore) ListAssignedTasks(ctx context.Context, evaluatorID uuid.UUID) ([]model.EvaluatorAssignment, error) {
	var entries []model.EvaluatorAssignment
	if err := getDB(ctx, e.db).Where("evaluator_id = ?", evaluatorID.String()).Order("created_at, task_id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
