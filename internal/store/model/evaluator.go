package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Evaluator struct {
	ID            uuid.UUID             `json:"id" gorm:"primaryKey;type:VARCHAR(36);"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Name          string                `json:"name" gorm:"not null"`
	Email         string                `json:"email" gorm:"uniqueIndex:evaluators_email_idx;not null"`
	IsActive      bool                  `json:"is_active" gorm:"index:evaluators_active_idx;not null;default:false"`
	AssignedTasks []EvaluatorAssignment `json:"assigned_tasks,omitempty" gorm:"foreignKey:EvaluatorID;references:ID;constraint:OnDelete:CASCADE;"`
}

// EvaluatorAssignment is one entry of an evaluator's assigned-task bookkeeping list.
// Rows are only ever inserted, which keeps concurrent appends free of lost updates.
type EvaluatorAssignment struct {
	EvaluatorID uuid.UUID `json:"evaluator_id" gorm:"primaryKey;type:VARCHAR(36)"`
	TaskID      uuid.UUID `json:"task_id" gorm:"primaryKey;type:VARCHAR(36)"`
	TaskKind    TaskKind  `json:"task_kind" gorm:"not null;type:VARCHAR(50)"`
	CreatedAt   time.Time `json:"created_at"`
}

type EvaluatorList []Evaluator

func (e Evaluator) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}

func (l EvaluatorList) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l))
	for _, e := range l {
		ids = append(ids, e.ID)
	}
	return ids
}
