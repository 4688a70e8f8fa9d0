package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskKind string

const (
	PublicSpeakingKind       TaskKind = "public_speaking"
	WrittenCommunicationKind TaskKind = "written_communication"
)

// TaskKinds lists every kind handled by the assignment engine, in sweep order.
var TaskKinds = []TaskKind{PublicSpeakingKind, WrittenCommunicationKind}

func (k TaskKind) IsValid() bool {
	switch k {
	case PublicSpeakingKind, WrittenCommunicationKind:
		return true
	default:
		return false
	}
}

func (k TaskKind) String() string {
	return string(k)
}

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusReviewed TaskStatus = "reviewed"
	TaskStatusInPool   TaskStatus = "in_pool"
)

// Writing types accepted for written communication tasks.
const (
	WritingTypeEmail          = "Email"
	WritingTypeEssay          = "Essay"
	WritingTypeFormalLetter   = "Formal Letter"
	WritingTypeInformalLetter = "Informal Letter"
	WritingTypeBlog           = "Blog"
)

var WritingTypes = []string{
	WritingTypeEmail,
	WritingTypeEssay,
	WritingTypeFormalLetter,
	WritingTypeInformalLetter,
	WritingTypeBlog,
}

type ReviewTask struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:VARCHAR(36);"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Kind        TaskKind   `json:"kind" gorm:"not null;type:VARCHAR(50);index:review_tasks_kind_status_idx"`
	Status      TaskStatus `json:"status" gorm:"not null;type:VARCHAR(20);index:review_tasks_kind_status_idx"`
	UserID      uuid.UUID  `json:"user_id" gorm:"not null;type:VARCHAR(36);index"`
	EvaluatorID *uuid.UUID `json:"evaluator_id,omitempty" gorm:"type:VARCHAR(36);index"`
	Title       string     `json:"title" gorm:"not null"`
	WritingType string     `json:"writing_type,omitempty" gorm:"type:VARCHAR(50)"`
	Content     string     `json:"content,omitempty" gorm:"type:TEXT"`
	MediaURL    string     `json:"media_url,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	Feedback    string     `json:"feedback,omitempty" gorm:"type:TEXT"`
}

type ReviewTaskList []ReviewTask

func (t ReviewTask) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}

// IsAssigned reports whether the task is bound to an evaluator.
func (t ReviewTask) IsAssigned() bool {
	return t.Status != TaskStatusInPool && t.EvaluatorID != nil
}

func (t ReviewTask) AssignedTo(evaluatorID uuid.UUID) bool {
	return t.EvaluatorID != nil && *t.EvaluatorID == evaluatorID
}

func (l ReviewTaskList) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l))
	for _, t := range l {
		ids = append(ids, t.ID)
	}
	return ids
}
