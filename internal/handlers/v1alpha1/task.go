package v1alpha1

import (
	"net/http"

	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type TaskCreate struct {
	UserID      string `json:"user_id" validate:"required,uuid_string"`
	Title       string `json:"title" validate:"required,max=200"`
	WritingType string `json:"writing_type" validate:"writing_type"`
	Content     string `json:"content"`
	MediaURL    string `json:"media_url" validate:"omitempty,url"`
}

type FeedbackUpdate struct {
	EvaluatorID string   `json:"evaluator_id" validate:"required,uuid_string"`
	Score       *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Feedback    string   `json:"feedback" validate:"required"`
}

type TaskReply struct {
	Task       model.ReviewTask `json:"task"`
	AssignedTo *uuid.UUID       `json:"assigned_to,omitempty"`
	Pooled     bool             `json:"pooled"`
}

type SweepReply struct {
	Processed int    `json:"processed"`
	Assigned  int    `json:"assigned"`
	Errors    string `json:"errors,omitempty"`
}

type taskPath struct {
	Kind string `validate:"required,task_kind"`
}

func (h *ServiceHandler) taskKind(r *http.Request) (model.TaskKind, error) {
	p := taskPath{Kind: chi.URLParam(r, "kind")}
	if err := h.validator.Struct(p); err != nil {
		return "", service.NewErrInvalidArgument("unknown task kind %q", p.Kind)
	}
	return model.TaskKind(p.Kind), nil
}

// (POST /api/v1/tasks/{kind})
func (h *ServiceHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var form TaskCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	result, err := h.taskSrv.Submit(r.Context(), service.SubmitForm{
		UserID:      uuid.MustParse(form.UserID),
		Kind:        kind,
		Title:       form.Title,
		WritingType: form.WritingType,
		Content:     form.Content,
		MediaURL:    form.MediaURL,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	reply := TaskReply{Task: result.Task, Pooled: result.NoCapacity()}
	if !result.NoCapacity() {
		reply.AssignedTo = &result.Evaluator.ID
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reply)
}

// (GET /api/v1/tasks/{kind}/unmarked?evaluator_id=)
func (h *ServiceHandler) FetchUnmarkedTasks(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	evaluatorID, err := queryUUID(r, "evaluator_id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	tasks, err := h.taskSrv.FetchUnmarked(r.Context(), kind, evaluatorID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, tasks)
}

// (GET /api/v1/tasks/{kind}/reviews?user_id=)
func (h *ServiceHandler) ListReviewedTasks(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	tasks, err := h.taskSrv.ListReviewed(r.Context(), kind, userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, tasks)
}

// (GET /api/v1/tasks/{kind}/{id})
func (h *ServiceHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	task, err := h.taskSrv.Get(r.Context(), kind, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, task)
}

// (PUT /api/v1/tasks/{kind}/{id}/feedback)
func (h *ServiceHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	var form FeedbackUpdate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	task, err := h.taskSrv.SubmitFeedback(r.Context(), kind, id, uuid.MustParse(form.EvaluatorID), *form.Score, form.Feedback)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, task)
}

// (POST /api/v1/tasks/{kind}/sweep)
func (h *ServiceHandler) SweepPool(w http.ResponseWriter, r *http.Request) {
	kind, err := h.taskKind(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	report, err := h.sweeper.SweepPool(r.Context(), kind)
	if err != nil {
		renderError(w, r, err)
		return
	}

	reply := SweepReply{Processed: report.Processed, Assigned: report.Assigned}
	if report.Err != nil {
		reply.Errors = report.Err.Error()
	}
	render.JSON(w, r, reply)
}
