package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"
)

type EvaluatorCreate struct {
	Name  string `json:"name" validate:"required,max=100,evaluator_name"`
	Email string `json:"email" validate:"required,email"`
}

type EvaluatorActive struct {
	Active *bool `json:"active" validate:"required"`
}

// (GET /api/v1/evaluators)
func (h *ServiceHandler) ListEvaluators(w http.ResponseWriter, r *http.Request) {
	evaluators, err := h.evaluatorSrv.List(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, evaluators)
}

// (POST /api/v1/evaluators)
func (h *ServiceHandler) RegisterEvaluator(w http.ResponseWriter, r *http.Request) {
	var form EvaluatorCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	evaluator, err := h.evaluatorSrv.Register(r.Context(), form.Name, form.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, evaluator)
}

// (PUT /api/v1/evaluators/{id}/active)
func (h *ServiceHandler) SetEvaluatorActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	var form EvaluatorActive
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	evaluator, err := h.evaluatorSrv.SetActive(r.Context(), id, *form.Active)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, evaluator)
}

// (PUT /api/v1/evaluators/{id}/toggle)
func (h *ServiceHandler) ToggleEvaluator(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	evaluator, err := h.evaluatorSrv.Toggle(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, evaluator)
}
