package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/evalportal/assessment-portal/internal/handlers/validator"
	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"
)

type ServiceHandler struct {
	evaluatorSrv *service.EvaluatorService
	taskSrv      *service.TaskService
	bookingSrv   *service.BookingService
	sweeper      *service.PoolSweeper
	validator    *validator.Validator
}

func NewServiceHandler(
	evaluatorSrv *service.EvaluatorService,
	taskSrv *service.TaskService,
	bookingSrv *service.BookingService,
	sweeper *service.PoolSweeper,
) *ServiceHandler {
	return &ServiceHandler{
		evaluatorSrv: evaluatorSrv,
		taskSrv:      taskSrv,
		bookingSrv:   bookingSrv,
		sweeper:      sweeper,
		validator: validator.NewValidator(
			validator.NewEvaluatorValidationRules(),
			validator.NewTaskValidationRules(),
			validator.NewBookingValidationRules(),
		),
	}
}

// Routes mounts the v1 api on r.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", h.GetInfo)

		r.Route("/evaluators", func(r chi.Router) {
			r.Get("/", h.ListEvaluators)
			r.Post("/", h.RegisterEvaluator)
			r.Put("/{id}/active", h.SetEvaluatorActive)
			r.Put("/{id}/toggle", h.ToggleEvaluator)
		})

		r.Route("/tasks/{kind}", func(r chi.Router) {
			r.Post("/", h.SubmitTask)
			r.Get("/unmarked", h.FetchUnmarkedTasks)
			r.Get("/reviews", h.ListReviewedTasks)
			r.Post("/sweep", h.SweepPool)
			r.Get("/{id}", h.GetTask)
			r.Put("/{id}/feedback", h.SubmitFeedback)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.BookSlot)
			r.Get("/slots", h.ListSlots)
			r.Put("/{id}/confirm", h.ConfirmBooking)
			r.Put("/{id}/review", h.ReviewBooking)
			r.Delete("/{id}", h.DeleteBooking)
		})
	})
}

type ErrorReply struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
}

func (e *ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrorReply(status int, err error) *ErrorReply {
	return &ErrorReply{HTTPStatusCode: status, Message: err.Error()}
}

// renderError maps service errors onto http statuses. Anything unknown is a 500 and is logged.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *service.ErrResourceNotFound
		invalid    *service.ErrInvalidArgument
		forbidden  *service.ErrForbidden
		transition *service.ErrInvalidTransition
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
	case errors.As(err, &transition):
		status = http.StatusConflict
	default:
		zap.S().Named("handler").Errorw("request failed", "path", r.URL.Path, "error", err)
	}

	_ = render.Render(w, r, newErrorReply(status, err))
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, newErrorReply(http.StatusBadRequest, err))
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	return id, err
}

func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &id)
	return id, err
}
