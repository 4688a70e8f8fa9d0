package v1alpha1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const bookingDateLayout = "2006-01-02"

type BookingCreate struct {
	UserID string `json:"user_id" validate:"required,uuid_string"`
	Slot   string `json:"slot" validate:"required,slot"`
	Date   string `json:"date" validate:"required"`
}

type BookingConfirm struct {
	EvaluatorID   string `json:"evaluator_id" validate:"required,uuid_string"`
	InterviewLink string `json:"interview_link" validate:"required,url"`
}

type BookingReview struct {
	EvaluatorID string   `json:"evaluator_id" validate:"required,uuid_string"`
	Score       *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Feedback    string   `json:"feedback" validate:"required"`
}

type bookingListQuery struct {
	UserID      string `validate:"required_without=EvaluatorID,omitempty,uuid_string"`
	EvaluatorID string `validate:"required_without=UserID,omitempty,uuid_string"`
	Status      string `validate:"booking_status"`
}

// parseBookingDate accepts a plain calendar date or a full RFC 3339 timestamp.
func parseBookingDate(val string) (time.Time, error) {
	if t, err := time.Parse(bookingDateLayout, val); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", val)
	}
	return t, nil
}

// (POST /api/v1/bookings)
func (h *ServiceHandler) BookSlot(w http.ResponseWriter, r *http.Request) {
	var form BookingCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}
	date, err := parseBookingDate(form.Date)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	result, err := h.bookingSrv.BookSlot(r.Context(), uuid.MustParse(form.UserID), form.Slot, date)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if result.NoCapacity() {
		_ = render.Render(w, r, newErrorReply(http.StatusConflict, fmt.Errorf("no available evaluators for this slot")))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result.Booking)
}

// (GET /api/v1/bookings?user_id=|evaluator_id=&status=)
func (h *ServiceHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := bookingListQuery{
		UserID:      r.URL.Query().Get("user_id"),
		EvaluatorID: r.URL.Query().Get("evaluator_id"),
		Status:      r.URL.Query().Get("status"),
	}
	if err := h.validator.Struct(q); err != nil {
		badRequest(w, r, err)
		return
	}

	var (
		bookings model.BookingList
		err      error
	)
	if q.EvaluatorID != "" {
		var statuses []model.BookingStatus
		if q.Status != "" {
			statuses = append(statuses, model.BookingStatus(q.Status))
		}
		bookings, err = h.bookingSrv.ListForEvaluator(r.Context(), uuid.MustParse(q.EvaluatorID), statuses...)
	} else {
		bookings, err = h.bookingSrv.ListForUser(r.Context(), uuid.MustParse(q.UserID))
	}
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, bookings)
}

// (GET /api/v1/bookings/slots)
func (h *ServiceHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, model.Slots)
}

// (PUT /api/v1/bookings/{id}/confirm)
func (h *ServiceHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	var form BookingConfirm
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	booking, err := h.bookingSrv.Confirm(r.Context(), id, uuid.MustParse(form.EvaluatorID), form.InterviewLink)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, booking)
}

// (PUT /api/v1/bookings/{id}/review)
func (h *ServiceHandler) ReviewBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	var form BookingReview
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		badRequest(w, r, err)
		return
	}

	booking, err := h.bookingSrv.Review(r.Context(), id, uuid.MustParse(form.EvaluatorID), *form.Score, form.Feedback)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, booking)
}

// (DELETE /api/v1/bookings/{id})
func (h *ServiceHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.bookingSrv.Delete(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
