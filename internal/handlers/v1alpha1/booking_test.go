package v1alpha1_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("booking handler", Ordered, func() {
	var ts *testServer

	BeforeAll(func() {
		ts = newTestServer()
	})

	AfterAll(func() {
		ts.store.Close()
	})

	AfterEach(func() {
		ts.clean()
	})

	createEvaluator := func() model.Evaluator {
		name := "e" + uuid.NewString()[:8]
		e, err := ts.store.Evaluator().Create(context.TODO(), model.Evaluator{Name: name, Email: name + "@portal.test", IsActive: true})
		Expect(err).To(BeNil())
		return *e
	}

	book := func(userID uuid.UUID, slot, date string, out any) int {
		return ts.do(http.MethodPost, "/api/v1/bookings", map[string]string{
			"user_id": userID.String(),
			"slot":    slot,
			"date":    date,
		}, out)
	}

	Context("book", func() {
		It("books a slot until the pool is exhausted", func() {
			e := createEvaluator()

			var booking model.Booking
			Expect(book(uuid.New(), string(model.Slot1000), "2024-06-12", &booking)).To(Equal(http.StatusCreated))
			Expect(booking.EvaluatorID).To(Equal(e.ID))
			Expect(booking.Status).To(Equal(model.BookingStatusScheduled))

			reply := map[string]string{}
			Expect(book(uuid.New(), string(model.Slot1000), "2024-06-12T16:00:00Z", &reply)).To(Equal(http.StatusConflict))
			Expect(reply["error"]).To(ContainSubstring("no available evaluators"))
		})

		It("rejects an unknown slot or date", func() {
			createEvaluator()
			Expect(book(uuid.New(), "9:00 AM - 9:30 AM", "2024-06-12", nil)).To(Equal(http.StatusBadRequest))
			Expect(book(uuid.New(), string(model.Slot1000), "12/06/2024", nil)).To(Equal(http.StatusBadRequest))
		})

		It("lists the offered slots", func() {
			var slots []model.Slot
			Expect(ts.do(http.MethodGet, "/api/v1/bookings/slots", nil, &slots)).To(Equal(http.StatusOK))
			Expect(slots).To(Equal(model.Slots))
		})
	})

	Context("lifecycle", func() {
		It("confirms, reviews and lists a booking", func() {
			e := createEvaluator()
			user := uuid.New()

			var booking model.Booking
			Expect(book(user, string(model.Slot1300), "2024-06-12", &booking)).To(Equal(http.StatusCreated))

			confirm := fmt.Sprintf("/api/v1/bookings/%s/confirm", booking.ID)
			Expect(ts.do(http.MethodPut, confirm, map[string]string{
				"evaluator_id":   uuid.NewString(),
				"interview_link": "https://meet.portal.test/a",
			}, nil)).To(Equal(http.StatusForbidden))

			Expect(ts.do(http.MethodPut, confirm, map[string]string{
				"evaluator_id":   e.ID.String(),
				"interview_link": "https://meet.portal.test/a",
			}, &booking)).To(Equal(http.StatusOK))
			Expect(booking.Status).To(Equal(model.BookingStatusConfirmed))

			var confirmed []model.Booking
			Expect(ts.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings?evaluator_id=%s&status=confirmed", e.ID), nil, &confirmed)).To(Equal(http.StatusOK))
			Expect(confirmed).To(HaveLen(1))

			Expect(ts.do(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%s/review", booking.ID), map[string]any{
				"evaluator_id": e.ID.String(),
				"score":        9,
				"feedback":     "well prepared",
			}, &booking)).To(Equal(http.StatusOK))
			Expect(booking.Status).To(Equal(model.BookingStatusReviewed))

			Expect(ts.do(http.MethodPut, confirm, map[string]string{
				"evaluator_id":   e.ID.String(),
				"interview_link": "https://meet.portal.test/b",
			}, nil)).To(Equal(http.StatusConflict))

			var mine []model.Booking
			Expect(ts.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings?user_id=%s", user), nil, &mine)).To(Equal(http.StatusOK))
			Expect(mine).To(HaveLen(1))
		})

		It("requires a user or evaluator when listing", func() {
			Expect(ts.do(http.MethodGet, "/api/v1/bookings", nil, nil)).To(Equal(http.StatusBadRequest))
			Expect(ts.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings?evaluator_id=%s&status=lost", uuid.New()), nil, nil)).To(Equal(http.StatusBadRequest))
		})

		It("deletes a booking once", func() {
			createEvaluator()
			var booking model.Booking
			Expect(book(uuid.New(), string(model.Slot1500), "2024-06-12", &booking)).To(Equal(http.StatusCreated))

			path := fmt.Sprintf("/api/v1/bookings/%s", booking.ID)
			Expect(ts.do(http.MethodDelete, path, nil, nil)).To(Equal(http.StatusNoContent))
			Expect(ts.do(http.MethodDelete, path, nil, nil)).To(Equal(http.StatusNotFound))

			Expect(book(uuid.New(), string(model.Slot1500), "2024-06-12", nil)).To(Equal(http.StatusCreated))
		})
	})
})
