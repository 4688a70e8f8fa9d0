package v1alpha1_test

import (
	"context"
	"fmt"
	"net/http"

	handlers "github.com/evalportal/assessment-portal/internal/handlers/v1alpha1"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("task handler", Ordered, func() {
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

	createEvaluator := func(active bool) model.Evaluator {
		name := "e" + uuid.NewString()[:8]
		e, err := ts.store.Evaluator().Create(context.TODO(), model.Evaluator{Name: name, Email: name + "@portal.test", IsActive: active})
		Expect(err).To(BeNil())
		return *e
	}

	essay := func(userID uuid.UUID) map[string]string {
		return map[string]string{
			"user_id":      userID.String(),
			"title":        "My essay",
			"writing_type": "Essay",
			"content":      "Once upon a time",
		}
	}

	Context("submit", func() {
		It("assigns the task when an evaluator is active", func() {
			e := createEvaluator(true)

			var reply handlers.TaskReply
			code := ts.do(http.MethodPost, "/api/v1/tasks/written_communication", essay(uuid.New()), &reply)
			Expect(code).To(Equal(http.StatusCreated))
			Expect(reply.Pooled).To(BeFalse())
			Expect(*reply.AssignedTo).To(Equal(e.ID))
			Expect(reply.Task.Status).To(Equal(model.TaskStatusPending))
		})

		It("pools the task when nobody is active", func() {
			createEvaluator(false)

			var reply handlers.TaskReply
			code := ts.do(http.MethodPost, "/api/v1/tasks/written_communication", essay(uuid.New()), &reply)
			Expect(code).To(Equal(http.StatusCreated))
			Expect(reply.Pooled).To(BeTrue())
			Expect(reply.AssignedTo).To(BeNil())
			Expect(reply.Task.Status).To(Equal(model.TaskStatusInPool))
		})

		It("rejects bad submissions", func() {
			code := ts.do(http.MethodPost, "/api/v1/tasks/critical_thinking", essay(uuid.New()), nil)
			Expect(code).To(Equal(http.StatusBadRequest))

			form := essay(uuid.New())
			form["writing_type"] = "Poem"
			code = ts.do(http.MethodPost, "/api/v1/tasks/written_communication", form, nil)
			Expect(code).To(Equal(http.StatusBadRequest))

			code = ts.do(http.MethodPost, "/api/v1/tasks/public_speaking", map[string]string{
				"user_id": uuid.NewString(),
				"title":   "talk",
				"content": "transcript only",
			}, nil)
			Expect(code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("review", func() {
		It("lists unmarked tasks and records feedback", func() {
			e := createEvaluator(true)
			user := uuid.New()

			var reply handlers.TaskReply
			Expect(ts.do(http.MethodPost, "/api/v1/tasks/public_speaking", map[string]string{
				"user_id":   user.String(),
				"title":     "talk",
				"media_url": "https://media.portal.test/talk.mp4",
			}, &reply)).To(Equal(http.StatusCreated))

			var unmarked []model.ReviewTask
			code := ts.do(http.MethodGet, fmt.Sprintf("/api/v1/tasks/public_speaking/unmarked?evaluator_id=%s", e.ID), nil, &unmarked)
			Expect(code).To(Equal(http.StatusOK))
			Expect(unmarked).To(HaveLen(1))
			Expect(unmarked[0].ID).To(Equal(reply.Task.ID))

			path := fmt.Sprintf("/api/v1/tasks/public_speaking/%s/feedback", reply.Task.ID)
			code = ts.do(http.MethodPut, path, map[string]any{"evaluator_id": uuid.NewString(), "score": 7, "feedback": "clear"}, nil)
			Expect(code).To(Equal(http.StatusForbidden))

			var reviewed model.ReviewTask
			code = ts.do(http.MethodPut, path, map[string]any{"evaluator_id": e.ID.String(), "score": 7, "feedback": "clear"}, &reviewed)
			Expect(code).To(Equal(http.StatusOK))
			Expect(reviewed.Status).To(Equal(model.TaskStatusReviewed))

			var mine []model.ReviewTask
			code = ts.do(http.MethodGet, fmt.Sprintf("/api/v1/tasks/public_speaking/reviews?user_id=%s", user), nil, &mine)
			Expect(code).To(Equal(http.StatusOK))
			Expect(mine).To(HaveLen(1))
			Expect(*mine[0].Score).To(Equal(7.0))
		})

		It("returns a single task with its feedback", func() {
			e := createEvaluator(true)

			var reply handlers.TaskReply
			Expect(ts.do(http.MethodPost, "/api/v1/tasks/written_communication", essay(uuid.New()), &reply)).To(Equal(http.StatusCreated))
			path := fmt.Sprintf("/api/v1/tasks/written_communication/%s", reply.Task.ID)

			var task model.ReviewTask
			Expect(ts.do(http.MethodGet, path, nil, &task)).To(Equal(http.StatusOK))
			Expect(task.Status).To(Equal(model.TaskStatusPending))
			Expect(task.Score).To(BeNil())

			Expect(ts.do(http.MethodPut, path+"/feedback", map[string]any{"evaluator_id": e.ID.String(), "score": 8.5, "feedback": "well argued"}, nil)).To(Equal(http.StatusOK))

			Expect(ts.do(http.MethodGet, path, nil, &task)).To(Equal(http.StatusOK))
			Expect(task.Status).To(Equal(model.TaskStatusReviewed))
			Expect(*task.Score).To(Equal(8.5))
			Expect(task.Feedback).To(Equal("well argued"))

			Expect(ts.do(http.MethodGet, fmt.Sprintf("/api/v1/tasks/public_speaking/%s", reply.Task.ID), nil, nil)).To(Equal(http.StatusNotFound))
			Expect(ts.do(http.MethodGet, "/api/v1/tasks/written_communication/not-a-uuid", nil, nil)).To(Equal(http.StatusBadRequest))
			Expect(ts.do(http.MethodGet, fmt.Sprintf("/api/v1/tasks/critical_thinking/%s", reply.Task.ID), nil, nil)).To(Equal(http.StatusBadRequest))
		})

		It("rejects an out of range score", func() {
			code := ts.do(http.MethodPut, fmt.Sprintf("/api/v1/tasks/public_speaking/%s/feedback", uuid.New()),
				map[string]any{"evaluator_id": uuid.NewString(), "score": 11, "feedback": "x"}, nil)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for feedback on an unknown task", func() {
			code := ts.do(http.MethodPut, fmt.Sprintf("/api/v1/tasks/public_speaking/%s/feedback", uuid.New()),
				map[string]any{"evaluator_id": uuid.NewString(), "score": 5, "feedback": "x"}, nil)
			Expect(code).To(Equal(http.StatusNotFound))
		})

		It("requires the evaluator id when fetching unmarked tasks", func() {
			code := ts.do(http.MethodGet, "/api/v1/tasks/public_speaking/unmarked", nil, nil)
			Expect(code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("sweep", func() {
		It("assigns pooled tasks on demand", func() {
			e := createEvaluator(false)
			Expect(ts.do(http.MethodPost, "/api/v1/tasks/written_communication", essay(uuid.New()), nil)).To(Equal(http.StatusCreated))

			_, err := ts.store.Evaluator().SetActive(context.TODO(), e.ID, true)
			Expect(err).To(BeNil())

			var reply handlers.SweepReply
			code := ts.do(http.MethodPost, "/api/v1/tasks/written_communication/sweep", nil, &reply)
			Expect(code).To(Equal(http.StatusOK))
			Expect(reply.Processed).To(Equal(1))
			Expect(reply.Assigned).To(Equal(1))
			Expect(reply.Errors).To(BeEmpty())
		})
	})
})
