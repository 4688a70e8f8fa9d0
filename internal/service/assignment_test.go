package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("assignment service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		base   = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		cleanTables(gormdb)
	})

	createEvaluator := func(name string, active bool, offset time.Duration) model.Evaluator {
		e, err := s.Evaluator().Create(context.TODO(), model.Evaluator{
			Name:      name,
			Email:     name + "@portal.test",
			IsActive:  active,
			CreatedAt: base.Add(offset),
		})
		Expect(err).To(BeNil())
		return *e
	}

	createPooledTask := func(kind model.TaskKind) model.ReviewTask {
		t, err := s.Task().Create(context.TODO(), model.ReviewTask{
			Kind:   kind,
			Status: model.TaskStatusInPool,
			UserID: uuid.New(),
			Title:  "submission",
		})
		Expect(err).To(BeNil())
		return *t
	}

	Context("assign", func() {
		It("binds the task to an active evaluator and records it in their list", func() {
			evaluators := []model.Evaluator{
				createEvaluator("e1", true, 0),
				createEvaluator("e2", true, time.Minute),
				createEvaluator("e3", true, 2*time.Minute),
			}
			createEvaluator("off", false, 3*time.Minute)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))

			for i := 0; i < 4; i++ {
				task := createPooledTask(model.PublicSpeakingKind)

				result, err := srv.Assign(context.TODO(), task.ID, model.PublicSpeakingKind)
				Expect(err).To(BeNil())
				Expect(result.NoCapacity()).To(BeFalse())
				Expect(result.Task.Status).To(Equal(model.TaskStatusPending))
				Expect(*result.Task.EvaluatorID).To(Equal(result.Evaluator.ID))
				Expect(model.EvaluatorList(evaluators).IDs()).To(ContainElement(result.Evaluator.ID))

				entries, err := s.Evaluator().ListAssignedTasks(context.TODO(), result.Evaluator.ID)
				Expect(err).To(BeNil())
				Expect(entries).To(ContainElement(HaveField("TaskID", task.ID)))
			}

			var count int
			Expect(gormdb.Raw("SELECT COUNT(*) FROM evaluator_assignments;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(4))
		})

		It("uses the injected picker", func() {
			createEvaluator("e1", true, 0)
			second := createEvaluator("e2", true, time.Minute)
			createEvaluator("e3", true, 2*time.Minute)

			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s), service.WithPicker(func(n int) int {
				Expect(n).To(Equal(3))
				return 1
			}))

			task := createPooledTask(model.WrittenCommunicationKind)
			result, err := srv.Assign(context.TODO(), task.ID, model.WrittenCommunicationKind)
			Expect(err).To(BeNil())
			Expect(result.Evaluator.ID).To(Equal(second.ID))
		})

		It("leaves the task in the pool when nobody is active", func() {
			createEvaluator("off", false, 0)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))

			task := createPooledTask(model.PublicSpeakingKind)
			result, err := srv.Assign(context.TODO(), task.ID, model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(result.NoCapacity()).To(BeTrue())
			Expect(result.Task.Status).To(Equal(model.TaskStatusInPool))
			Expect(result.Task.EvaluatorID).To(BeNil())

			var count int
			Expect(gormdb.Raw("SELECT COUNT(*) FROM evaluator_assignments;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("returns the existing binding for an assigned task", func() {
			createEvaluator("e1", true, 0)
			createEvaluator("e2", true, time.Minute)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))

			task := createPooledTask(model.PublicSpeakingKind)
			first, err := srv.Assign(context.TODO(), task.ID, model.PublicSpeakingKind)
			Expect(err).To(BeNil())

			for i := 0; i < 3; i++ {
				again, err := srv.Assign(context.TODO(), task.ID, model.PublicSpeakingKind)
				Expect(err).To(BeNil())
				Expect(again.Evaluator.ID).To(Equal(first.Evaluator.ID))
			}

			entries, err := s.Evaluator().ListAssignedTasks(context.TODO(), first.Evaluator.ID)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
		})

		It("rejects an unknown kind without touching the task", func() {
			createEvaluator("e1", true, 0)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))
			task := createPooledTask(model.PublicSpeakingKind)

			_, err := srv.Assign(context.TODO(), task.ID, model.TaskKind("critical_thinking"))
			Expect(err).NotTo(BeNil())
			var invalid *service.ErrInvalidArgument
			Expect(err).To(BeAssignableToTypeOf(invalid))

			stored, err := s.Task().Get(context.TODO(), model.PublicSpeakingKind, task.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.TaskStatusInPool))
		})

		It("reports a missing task as not found", func() {
			createEvaluator("e1", true, 0)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))

			_, err := srv.Assign(context.TODO(), uuid.New(), model.PublicSpeakingKind)
			var notFound *service.ErrResourceNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})

		It("propagates a pool failure and leaves the task pooled", func() {
			createEvaluator("e1", true, 0)
			pool := &flakyPool{inner: service.NewEvaluatorPool(s), failures: 1}
			srv := service.NewAssignmentService(s, pool)
			task := createPooledTask(model.PublicSpeakingKind)

			_, err := srv.Assign(context.TODO(), task.ID, model.PublicSpeakingKind)
			Expect(err).NotTo(BeNil())

			stored, err := s.Task().Get(context.TODO(), model.PublicSpeakingKind, task.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.TaskStatusInPool))
		})
	})

	Context("concurrency", func() {
		It("binds a task exactly once under concurrent assignment", func() {
			for i := 0; i < 4; i++ {
				createEvaluator("e"+uuid.NewString()[:8], true, time.Duration(i)*time.Minute)
			}
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))
			task := createPooledTask(model.WrittenCommunicationKind)

			const workers = 8
			results := make([]service.AssignmentResult, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					result, err := srv.Assign(context.TODO(), task.ID, model.WrittenCommunicationKind)
					Expect(err).To(BeNil())
					results[i] = result
				}(i)
			}
			wg.Wait()

			stored, err := s.Task().Get(context.TODO(), model.WrittenCommunicationKind, task.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.TaskStatusPending))
			for _, r := range results {
				Expect(r.Evaluator).NotTo(BeNil())
				Expect(r.Evaluator.ID).To(Equal(*stored.EvaluatorID))
			}

			var count int
			Expect(gormdb.Raw("SELECT COUNT(*) FROM evaluator_assignments;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("keeps every append when many tasks land on the same evaluator", func() {
			only := createEvaluator("only", true, 0)
			srv := service.NewAssignmentService(s, service.NewEvaluatorPool(s))

			const tasks = 10
			ids := make([]uuid.UUID, tasks)
			for i := range ids {
				ids[i] = createPooledTask(model.PublicSpeakingKind).ID
			}

			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func(id uuid.UUID) {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := srv.Assign(context.TODO(), id, model.PublicSpeakingKind)
					Expect(err).To(BeNil())
				}(id)
			}
			wg.Wait()

			entries, err := s.Evaluator().ListAssignedTasks(context.TODO(), only.ID)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(tasks))
		})
	})
})
