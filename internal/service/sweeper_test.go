package service_test

import (
	"context"
	"time"

	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

var _ = Describe("pool sweeper", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
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

	createPooledTask := func(kind model.TaskKind) uuid.UUID {
		t, err := s.Task().Create(context.TODO(), model.ReviewTask{
			Kind:   kind,
			Status: model.TaskStatusInPool,
			UserID: uuid.New(),
			Title:  "pooled",
		})
		Expect(err).To(BeNil())
		return t.ID
	}

	countPooled := func() int {
		var count int
		Expect(gormdb.Raw("SELECT COUNT(*) FROM review_tasks WHERE status = 'in_pool';").Scan(&count).Error).To(BeNil())
		return count
	}

	Context("sweep pool", func() {
		It("does nothing when the pool is empty", func() {
			_, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "e1", Email: "e1@portal.test", IsActive: true})
			Expect(err).To(BeNil())
			assigner := service.NewAssignmentService(s, service.NewEvaluatorPool(s))
			sweeper := service.NewPoolSweeper(s, assigner)

			report, err := sweeper.SweepPool(context.TODO(), model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(0))
			Expect(report.Assigned).To(Equal(0))
			Expect(report.Err).To(BeNil())
		})

		It("assigns the pooled tasks once an evaluator becomes active", func() {
			evaluator, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "late", Email: "late@portal.test"})
			Expect(err).To(BeNil())

			assigner := service.NewAssignmentService(s, service.NewEvaluatorPool(s))
			sweeper := service.NewPoolSweeper(s, assigner)

			ids := []uuid.UUID{createPooledTask(model.PublicSpeakingKind), createPooledTask(model.PublicSpeakingKind)}
			for _, id := range ids {
				result, err := assigner.Assign(context.TODO(), id, model.PublicSpeakingKind)
				Expect(err).To(BeNil())
				Expect(result.NoCapacity()).To(BeTrue())
			}

			report, err := sweeper.SweepPool(context.TODO(), model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(2))
			Expect(report.Assigned).To(Equal(0))
			Expect(countPooled()).To(Equal(2))

			_, err = s.Evaluator().SetActive(context.TODO(), evaluator.ID, true)
			Expect(err).To(BeNil())

			report, err = sweeper.SweepPool(context.TODO(), model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(2))
			Expect(report.Assigned).To(Equal(2))
			Expect(countPooled()).To(Equal(0))

			entries, err := s.Evaluator().ListAssignedTasks(context.TODO(), evaluator.ID)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2))

			report, err = sweeper.SweepPool(context.TODO(), model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(0))
		})

		It("only touches the requested kind", func() {
			_, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "e1", Email: "e1@portal.test", IsActive: true})
			Expect(err).To(BeNil())
			createPooledTask(model.PublicSpeakingKind)
			written := createPooledTask(model.WrittenCommunicationKind)

			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, service.NewEvaluatorPool(s)))
			report, err := sweeper.SweepPool(context.TODO(), model.PublicSpeakingKind)
			Expect(err).To(BeNil())
			Expect(report.Assigned).To(Equal(1))

			task, err := s.Task().Get(context.TODO(), model.WrittenCommunicationKind, written)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusInPool))
		})

		It("keeps going after a failed assignment", func() {
			_, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "e1", Email: "e1@portal.test", IsActive: true})
			Expect(err).To(BeNil())
			createPooledTask(model.WrittenCommunicationKind)
			createPooledTask(model.WrittenCommunicationKind)
			createPooledTask(model.WrittenCommunicationKind)

			pool := &flakyPool{inner: service.NewEvaluatorPool(s), failures: 1}
			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, pool))

			report, err := sweeper.SweepPool(context.TODO(), model.WrittenCommunicationKind)
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(3))
			Expect(report.Assigned).To(Equal(2))
			Expect(multierr.Errors(report.Err)).To(HaveLen(1))
			Expect(countPooled()).To(Equal(1))
		})

		It("rejects an unknown kind", func() {
			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, service.NewEvaluatorPool(s)))
			_, err := sweeper.SweepPool(context.TODO(), model.TaskKind("quiz"))
			var invalid *service.ErrInvalidArgument
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})
	})

	Context("sweep all", func() {
		It("sweeps both kinds", func() {
			_, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "e1", Email: "e1@portal.test", IsActive: true})
			Expect(err).To(BeNil())
			createPooledTask(model.PublicSpeakingKind)
			createPooledTask(model.WrittenCommunicationKind)

			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, service.NewEvaluatorPool(s)))
			report, err := sweeper.SweepAll(context.TODO())
			Expect(err).To(BeNil())
			Expect(report.Processed).To(Equal(2))
			Expect(report.Assigned).To(Equal(2))
			Expect(countPooled()).To(Equal(0))
		})
	})

	Context("periodic sweep", func() {
		It("returns immediately when disabled", func() {
			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, service.NewEvaluatorPool(s)))
			periodic := service.NewPeriodicSweeper(sweeper, 0, time.Second)
			Expect(periodic.Enabled()).To(BeFalse())

			done := make(chan struct{})
			go func() {
				periodic.Run(context.Background())
				close(done)
			}()
			Eventually(done).Should(BeClosed())
		})

		It("picks up pooled work on its own", func() {
			_, err := s.Evaluator().Create(context.TODO(), model.Evaluator{Name: "e1", Email: "e1@portal.test", IsActive: true})
			Expect(err).To(BeNil())
			createPooledTask(model.PublicSpeakingKind)

			sweeper := service.NewPoolSweeper(s, service.NewAssignmentService(s, service.NewEvaluatorPool(s)))
			periodic := service.NewPeriodicSweeper(sweeper, 20*time.Millisecond, time.Millisecond)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				periodic.Run(ctx)
				close(done)
			}()

			Eventually(countPooled).WithTimeout(2 * time.Second).Should(Equal(0))
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})
})
