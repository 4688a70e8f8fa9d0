package service

import (
	"context"
	"fmt"
	"time"

	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/evalportal/assessment-portal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"github.com/thoas/go-funk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SweepReport summarizes one sweep. Err collects every per-task failure; a failure never
// stops the sweep.
type SweepReport struct {
	Processed int
	Assigned  int
	Err       error
}

func (r SweepReport) Merge(other SweepReport) SweepReport {
	return SweepReport{
		Processed: r.Processed + other.Processed,
		Assigned:  r.Assigned + other.Assigned,
		Err:       multierr.Append(r.Err, other.Err),
	}
}

type PoolSweeper struct {
	store    store.Store
	assigner *AssignmentService
	log      *zap.SugaredLogger
}

func NewPoolSweeper(s store.Store, assigner *AssignmentService) *PoolSweeper {
	return &PoolSweeper{
		store:    s,
		assigner: assigner,
		log:      zap.S().Named("pool_sweeper"),
	}
}

// SweepPool re-runs assignment for every pooled task of the kind, oldest first. The returned
// error is only set when the pool itself could not be read; per-task failures are in the report.
func (p *PoolSweeper) SweepPool(ctx context.Context, kind model.TaskKind) (SweepReport, error) {
	if !kind.IsValid() {
		return SweepReport{}, NewErrInvalidArgument("unknown task kind %q", kind)
	}

	pooled, err := p.store.Task().List(ctx, store.NewTaskQueryFilter().ByKind(kind).ByStatus(model.TaskStatusInPool), nil)
	if err != nil {
		return SweepReport{}, NewErrStorage("failed to list pooled tasks", err)
	}

	report := SweepReport{}
	if len(pooled) == 0 {
		metrics.UpdatePooledTasksMetric(kind.String(), 0)
		return report, nil
	}

	var assigned []uuid.UUID
	for _, task := range pooled {
		if err := ctx.Err(); err != nil {
			report.Err = multierr.Append(report.Err, err)
			break
		}

		report.Processed++
		result, err := p.assigner.Assign(ctx, task.ID, kind)
		if err != nil {
			report.Err = multierr.Append(report.Err, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if !result.NoCapacity() {
			report.Assigned++
			assigned = append(assigned, task.ID)
		}
	}

	failed := len(multierr.Errors(report.Err))
	metrics.IncreaseSweptTasksMetric(kind.String(), metrics.OutcomeAssigned, report.Assigned)
	metrics.IncreaseSweptTasksMetric(kind.String(), metrics.OutcomeFailed, failed)
	metrics.UpdatePooledTasksMetric(kind.String(), len(pooled)-report.Assigned)

	p.log.Infow("pool swept",
		"kind", kind,
		"processed", report.Processed,
		"assigned", report.Assigned,
		"failed", failed,
		"remaining", funk.Subtract(pooled.IDs(), assigned),
	)

	return report, nil
}

// SweepAll sweeps the pool of every task kind.
func (p *PoolSweeper) SweepAll(ctx context.Context) (SweepReport, error) {
	total := SweepReport{}
	for _, kind := range model.TaskKinds {
		report, err := p.SweepPool(ctx, kind)
		if err != nil {
			return total, err
		}
		total = total.Merge(report)
	}
	return total, nil
}

// PeriodicSweeper calls SweepAll on a jittered interval so pooled work is picked up even when
// no evaluator asks for it.
type PeriodicSweeper struct {
	sweeper  *PoolSweeper
	interval time.Duration
	jitter   time.Duration
	log      *zap.SugaredLogger
}

func NewPeriodicSweeper(sweeper *PoolSweeper, interval, jitter time.Duration) *PeriodicSweeper {
	return &PeriodicSweeper{
		sweeper:  sweeper,
		interval: interval,
		jitter:   jitter,
		log:      zap.S().Named("periodic_sweeper"),
	}
}

func (p *PeriodicSweeper) Enabled() bool {
	return p.interval > 0
}

// Run blocks until ctx is done. It returns immediately when the sweeper is disabled.
func (p *PeriodicSweeper) Run(ctx context.Context) {
	if !p.Enabled() {
		p.log.Info("periodic sweep disabled")
		return
	}

	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: p.jitter})
	defer ticker.Stop()

	p.log.Infow("periodic sweep started", "interval", p.interval, "jitter", p.jitter)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("periodic sweep stopped")
			return
		case <-ticker.C:
			report, err := p.sweeper.SweepAll(ctx)
			if err != nil {
				p.log.Errorw("periodic sweep failed", "error", err)
				continue
			}
			if report.Err != nil {
				p.log.Warnw("periodic sweep finished with errors", "processed", report.Processed, "assigned", report.Assigned, "error", report.Err)
			}
		}
	}
}
