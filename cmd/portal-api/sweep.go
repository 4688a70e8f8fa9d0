package main

import (
	"github.com/evalportal/assessment-portal/internal/config"
	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/evalportal/assessment-portal/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var sweepKind string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Assign pooled tasks to the active evaluators",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		_, undo := log.Setup(cfg.Service.LogLevel)
		defer undo()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sweeper := service.NewPoolSweeper(store, service.NewAssignmentService(store, service.NewEvaluatorPool(store)))

		var report service.SweepReport
		if sweepKind == "" {
			report, err = sweeper.SweepAll(cmd.Context())
		} else {
			report, err = sweeper.SweepPool(cmd.Context(), model.TaskKind(sweepKind))
		}
		if err != nil {
			return err
		}

		zap.S().Infow("sweep done", "processed", report.Processed, "assigned", report.Assigned, "failed", len(multierr.Errors(report.Err)))
		return report.Err
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepKind, "kind", "", "task kind to sweep (public_speaking or written_communication), all kinds when empty")
}
