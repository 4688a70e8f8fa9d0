package main

import (
	"context"

	"github.com/evalportal/assessment-portal/internal/config"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/pkg/log"
	"github.com/evalportal/assessment-portal/pkg/migrations"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		_, undo := log.Setup(cfg.Service.LogLevel)
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			return err
		}
		s := store.NewStore(db)
		defer s.Close()

		if cfg.IsSqlite() {
			if err := s.InitialMigration(context.Background()); err != nil {
				return errors.Wrap(err, "running initial migration")
			}
			zap.S().Info("sqlite schema created")
			return nil
		}

		if cfg.Service.MigrationFolder == "" {
			return errors.New("PORTAL_MIGRATIONS_FOLDER is not set")
		}
		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
			return err
		}

		version, err := migrations.Version(db)
		if err != nil {
			return err
		}
		zap.S().Infow("db migrated", "version", version)
		return nil
	},
}
