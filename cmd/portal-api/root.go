package main

import (
	"github.com/evalportal/assessment-portal/internal/config"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "portal-api",
	Short:        "Assessment portal api",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

func openStore(cfg *config.Config) (store.Store, error) {
	zap.S().Info("Initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	return store.NewStore(db), nil
}
