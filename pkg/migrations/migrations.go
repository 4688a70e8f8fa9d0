package migrations

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateStore applies the sql migrations found in migrationFolder. The migrations target
// postgres; sqlite databases are created with the store's auto migration.
func MigrateStore(db *gorm.DB, migrationFolder string) error {
	goose.SetLogger(&logger{})

	fi, err := os.Stat(migrationFolder)
	if err != nil {
		return err
	}

	if !fi.Mode().IsDir() {
		return fmt.Errorf("failed to open migration folder: %s is not a folder", migrationFolder)
	}

	goose.SetBaseFS(os.DirFS(migrationFolder))

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := goose.Up(sqlDB, "."); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}

	return nil
}

// Version reports the latest applied migration.
func Version(db *gorm.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersion(sqlDB)
}

/*
logger implements goose.Logger interface

	type Logger interface {
		Fatalf(format string, v ...interface{})
		Printf(format string, v ...interface{})
	}
*/
type logger struct{}

func (m *logger) Printf(format string, v ...interface{}) { zap.S().Named("migrations").Infof(format, v...) }
func (m *logger) Fatalf(format string, v ...interface{}) { zap.S().Named("migrations").Fatalf(format, v...) }
