package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/evalportal/assessment-portal/internal/config"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/ngrok/sqlmw"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const instrumentedDriverName = "pgx-instrumented"

var registerDriver sync.Once

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dia gorm.Dialector

	if cfg.IsSqlite() {
		dia = sqlite.Open(sqliteDSN(cfg.Database.Name))
	} else {
		registerDriver.Do(func() {
			sql.Register(instrumentedDriverName, sqlmw.Driver(stdlib.GetDefaultDriver(), new(metricInterceptor)))
		})

		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Database.Hostname,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Port,
		)
		if cfg.Database.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
		}
		dia = postgres.New(postgres.Config{DriverName: instrumentedDriverName, DSN: dsn})
	}

	newLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure connections")
	}

	if cfg.IsSqlite() {
		// a single connection serializes writers and keeps an in-memory database alive
		sqlDB.SetMaxOpenConns(1)
		return newDB, nil
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	var version string
	if result := newDB.Raw("SELECT version()").Scan(&version); result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query server version")
	}
	zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", version)

	return newDB, nil
}

func sqliteDSN(name string) string {
	if name == "" {
		name = ":memory:"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", name)
}
