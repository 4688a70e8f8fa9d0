package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"portal"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"PORTAL_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"PORTAL_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	MigrationFolder string   `envconfig:"PORTAL_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string `envconfig:"PORTAL_ALLOWED_ORIGINS" default:"*"`
	Sweeper         sweeperConfig
}

// sweeperConfig drives the optional periodic pool sweep. A zero interval disables it and
// pooled tasks are only picked up when an evaluator fetches unmarked work.
type sweeperConfig struct {
	Interval time.Duration `envconfig:"PORTAL_SWEEP_INTERVAL" default:"0s"`
	Jitter   time.Duration `envconfig:"PORTAL_SWEEP_JITTER" default:"5s"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// NewDefault returns a fresh configuration built from the environment and the tag defaults.
// It ignores the cached instance returned by New.
func NewDefault() *Config {
	cfg, err := load()
	if err != nil {
		return &Config{Database: &dbConfig{Type: "sqlite", Name: ":memory:"}, Service: &svcConfig{LogLevel: "info"}}
	}
	return cfg
}

// NewSqlite returns the default configuration backed by the given sqlite database.
// ":memory:" gives every call its own throwaway database.
func NewSqlite(name string) *Config {
	cfg := NewDefault()
	cfg.Database = &dbConfig{Type: "sqlite", Name: name}
	return cfg
}

func load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsSqlite() bool {
	return c.Database.Type == "sqlite"
}
