package config

import (
	"time"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/api"
	redisstore "github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/redis"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/storage/postgres"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/tenant"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	API      api.Config        `yaml:"api"`
	Tenant   tenant.Config     `yaml:"tenant"`
	Retry    RetryConfig       `yaml:"retry"`
	Redis    redisstore.Config `yaml:"redis"`
	Database postgres.Config   `yaml:"database"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RetryConfig holds the default retry policy for remote operations.
type RetryConfig struct {
	Retries   int           `yaml:"retries"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
