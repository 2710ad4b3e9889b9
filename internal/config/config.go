package config

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	// SessionTTL is how long a study session may sit idle before it is
	// dropped. Zero disables expiry.
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gte=0"`
}

// Storage drivers accepted by DatabaseConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// DatabaseConfig selects and configures the storage collaborator.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres sqlite dynamodb"`

	// postgres
	URL string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`

	// sqlite
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`

	// dynamodb
	DynamoTable    string `mapstructure:"dynamo_table" validate:"required_if=Driver dynamodb"`
	DynamoRegion   string `mapstructure:"dynamo_region"`
	DynamoEndpoint string `mapstructure:"dynamo_endpoint" validate:"omitempty,url"`
}

// SchedulerConfig holds the product constants of the scheduling engine.
type SchedulerConfig struct {
	TimezoneOffsetHours int     `mapstructure:"timezone_offset_hours" validate:"gte=-12,lte=14"`
	PassThreshold       int     `mapstructure:"pass_threshold" validate:"gte=1,lte=5"`
	FastLatencyMs       int64   `mapstructure:"fast_latency_ms" validate:"gt=0"`
	MediumLatencyMs     int64   `mapstructure:"medium_latency_ms" validate:"gtefield=FastLatencyMs"`
	MaxSampleWeight     int     `mapstructure:"max_sample_weight" validate:"gte=1"`
	NewItemShare        float64 `mapstructure:"new_item_share" validate:"gt=0,lte=1"`
	SecondsPerItem      int     `mapstructure:"seconds_per_item" validate:"gt=0"`
	DefaultMaxTerms     int     `mapstructure:"default_max_terms" validate:"gt=0"`
}

// ParamsConfig maps the scheduler section onto the engine's parameter overrides.
func (s SchedulerConfig) ParamsConfig() srs.ParamsConfig {
	return srs.ParamsConfig{
		PassThreshold:   s.PassThreshold,
		FastLatencyMs:   s.FastLatencyMs,
		MediumLatencyMs: s.MediumLatencyMs,
		MaxSampleWeight: s.MaxSampleWeight,
		NewItemShare:    s.NewItemShare,
		SecondsPerItem:  s.SecondsPerItem,
		UTCOffsetHours:  s.TimezoneOffsetHours,
		UTCOffsetSet:    true,
	}
}
