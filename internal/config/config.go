package config

import "time"

// Supported values for DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	API       APIConfig       `mapstructure:"api"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig selects and configures the persistence backend. URL is a
// PostgreSQL DSN for the postgres driver and a file path for sqlite.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"         validate:"required,oneof=postgres sqlite memory"`
	URL          string `mapstructure:"url"            validate:"required_unless=Driver memory"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
}

// APIConfig tunes request handling.
type APIConfig struct {
	// StrictDecoding rejects request bodies carrying unknown fields.
	StrictDecoding bool `mapstructure:"strict_decoding"`
	// DefaultTaskLimit caps GET /tasks when the request has no limit
	// parameter. Zero disables the cap.
	DefaultTaskLimit int `mapstructure:"default_task_limit" validate:"gte=0"`
}

// ReconcileConfig schedules the background consistency sweep. An empty
// Schedule disables it.
type ReconcileConfig struct {
	Schedule string `mapstructure:"schedule"`
}
