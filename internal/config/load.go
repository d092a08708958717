package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load consults, e.g.
// TASKAPI_SERVER_PORT for server.port.
const EnvPrefix = "TASKAPI"

var defaults = map[string]any{
	"server.port":                     4000,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 10,
	"database.driver":                 DriverPostgres,
	"database.url":                    "",
	"database.max_open_conns":         10,
	"api.strict_decoding":             false,
	"api.default_task_limit":          100,
	"reconcile.schedule":              "",
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence. When configFile is empty a
// file named config.{yaml,toml,json} is looked up in the working directory;
// its absence is not an error. Returns a populated Config or an error if
// loading or validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults double as the key list AutomaticEnv needs to resolve nested
	// keys during Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
