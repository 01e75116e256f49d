package cli

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds daemon configuration, populated from PM_* environment
// variables. Command-line flags take these values as defaults and override
// them when set.
type Config struct {
	// UpstreamURL is the playback service websocket endpoint.
	UpstreamURL string `env:"PM_UPSTREAM_URL" envDefault:"ws://127.0.0.1:9300/playback"`

	// DiagAddr is the listen address for the diagnostic HTTP endpoint.
	DiagAddr string `env:"PM_DIAG_ADDR" envDefault:"127.0.0.1:9301"`

	// ResolverURL is the registry service base URL for resolving client
	// display names. Empty disables resolution; the diagnostic output then
	// shows bare client ids.
	ResolverURL string `env:"PM_RESOLVER_URL"`

	// LogLevel is the minimum log level (DEBUG, INFO, WARN, ERROR).
	LogLevel string `env:"PM_LOG_LEVEL" envDefault:"INFO"`

	// RegisterInterval is how often the daemon re-attempts upstream
	// registration while unregistered. Each tick is a single lazy attempt.
	RegisterInterval time.Duration `env:"PM_REGISTER_INTERVAL" envDefault:"10s"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
