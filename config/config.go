package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port               string        `env:"PORT" envDefault:"3169"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:8080"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Liveness settings. A session is evicted after MaxMissedHeartbeats
	// consecutive failed probes.
	HeartbeatInterval   time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"10s"`
	MaxMissedHeartbeats int           `env:"MAX_MISSED_HEARTBEATS" envDefault:"3"`

	// MaxHistory is the number of messages retained per room.
	MaxHistory int `env:"MAX_HISTORY" envDefault:"100"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
