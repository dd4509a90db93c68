package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable name.
const Prefix = "FACEAUTH_"

// Config contains the application configuration.
type Config struct {
	LogLevel int      `env:"LOG_LEVEL" envDefault:"0"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Database Database `envPrefix:"DATABASE_"`
	Models   Models   `envPrefix:"MODELS_"`
	Match    Match    `envPrefix:"MATCH_"`
	Camera   Camera   `envPrefix:"CAMERA_"`
}

// HTTP contains web server parameters.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:":8000"`
	IndexFile       string        `env:"INDEX_FILE" envDefault:"index.html"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Database contains database connection parameters.
type Database struct {
	DSN string `env:"DSN" envDefault:"database.db"`
}

// Models locates the dlib model files.
type Models struct {
	Dir    string `env:"DIR" envDefault:"face-recognition-models"`
	UseCNN bool   `env:"CNN" envDefault:"false"`
}

// Match contains matching parameters.
type Match struct {
	Threshold float64 `env:"THRESHOLD" envDefault:"7.0"`
}

// Camera contains frame source parameters. ReplayDir, when set, feeds the
// JPEG files in it to the server instead of the websocket camera, and
// SnapshotPath, when set, receives a copy of every frame.
type Camera struct {
	Interval     time.Duration `env:"INTERVAL" envDefault:"33ms"`
	ReplayDir    string        `env:"REPLAY_DIR"`
	SnapshotPath string        `env:"SNAPSHOT_PATH"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Match.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("match threshold must be positive, got %v", c.Match.Threshold))
	}
	if c.Camera.Interval <= 0 {
		errs = append(errs, fmt.Errorf("camera interval must be positive, got %v", c.Camera.Interval))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is empty"))
	}
	return errors.Join(errs...)
}
