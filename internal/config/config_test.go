package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "index.html", cfg.HTTP.IndexFile)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "database.db", cfg.Database.DSN)
	assert.Equal(t, "face-recognition-models", cfg.Models.Dir)
	assert.Equal(t, false, cfg.Models.UseCNN)
	assert.Equal(t, 7.0, cfg.Match.Threshold)
	assert.Equal(t, 33*time.Millisecond, cfg.Camera.Interval)
	assert.Empty(t, cfg.Camera.ReplayDir)
	assert.Empty(t, cfg.Camera.SnapshotPath)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name: "log level override",
			envVars: map[string]string{
				"FACEAUTH_LOG_LEVEL": "-4",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.LogLevel)
			},
		},
		{
			name: "http config override",
			envVars: map[string]string{
				"FACEAUTH_HTTP_ADDR":             "127.0.0.1:9000",
				"FACEAUTH_HTTP_INDEX_FILE":       "web/index.html",
				"FACEAUTH_HTTP_SHUTDOWN_TIMEOUT": "1m",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
				assert.Equal(t, "web/index.html", cfg.HTTP.IndexFile)
				assert.Equal(t, time.Minute, cfg.HTTP.ShutdownTimeout)
			},
		},
		{
			name: "database config override",
			envVars: map[string]string{
				"FACEAUTH_DATABASE_DSN": "/var/lib/faceauth/farm.db",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "/var/lib/faceauth/farm.db", cfg.Database.DSN)
			},
		},
		{
			name: "models config override",
			envVars: map[string]string{
				"FACEAUTH_MODELS_DIR": "/opt/dlib",
				"FACEAUTH_MODELS_CNN": "true",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "/opt/dlib", cfg.Models.Dir)
				assert.Equal(t, true, cfg.Models.UseCNN)
			},
		},
		{
			name: "match config override",
			envVars: map[string]string{
				"FACEAUTH_MATCH_THRESHOLD": "0.6",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, 0.6, cfg.Match.Threshold)
			},
		},
		{
			name: "camera config override",
			envVars: map[string]string{
				"FACEAUTH_CAMERA_INTERVAL":      "100ms",
				"FACEAUTH_CAMERA_REPLAY_DIR":    "/tmp/frames",
				"FACEAUTH_CAMERA_SNAPSHOT_PATH": "image.jpeg",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, 100*time.Millisecond, cfg.Camera.Interval)
				assert.Equal(t, "/tmp/frames", cfg.Camera.ReplayDir)
				assert.Equal(t, "image.jpeg", cfg.Camera.SnapshotPath)
			},
		},
		{
			name: "unprefixed variables are ignored",
			envVars: map[string]string{
				"DATABASE_DSN": "ignored.db",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "database.db", cfg.Database.DSN)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)
			tt.expected(cfg)
		})
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"FACEAUTH_MATCH_THRESHOLD": "0",
		"FACEAUTH_CAMERA_INTERVAL": "-1s",
		"FACEAUTH_LOG_LEVEL":       "loud",
	}

	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
