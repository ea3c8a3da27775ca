package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend:    "s3",
			Region:     "eu-west-1",
			Bucket:     "voice-data",
			Repository: "voice-so-data",
			Subfolder:  "data",
			Timeout:    30,
			AccessKey:  "test-access",
			SecretKey:  "test-secret",
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "0.0.0.0",
		},
		Audio: AudioConfig{
			Format:           "flac",
			TargetSampleRate: 16000,
		},
		Ingest: IngestConfig{
			MaxAttempts:  3,
			RetryBackoff: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Store.Backend = "ftp" },
			expectError: true,
		},
		{
			name:        "missing bucket for s3",
			mutate:      func(c *Config) { c.Store.Bucket = "" },
			expectError: true,
		},
		{
			name:        "missing credential for s3",
			mutate:      func(c *Config) { c.Store.AccessKey = "" },
			expectError: true,
		},
		{
			name: "local backend needs no credential",
			mutate: func(c *Config) {
				c.Store.Backend = "local"
				c.Store.AccessKey = ""
				c.Store.SecretKey = ""
			},
			expectError: false,
		},
		{
			name:        "missing repository",
			mutate:      func(c *Config) { c.Store.Repository = "" },
			expectError: true,
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
		},
		{
			name:        "invalid audio format",
			mutate:      func(c *Config) { c.Audio.Format = "mp3" },
			expectError: true,
		},
		{
			name:        "zero retry attempts",
			mutate:      func(c *Config) { c.Ingest.MaxAttempts = 0 },
			expectError: true,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	content := `
store:
  backend: local
  repository: ./testrepo
http:
  port: 8080
  address: "127.0.0.1"
logging:
  level: info
  format: text
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Subfolder != "data" {
		t.Errorf("Expected default subfolder 'data', got '%s'", cfg.Store.Subfolder)
	}
	if cfg.Audio.Format != "flac" {
		t.Errorf("Expected default format 'flac', got '%s'", cfg.Audio.Format)
	}
	if cfg.Ingest.MaxAttempts != 3 {
		t.Errorf("Expected default max_attempts 3, got %d", cfg.Ingest.MaxAttempts)
	}
	if cfg.Ingest.GetRetryBackoff() != 2*time.Second {
		t.Errorf("Expected default retry backoff 2s, got %v", cfg.Ingest.GetRetryBackoff())
	}
	if cfg.Materialize.ManifestPrefix != "manifests" {
		t.Errorf("Expected default manifest prefix 'manifests', got '%s'", cfg.Materialize.ManifestPrefix)
	}
}

func TestLoadCredentialFromEnvironment(t *testing.T) {
	content := `
store:
  backend: minio
  endpoint: "localhost:9000"
  bucket: voice-data
  repository: voice-so-data
http:
  port: 8080
  address: "127.0.0.1"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv(EnvAccessKey, "ak")
	t.Setenv(EnvSecretKey, "sk")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.AccessKey != "ak" || cfg.Store.SecretKey != "sk" {
		t.Errorf("Credential not resolved from environment")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}
