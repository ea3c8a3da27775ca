package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables holding the store credential. Secrets stay out
// of the config file; they are resolved once here and injected.
const (
	EnvAccessKey = "VOICE_STORE_ACCESS_KEY"
	EnvSecretKey = "VOICE_STORE_SECRET_KEY"
)

// Config represents the complete service configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	HTTP        HTTPConfig        `yaml:"http"`
	Audio       AudioConfig       `yaml:"audio"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Materialize MaterializeConfig `yaml:"materialize"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StoreConfig contains object store configuration.
type StoreConfig struct {
	Backend    string `yaml:"backend"`     // "s3", "minio", or "local"
	Endpoint   string `yaml:"endpoint"`    // remote backends only
	Region     string `yaml:"region"`      // s3 only
	Bucket     string `yaml:"bucket"`      // remote backends only
	Repository string `yaml:"repository"`  // target dataset repository (key prefix)
	Subfolder  string `yaml:"subfolder"`   // record subfolder, default "data"
	UseSSL     bool   `yaml:"use_ssl"`     // minio only
	Timeout    int    `yaml:"http_timeout"` // seconds, 0 = client default

	// Credential, resolved from the environment by Load.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// AudioConfig contains audio encoding parameters.
type AudioConfig struct {
	Format           string `yaml:"format"`             // "flac" (active) or "wav" (legacy)
	TargetSampleRate int    `yaml:"target_sample_rate"` // 0 = keep submission rate
}

// IngestConfig contains upload retry parameters.
type IngestConfig struct {
	MaxAttempts  int `yaml:"max_attempts"`
	RetryBackoff int `yaml:"retry_backoff"` // seconds
}

// MaterializeConfig contains batch materialization parameters.
type MaterializeConfig struct {
	CacheDir       string `yaml:"cache_dir"`
	WorkDir        string `yaml:"work_dir"`
	ManifestPrefix string `yaml:"manifest_prefix"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file, applies defaults,
// resolves the store credential from the environment, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyDefaults()

	config.Store.AccessKey = os.Getenv(EnvAccessKey)
	config.Store.SecretKey = os.Getenv(EnvSecretKey)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills in unset optional fields.
func (c *Config) applyDefaults() {
	if c.Store.Subfolder == "" {
		c.Store.Subfolder = "data"
	}
	if c.Audio.Format == "" {
		c.Audio.Format = "flac"
	}
	if c.Ingest.MaxAttempts == 0 {
		c.Ingest.MaxAttempts = 3
	}
	if c.Ingest.RetryBackoff == 0 {
		c.Ingest.RetryBackoff = 2
	}
	if c.Materialize.CacheDir == "" {
		c.Materialize.CacheDir = "tmp_audio_root"
	}
	if c.Materialize.WorkDir == "" {
		c.Materialize.WorkDir = "work"
	}
	if c.Materialize.ManifestPrefix == "" {
		c.Materialize.ManifestPrefix = "manifests"
	}
}

// Validate performs comprehensive validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates store configuration.
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "s3", "minio":
		if s.Bucket == "" {
			return fmt.Errorf("bucket cannot be empty for backend '%s'", s.Backend)
		}
		if s.AccessKey == "" || s.SecretKey == "" {
			return fmt.Errorf("%s and %s must be set for backend '%s'",
				EnvAccessKey, EnvSecretKey, s.Backend)
		}
	case "local":
		// No credential needed; repository is the root directory.
	default:
		return fmt.Errorf("backend must be 's3', 'minio', or 'local', got '%s'", s.Backend)
	}

	if s.Repository == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	if s.Timeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative, got %d", s.Timeout)
	}

	return nil
}

// Validate validates HTTP configuration.
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	return nil
}

// Validate validates audio configuration.
func (a *AudioConfig) Validate() error {
	if a.Format != "flac" && a.Format != "wav" {
		return fmt.Errorf("format must be 'flac' or 'wav', got '%s'", a.Format)
	}

	if a.TargetSampleRate < 0 {
		return fmt.Errorf("target_sample_rate cannot be negative, got %d", a.TargetSampleRate)
	}

	return nil
}

// Validate validates ingest configuration.
func (i *IngestConfig) Validate() error {
	if i.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", i.MaxAttempts)
	}

	if i.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative, got %d", i.RetryBackoff)
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeoutDuration returns the store HTTP timeout as a time.Duration.
func (s *StoreConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetRetryBackoff returns the upload retry backoff as a time.Duration.
func (i *IngestConfig) GetRetryBackoff() time.Duration {
	return time.Duration(i.RetryBackoff) * time.Second
}

// AudioExt returns the file extension of the configured audio format.
func (a *AudioConfig) AudioExt() string {
	return a.Format
}
