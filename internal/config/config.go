// Package config loads application configuration from an optional YAML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	KeyPath     string        `yaml:"key_path"`
	DBPath      string        `yaml:"db_path"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	PollSteps   int           `yaml:"poll_steps"`
	SettleSteps int           `yaml:"settle_steps"`
	Step        time.Duration `yaml:"step"`
}

func defaults() Config {
	return Config{
		BaseURL:     "https://irbis.espysys.com",
		KeyPath:     "secret.key",
		DBPath:      "realyou.db",
		HTTPTimeout: 30 * time.Second,
		PollSteps:   10,
		SettleSteps: 20,
		Step:        time.Second,
	}
}

// Load returns the defaults, overlaid with the YAML file named by
// REALYOU_CONFIG (if set), overlaid with REALYOU_* environment variables.
// Variables: REALYOU_BASE_URL, REALYOU_KEY_PATH (secret.key),
// REALYOU_DB_PATH (realyou.db), REALYOU_HTTP_TIMEOUT (30s),
// REALYOU_POLL_STEPS (10), REALYOU_SETTLE_STEPS (20), REALYOU_STEP (1s).
func Load() (*Config, error) {
	cfg := defaults()

	if path, ok := os.LookupEnv("REALYOU_CONFIG"); ok && path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if v, ok := os.LookupEnv("REALYOU_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := os.LookupEnv("REALYOU_KEY_PATH"); ok {
		cfg.KeyPath = v
	}
	if v, ok := os.LookupEnv("REALYOU_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if err := envDuration("REALYOU_HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if err := envInt("REALYOU_POLL_STEPS", &cfg.PollSteps); err != nil {
		return nil, err
	}
	if err := envInt("REALYOU_SETTLE_STEPS", &cfg.SettleSteps); err != nil {
		return nil, err
	}
	if err := envDuration("REALYOU_STEP", &cfg.Step); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base URL must not be empty")
	case c.KeyPath == "":
		return errors.New("key path must not be empty")
	case c.DBPath == "":
		return errors.New("database path must not be empty")
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("HTTP timeout must be positive, got %s", c.HTTPTimeout)
	case c.PollSteps < 1:
		return fmt.Errorf("poll steps must be at least 1, got %d", c.PollSteps)
	case c.SettleSteps < 0:
		return fmt.Errorf("settle steps must not be negative, got %d", c.SettleSteps)
	case c.Step <= 0:
		return fmt.Errorf("step duration must be positive, got %s", c.Step)
	}
	return nil
}
