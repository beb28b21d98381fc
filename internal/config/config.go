// Package config loads the status platform configuration from a YAML file
// overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loyalhood/loyalhood/internal/website"
)

// Config holds configuration shared by the API server, the worker and the
// status board.
type Config struct {
	// Sites are the websites probed by the monitor and shown on the board.
	Sites []website.Site `yaml:"sites"`

	// CheckIntervalSeconds is the pause between background check cycles.
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`

	// ProbeTimeoutSeconds bounds each website probe.
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`

	// ProbeConcurrency is the number of sites probed at once.
	ProbeConcurrency int `yaml:"probe_concurrency"`

	// RetentionDays is how long check results are kept before cleanup.
	RetentionDays int `yaml:"retention_days"`

	// PollIntervalSeconds is the status board refresh interval.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// ClientTimeoutSeconds bounds each status API request made by the board.
	ClientTimeoutSeconds int `yaml:"client_timeout_seconds"`

	// The fields below come from the environment only.

	Port         string   `yaml:"-"`
	Env          string   `yaml:"-"`
	OTelEnabled  bool     `yaml:"-"`
	OTLPEndpoint string   `yaml:"-"`
	APIURL       string   `yaml:"-"`
	AdminJWTKey  string   `yaml:"-"`
	CORSOrigins  []string `yaml:"-"`
	PubSub       PubSub   `yaml:"-"`
}

// PubSub holds the job queue settings. Empty ProjectID disables Pub/Sub.
type PubSub struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// Enabled reports whether Pub/Sub is configured.
func (p PubSub) Enabled() bool {
	return p.ProjectID != ""
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Sites:                website.DefaultSites(),
		CheckIntervalSeconds: 30,
		ProbeTimeoutSeconds:  5,
		ProbeConcurrency:     3,
		RetentionDays:        30,
		PollIntervalSeconds:  30,
		ClientTimeoutSeconds: 10,
		Port:                 "8080",
		Env:                  "development",
		OTLPEndpoint:         "localhost:4317",
		APIURL:               "http://localhost:8080",
		CORSOrigins:          []string{"*"},
		PubSub: PubSub{
			Topic:        "status-jobs",
			Subscription: "status-jobs-worker",
		},
	}
}

// Load reads the YAML file at path. A missing file or empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads the file named by STATUS_CONFIG and applies environment
// overrides on top of it.
func FromEnv() (Config, error) {
	cfg, err := Load(os.Getenv("STATUS_CONFIG"))
	if err != nil {
		return Config{}, err
	}

	cfg.Port = getEnvOrDefault("APP_PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("APP_ENV", cfg.Env)
	cfg.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	cfg.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.APIURL = strings.TrimSuffix(getEnvOrDefault("STATUS_API_URL", cfg.APIURL), "/")
	cfg.AdminJWTKey = os.Getenv("ADMIN_JWT_KEY")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.PubSub.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	cfg.PubSub.Topic = getEnvOrDefault("PUBSUB_TOPIC", cfg.PubSub.Topic)
	cfg.PubSub.Subscription = getEnvOrDefault("PUBSUB_SUBSCRIPTION", cfg.PubSub.Subscription)

	return cfg, nil
}

func (c *Config) normalize() error {
	defaults := DefaultConfig()
	if c.CheckIntervalSeconds <= 0 {
		c.CheckIntervalSeconds = defaults.CheckIntervalSeconds
	}
	if c.ProbeTimeoutSeconds <= 0 {
		c.ProbeTimeoutSeconds = defaults.ProbeTimeoutSeconds
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = defaults.ProbeConcurrency
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaults.RetentionDays
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = defaults.PollIntervalSeconds
	}
	if c.ClientTimeoutSeconds <= 0 {
		c.ClientTimeoutSeconds = defaults.ClientTimeoutSeconds
	}

	if len(c.Sites) == 0 {
		return errors.New("configuration must define at least one site")
	}
	seen := make(map[string]bool, len(c.Sites))
	for i, s := range c.Sites {
		if s.Host == "" {
			return fmt.Errorf("site %d is missing host", i)
		}
		if seen[s.Host] {
			return fmt.Errorf("site %s is defined twice", s.Host)
		}
		seen[s.Host] = true
	}
	return nil
}

// CheckInterval returns the background check interval.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// ProbeTimeout returns the per-probe timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// Retention returns how long check results are kept.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// PollInterval returns the status board refresh interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ClientTimeout returns the status API request timeout.
func (c Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutSeconds) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
