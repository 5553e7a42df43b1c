// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AuthToken      string        `yaml:"auth_token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type PollConfig struct {
	Interval      time.Duration `yaml:"interval"`       // delay between status polls
	Timeout       time.Duration `yaml:"timeout"`        // overall session deadline
	SegmentBudget time.Duration `yaml:"segment_budget"` // per-attempt progress window
	MaxAttempts   int           `yaml:"max_attempts"`   // visible attempts, not server retries
}

type PresenterConfig struct {
	RotationPeriod   time.Duration `yaml:"rotation_period"`
	SuccessAnimation time.Duration `yaml:"success_animation"`
	DefaultText      string        `yaml:"default_text"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StubConfig drives the local dev backend that emulates the production job API.
type StubConfig struct {
	Port          int           `yaml:"port"`
	Redis         RedisConfig   `yaml:"redis"`          // optional; rate limiting is off without it
	RateLimit     int           `yaml:"rate_limit"`     // job creations per window per caller
	RateWindow    time.Duration `yaml:"rate_window"`    //
	PendingDelay  time.Duration `yaml:"pending_delay"`  // time a job sits pending
	StepDuration  time.Duration `yaml:"step_duration"`  // simulated processing time per attempt
	SuggestedPoll time.Duration `yaml:"suggested_poll"` // polling_interval hint in create responses
}

type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Poll      PollConfig      `yaml:"poll"`
	Presenter PresenterConfig `yaml:"presenter"`
	Log       LogConfig       `yaml:"log"`
	Stub      StubConfig      `yaml:"stub"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}
	if _, err := url.Parse(cfg.Backend.BaseURL); err != nil {
		return nil, fmt.Errorf("backend.base_url: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills zero values with the production defaults. Exposed so
// the stub server can run without a config file in dev.
func (cfg *Config) ApplyDefaults() {
	if cfg.Backend.RequestTimeout <= 0 {
		cfg.Backend.RequestTimeout = 15 * time.Second
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 3 * time.Second
	}
	if cfg.Poll.Timeout <= 0 {
		cfg.Poll.Timeout = 5 * time.Minute
	}
	if cfg.Poll.SegmentBudget <= 0 {
		cfg.Poll.SegmentBudget = 20 * time.Second
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = 3
	}
	if cfg.Presenter.RotationPeriod <= 0 {
		cfg.Presenter.RotationPeriod = 3 * time.Second
	}
	if cfg.Presenter.SuccessAnimation <= 0 {
		cfg.Presenter.SuccessAnimation = 300 * time.Millisecond
	}
	if cfg.Presenter.DefaultText == "" {
		cfg.Presenter.DefaultText = "Generating your recipe..."
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Stub.Port == 0 {
		cfg.Stub.Port = 8085
	}
	if cfg.Stub.RateLimit <= 0 {
		cfg.Stub.RateLimit = 10
	}
	if cfg.Stub.RateWindow <= 0 {
		cfg.Stub.RateWindow = time.Minute
	}
	if cfg.Stub.PendingDelay <= 0 {
		cfg.Stub.PendingDelay = time.Second
	}
	if cfg.Stub.StepDuration <= 0 {
		cfg.Stub.StepDuration = 8 * time.Second
	}
	if cfg.Stub.SuggestedPoll <= 0 {
		cfg.Stub.SuggestedPoll = 3 * time.Second
	}
}
