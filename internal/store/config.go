package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode"`         // DRY_RUN or LIVE
	PollSeconds int    `yaml:"poll_seconds"` // tick period, minimum 1

	Feed struct {
		BaseURL           string `yaml:"base_url"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		MaxAttempts       int    `yaml:"max_attempts"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
		MinRefreshSeconds int    `yaml:"min_refresh_seconds"`
		HTMLFallback      bool   `yaml:"html_fallback"`
	} `yaml:"feed"`

	Store struct {
		Driver string `yaml:"driver"` // memory or postgres
		DSNEnv string `yaml:"dsn_env"`
	} `yaml:"store"`

	Executor struct {
		API struct {
			BaseURL        string `yaml:"base_url"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"api"`
		Automation struct {
			Command        string `yaml:"command"`
			Script         string `yaml:"script"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"automation"`
	} `yaml:"executor"`

	WS struct {
		ListenAddr    string `yaml:"listen_addr"`
		SendBufferLen int    `yaml:"send_buffer_len"`
	} `yaml:"ws"`

	Metrics struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.PollSeconds < 1 {
		return fmt.Errorf("poll_seconds must be >= 1, got %d", c.PollSeconds)
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url cannot be empty")
	}
	if c.Store.Driver != "memory" && c.Store.Driver != "postgres" {
		return fmt.Errorf("store.driver must be 'memory' or 'postgres', got '%s'", c.Store.Driver)
	}
	if c.Feed.MaxAttempts < 1 {
		return fmt.Errorf("feed.max_attempts must be >= 1, got %d", c.Feed.MaxAttempts)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 5
	}
	if c.Feed.TimeoutSeconds == 0 {
		c.Feed.TimeoutSeconds = 10
	}
	if c.Feed.MaxAttempts == 0 {
		c.Feed.MaxAttempts = 3
	}
	if c.Feed.RetryDelaySeconds == 0 {
		c.Feed.RetryDelaySeconds = 2
	}
	if c.Feed.MinRefreshSeconds == 0 {
		c.Feed.MinRefreshSeconds = 5
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Executor.Automation.Command == "" {
		c.Executor.Automation.Command = "python3"
	}
	if c.Executor.Automation.TimeoutSeconds == 0 {
		c.Executor.Automation.TimeoutSeconds = 120
	}
	if c.WS.SendBufferLen == 0 {
		c.WS.SendBufferLen = 16
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// PollInterval returns the tick period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}
