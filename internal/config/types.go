package config

import (
	"time"

	"github.com/rileyhilliard/viewui/internal/prometheus"
	"github.com/rileyhilliard/viewui/internal/store"
)

// Config represents the complete viewui.yaml configuration file.
type Config struct {
	Prometheus      PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
	Dashboard       DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard"`
	RefreshInterval time.Duration    `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	TimeRange       string           `yaml:"time_range" mapstructure:"time_range"`
	HistorySize     int              `yaml:"history_size" mapstructure:"history_size"`
	Concurrency     int              `yaml:"concurrency" mapstructure:"concurrency"`
	Log             LogConfig        `yaml:"log" mapstructure:"log"`
}

// PrometheusConfig holds the backend connection settings.
type PrometheusConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Basic auth is only sent when both are set.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// DashboardConfig locates dashboards on disk.
type DashboardConfig struct {
	// Path is the dashboard opened when none is given on the command line.
	Path string `yaml:"path" mapstructure:"path"`

	// Directory is scanned by the dashboard picker.
	Directory string `yaml:"directory" mapstructure:"directory"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level" mapstructure:"level"`

	// File receives logs while the TUI owns the terminal. Empty discards them.
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Prometheus: PrometheusConfig{
			URL:     "http://localhost:9090",
			Timeout: 10 * time.Second,
		},
		Dashboard: DashboardConfig{
			Path:      "./dashboards/example.json",
			Directory: "./dashboards",
		},
		RefreshInterval: 5 * time.Second,
		TimeRange:       "5m",
		HistorySize:     store.DefaultHistorySize,
		Concurrency:     store.DefaultConcurrency,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ClientConfig returns the Prometheus client settings.
func (c *Config) ClientConfig() prometheus.Config {
	return prometheus.Config{
		URL:      c.Prometheus.URL,
		Username: c.Prometheus.Username,
		Password: c.Prometheus.Password,
		Timeout:  c.Prometheus.Timeout,
	}
}

// StoreConfig returns the coordinator settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		TimeRange:       c.TimeRange,
		RefreshInterval: c.RefreshInterval,
		HistorySize:     c.HistorySize,
		Concurrency:     c.Concurrency,
	}
}
