package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/viewui/internal/errors"
	"github.com/rileyhilliard/viewui/internal/prometheus"
)

// MinRefreshInterval is the shortest accepted refresh interval.
const MinRefreshInterval = time.Second

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}

// Validate checks the config for errors and returns the first one as a
// structured CONFIG error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if err := validatePrometheus(cfg.Prometheus); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'prometheus' section in your viewui.yaml.")
	}

	if cfg.RefreshInterval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %v is too short - the minimum is %v", cfg.RefreshInterval, MinRefreshInterval),
			"Try something like '5s' or '30s'.")
	}

	if _, err := prometheus.ParseDuration(cfg.TimeRange); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("time_range '%s' isn't a valid range", cfg.TimeRange),
			"Use a number and one unit: 30s, 5m, 6h or 7d.")
	}

	if cfg.HistorySize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history_size must be at least 1, got %d", cfg.HistorySize),
			"The default of 60 keeps five minutes of history at a 5s refresh.")
	}

	if cfg.Concurrency < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("concurrency must be at least 1, got %d", cfg.Concurrency),
			"Use 1 to fetch panels one at a time.")
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("log.level '%s' isn't valid - use 'debug', 'info', 'warn', or 'error'", cfg.Log.Level),
			"Check the 'log' section in your viewui.yaml.")
	}

	return nil
}

// validatePrometheus checks backend connection settings.
func validatePrometheus(p PrometheusConfig) error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("prometheus.url is required")
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("prometheus.url '%s' doesn't parse: %v", p.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("prometheus.url '%s' needs an http:// or https:// scheme", p.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("prometheus.url '%s' has no host", p.URL)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("prometheus.timeout must be positive, got %v", p.Timeout)
	}
	return nil
}
