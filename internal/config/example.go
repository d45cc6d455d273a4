package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/viewui/internal/errors"
)

// WriteExample writes a commented config holding the defaults to path. An
// existing file is only replaced when force is set.
func WriteExample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			"Config file already exists: "+path,
			"Use --force to overwrite it")
	}

	data, err := ExampleYAML()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode example config", "")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot create config directory "+dir, "Check directory permissions")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file "+path, "Check file permissions")
	}
	return nil
}

// ExampleYAML renders the default config with a comment on each key.
// Durations are written as text so the file reads the way users write it.
func ExampleYAML() ([]byte, error) {
	def := DefaultConfig()

	root := mapping("",
		pair("prometheus", "Prometheus-compatible backend", mapping("",
			pair("url", "", scalar(def.Prometheus.URL)),
			pair("timeout", "Per-request timeout", scalar(formatDuration(def.Prometheus.Timeout))),
			pair("username", "Basic auth, sent only when both are set", scalar(def.Prometheus.Username)),
			pair("password", "", scalar(def.Prometheus.Password)),
		)),
		pair("dashboard", "Grafana dashboard JSON exports", mapping("",
			pair("path", "Opened when no dashboard is given on the command line", scalar(def.Dashboard.Path)),
			pair("directory", "Scanned by the dashboard picker", scalar(def.Dashboard.Directory)),
		)),
		pair("refresh_interval", "How often every panel is re-queried", scalar(formatDuration(def.RefreshInterval))),
		pair("time_range", "Query window: <n>s, <n>m, <n>h or <n>d", scalar(def.TimeRange)),
		pair("history_size", "Samples kept per panel query for trends", intScalar(def.HistorySize)),
		pair("concurrency", "Panels fetched at once", intScalar(def.Concurrency)),
		pair("log", "", mapping("",
			pair("level", "debug, info, warn or error", scalar(def.Log.Level)),
			pair("file", "Log destination while the dashboard is open; empty discards", scalar(def.Log.File)),
		)),
	)

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return []byte(buf.String()), nil
}

type keyValue struct {
	key   *yaml.Node
	value *yaml.Node
}

func pair(key, comment string, value *yaml.Node) keyValue {
	return keyValue{
		key:   &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, HeadComment: comment},
		value: value,
	}
}

func mapping(comment string, pairs ...keyValue) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", HeadComment: comment}
	for _, p := range pairs {
		n.Content = append(n.Content, p.key, p.value)
	}
	return n
}

func scalar(value string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if value == "" {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func intScalar(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)}
}

// formatDuration renders d without the trailing zero units time.Duration
// prints, so 5m0s becomes 5m.
func formatDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
