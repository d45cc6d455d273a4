package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/rileyhilliard/viewui/internal/errors"
)

const (
	// ConfigFileName is the config file looked up in the current directory.
	ConfigFileName = "viewui.yaml"
	// GlobalConfigDir is the directory under the user config dir.
	GlobalConfigDir = "viewui"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. VIEWUI_PROMETHEUS_URL.
	EnvPrefix = "VIEWUI"
)

// Load reads config from path, applies environment overrides and fills in
// defaults. An empty path yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+path,
					"Run 'viewui init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+path,
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. viewui.yaml in the current directory
// 3. $XDG_CONFIG_HOME/viewui/config.yaml
// 4. ~/.config/viewui/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandPath(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// searchPaths lists the implicit config locations in priority order.
func searchPaths() []string {
	paths := []string{ConfigFileName}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, GlobalConfigDir, GlobalConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", GlobalConfigDir, GlobalConfigFile))
	}
	return paths
}

// LoadOrDefault finds and loads the config, falling back to defaults when no
// file exists. It returns the path that was loaded, if any.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(durationHook))
	if err := v.Unmarshal(cfg, hook); err != nil {
		source := "the environment"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax and value types in "+source)
	}

	cfg.Dashboard.Path = ExpandPath(cfg.Dashboard.Path)
	cfg.Dashboard.Directory = ExpandPath(cfg.Dashboard.Directory)
	cfg.Log.File = ExpandPath(cfg.Log.File)
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file omits them.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("prometheus.url", def.Prometheus.URL)
	v.SetDefault("prometheus.timeout", def.Prometheus.Timeout.String())
	v.SetDefault("prometheus.username", def.Prometheus.Username)
	v.SetDefault("prometheus.password", def.Prometheus.Password)
	v.SetDefault("dashboard.path", def.Dashboard.Path)
	v.SetDefault("dashboard.directory", def.Dashboard.Directory)
	v.SetDefault("refresh_interval", def.RefreshInterval.String())
	v.SetDefault("time_range", def.TimeRange)
	v.SetDefault("history_size", def.HistorySize)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
}

// durationHook decodes duration text with day and week units ("1d", "2w")
// as well as Go syntax, and bare numbers as seconds.
func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		s := strings.TrimSpace(reflect.ValueOf(data).String())
		if s == "" {
			return time.Duration(0), nil
		}
		return ParseDuration(s)
	case reflect.Int, reflect.Int64, reflect.Int32:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Float64, reflect.Float32:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	}
	return data, nil
}

// ParseDuration parses Go duration syntax extended with d and w units.
func ParseDuration(s string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid duration "+s,
			"Use a duration like 500ms, 10s, 5m or 1d")
	}
	return d, nil
}
