package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/chan4lk/spacemap/internal/domain"
)

const (
	appName        = "spacemap"
	configFileName = "config.yaml"
	logFileName    = "spacemap.log"
)

// Config holds every tunable of the application. Precedence is
// defaults < config file < environment < flags, all resolved through one
// viper instance.
type Config struct {
	Root           string       `mapstructure:"root" yaml:"root"`
	FollowSymlinks bool         `mapstructure:"follow_symlinks" yaml:"follow_symlinks"`
	MaxDepth       int          `mapstructure:"max_depth" yaml:"max_depth"`
	IncludeHidden  bool         `mapstructure:"include_hidden" yaml:"include_hidden"`
	SafeMode       bool         `mapstructure:"safe_mode" yaml:"safe_mode"`
	Sort           string       `mapstructure:"sort" yaml:"sort"`
	Theme          string       `mapstructure:"theme" yaml:"theme"`
	PresetsFile    string       `mapstructure:"presets_file" yaml:"presets_file"`
	Preset         string       `mapstructure:"preset" yaml:"preset,omitempty"`
	Log            LogConfig    `mapstructure:"log" yaml:"log"`
	Report         ReportConfig `mapstructure:"report" yaml:"report"`
}

type LogConfig struct {
	// File receives the JSON log stream; empty disables logging entirely.
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

type ReportConfig struct {
	Top     int      `mapstructure:"top" yaml:"top"`
	MinSize string   `mapstructure:"min_size" yaml:"min_size"`
	Ext     []string `mapstructure:"ext" yaml:"ext,omitempty"`
}

// NewViper returns a viper instance carrying the defaults and environment
// wiring. Flag sets bind into the same instance before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("root", ".")
	v.SetDefault("follow_symlinks", false)
	v.SetDefault("max_depth", 0)
	v.SetDefault("include_hidden", false)
	v.SetDefault("safe_mode", true)
	v.SetDefault("sort", "size")
	v.SetDefault("theme", "dark")
	v.SetDefault("presets_file", "")
	v.SetDefault("preset", "")
	v.SetDefault("log.file", DefaultLogPath())
	v.SetDefault("log.level", "info")
	v.SetDefault("report.top", 10)
	v.SetDefault("report.min_size", "")
	v.SetDefault("report.ext", []string{})

	v.SetEnvPrefix("SPACEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file into v and unmarshals the result.
// An explicit file must exist; the default location may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", file, err)
		}
	} else if path, err := DefaultPath(); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPath is the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, configFileName), nil
}

// DefaultLogPath is the per-user log file location; empty when no cache
// directory can be resolved.
func DefaultLogPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, appName, logFileName)
}

func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, ok := domain.ParseSortMode(c.Sort); !ok {
		return fmt.Errorf("unknown sort %q (have: size, name, mod)", c.Sort)
	}
	switch c.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q (have: dark, light)", c.Theme)
	}
	if c.Preset != "" && c.PresetsFile == "" {
		return fmt.Errorf("preset %q requires presets_file", c.Preset)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (have: debug, info, warn, error)", c.Log.Level)
	}
	if c.Report.Top <= 0 {
		return fmt.Errorf("report.top must be positive, got %d", c.Report.Top)
	}
	if c.Report.MinSize != "" {
		if _, err := humanize.ParseBytes(c.Report.MinSize); err != nil {
			return fmt.Errorf("report.min_size %q: %w", c.Report.MinSize, err)
		}
	}
	return nil
}

// ReportMinBytes resolves report.min_size; Validate has already checked it.
func (c *Config) ReportMinBytes() uint64 {
	if c.Report.MinSize == "" {
		return 0
	}
	n, err := humanize.ParseBytes(c.Report.MinSize)
	if err != nil {
		return 0
	}
	return n
}

// SortMode resolves the configured sort order.
func (c *Config) SortMode() domain.SortMode {
	mode, _ := domain.ParseSortMode(c.Sort)
	return mode
}
