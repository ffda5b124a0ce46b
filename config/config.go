package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PIMECONSOLE_LOG_LEVEL.
const EnvPrefix = "PIMECONSOLE"

// Dir returns the pimeconsole configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "pimeconsole")
}

// DefaultPath returns the path to config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Config is the console configuration.
type Config struct {
	Address    string        `mapstructure:"address" yaml:"address"`
	Simple     bool          `mapstructure:"simple" yaml:"simple"`
	Scrollback int           `mapstructure:"scrollback_lines" yaml:"scrollback_lines"`
	SendQueue  int           `mapstructure:"send_queue" yaml:"send_queue"`
	Log        LogConfig     `mapstructure:"log" yaml:"log"`
	Colors     ColorConfig   `mapstructure:"colors" yaml:"colors"`
	Monitor    MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // TUI mode only; simple mode logs to stderr
}

// ColorConfig holds lipgloss color strings ("#FFFF00", "226", ...).
type ColorConfig struct {
	Normal     string `mapstructure:"normal" yaml:"normal"`
	Highlight  string `mapstructure:"highlight" yaml:"highlight"`
	Background string `mapstructure:"background" yaml:"background"`
}

type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scrollback: 5000,
		SendQueue:  64,
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(Dir(), "console.log"),
		},
		Colors: ColorConfig{
			Normal:     "#C0C0C0",
			Highlight:  "#FFFF00",
			Background: "#000000",
		},
		Monitor: MonitorConfig{
			Interval: 5 * time.Second,
		},
	}
}

// Load reads configuration from path, falling back to DefaultPath when path is
// empty. A missing file is not an error; defaults and environment apply.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", cfg.Address)
	v.SetDefault("simple", cfg.Simple)
	v.SetDefault("scrollback_lines", cfg.Scrollback)
	v.SetDefault("send_queue", cfg.SendQueue)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("colors.normal", cfg.Colors.Normal)
	v.SetDefault("colors.highlight", cfg.Colors.Highlight)
	v.SetDefault("colors.background", cfg.Colors.Background)
	v.SetDefault("monitor.enabled", cfg.Monitor.Enabled)
	v.SetDefault("monitor.interval", cfg.Monitor.Interval)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Scrollback <= 0 {
		return fmt.Errorf("scrollback_lines must be positive, got %d", c.Scrollback)
	}
	if c.SendQueue <= 0 {
		return fmt.Errorf("send_queue must be positive, got %d", c.SendQueue)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive when the monitor is enabled")
	}
	return nil
}
