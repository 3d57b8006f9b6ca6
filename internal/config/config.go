// Package config holds the shell's settings and loads them from a TOML or
// YAML file with environment overrides.
//
// Precedence, lowest first: built-in defaults, the config file, LUASH_*
// environment variables, then whatever the caller applies on top (command
// line flags).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/dshills/luash/internal/config/loader"
	"github.com/dshills/luash/internal/expand"
	"github.com/dshills/luash/internal/highlight"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LUASH_"

// Config is the full set of shell settings.
type Config struct {
	StartupFile         string            `toml:"startup_file" yaml:"startup_file"`
	HistoryFile         string            `toml:"history_file" yaml:"history_file"`
	Prompt              string            `toml:"prompt" yaml:"prompt"`
	KeyboardEnhancement bool              `toml:"keyboard_enhancement" yaml:"keyboard_enhancement"`
	LogLevel            string            `toml:"log_level" yaml:"log_level"`
	LogFile             string            `toml:"log_file" yaml:"log_file"`
	Theme               map[string]string `toml:"theme,omitempty" yaml:"theme,omitempty"`
}

// Default returns the built-in settings. Theme is empty; unset token
// classes use highlight.DefaultTheme.
func Default() *Config {
	return &Config{
		StartupFile:         "~/.luash.lua",
		HistoryFile:         "~/.luash_history",
		Prompt:              "> ",
		KeyboardEnhancement: true,
		LogLevel:            "info",
	}
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME,
// falling back to ~/.config.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return expand.Path(filepath.Join(base, "luash", "config.toml"))
}

var envMapping = map[string]string{
	EnvPrefix + "STARTUP_FILE":         "startup_file",
	EnvPrefix + "HISTORY_FILE":         "history_file",
	EnvPrefix + "PROMPT":               "prompt",
	EnvPrefix + "KEYBOARD_ENHANCEMENT": "keyboard_enhancement",
	EnvPrefix + "LOG_LEVEL":            "log_level",
	EnvPrefix + "LOG_FILE":             "log_file",
}

// Loader builds a Config from defaults, a file and the environment.
type Loader struct {
	env       *loader.EnvLoader
	writeFile func(path string, data []byte) error
}

// NewLoader creates a loader reading LUASH_* variables from the process
// environment.
func NewLoader() *Loader {
	return &Loader{
		env:       loader.NewEnvLoader(EnvPrefix, envMapping),
		writeFile: writeFile,
	}
}

// Load reads the config file at path. When path is empty the default
// location is used and, if nothing is there yet, a file holding the
// defaults is written. An explicit path that does not exist is an error.
func (l *Loader) Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	fl := loader.ForPath(path)
	found, err := fl.LoadFrom(path, cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if err := l.writeDefaults(fl, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(l.env.Load()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) writeDefaults(fl loader.FileLoader, path string) error {
	def := Default()
	def.Theme = highlight.DefaultTheme()
	data, err := fl.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := l.writeFile(path, data); err != nil {
		return fmt.Errorf("writing default config %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overlays values keyed by setting name. Keys of the form
// theme.<class> set a theme colour; unknown keys are ignored.
func (c *Config) ApplyEnv(values map[string]string) error {
	for key, val := range values {
		if class, ok := strings.CutPrefix(key, "theme."); ok {
			if c.Theme == nil {
				c.Theme = make(map[string]string)
			}
			c.Theme[class] = val
			continue
		}
		switch key {
		case "startup_file":
			c.StartupFile = val
		case "history_file":
			c.HistoryFile = val
		case "prompt":
			c.Prompt = val
		case "keyboard_enhancement":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return &ValidationError{Path: key, Message: "expected a boolean", Value: val}
			}
			c.KeyboardEnhancement = b
		case "log_level":
			c.LogLevel = val
		case "log_file":
			c.LogFile = val
		}
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.StartupFile == "" {
		return &ValidationError{Path: "startup_file", Message: "must not be empty"}
	}
	if c.HistoryFile == "" {
		return &ValidationError{Path: "history_file", Message: "must not be empty"}
	}
	if _, err := zapcore.ParseLevel(levelName(c.LogLevel)); err != nil {
		return &ValidationError{Path: "log_level", Message: "unknown level", Value: c.LogLevel}
	}
	if _, err := highlight.New(c.Theme); err != nil {
		return &ValidationError{Path: "theme", Message: err.Error()}
	}
	return nil
}

// levelName maps the "warning" alias onto zap's level names.
func levelName(s string) string {
	s = strings.ToLower(s)
	if s == "warning" {
		return "warn"
	}
	return s
}

// Resolve returns a copy with ~ and $VAR expanded in file paths.
func (c *Config) Resolve(exp *expand.Expander) *Config {
	out := *c
	out.StartupFile = exp.Path(c.StartupFile)
	out.HistoryFile = exp.Path(c.HistoryFile)
	if c.LogFile != "" {
		out.LogFile = exp.Path(c.LogFile)
	}
	if c.Theme != nil {
		out.Theme = make(map[string]string, len(c.Theme))
		for k, v := range c.Theme {
			out.Theme[k] = v
		}
	}
	return &out
}
