// Package config loads and validates the rule configuration
// (.claude/hooks.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-project and per-user configuration directory.
	DirName = ".claude"
	// FileName is the configuration file inside DirName.
	FileName = "hooks.yaml"

	defaultVersion        = "1.0"
	defaultLogLevel       = "info"
	defaultMaxContextSize = 1024 * 1024
	defaultScriptTimeout  = 5
)

// Config is the policy document evaluated for every event.
type Config struct {
	Version  string   `yaml:"version"`
	Rules    []Rule   `yaml:"rules"`
	Settings Settings `yaml:"settings"`

	// Source is the file the configuration was read from.
	// It is empty for the built-in default.
	Source string `yaml:"-"`
}

// Settings are global evaluation settings.
type Settings struct {
	LogLevel string `yaml:"log_level"`
	// MaxContextSize bounds the injected context, in bytes.
	MaxContextSize int `yaml:"max_context_size"`
	// ScriptTimeout is the default script timeout, in seconds.
	ScriptTimeout int `yaml:"script_timeout"`
	// FailOpen decides whether execution failures allow (true) or block (false).
	FailOpen  bool `yaml:"fail_open"`
	DebugLogs bool `yaml:"debug_logs"`
}

// DefaultSettings returns the documented setting defaults.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:       defaultLogLevel,
		MaxContextSize: defaultMaxContextSize,
		ScriptTimeout:  defaultScriptTimeout,
		FailOpen:       true,
		DebugLogs:      false,
	}
}

// ScriptTimeoutDuration returns the default script timeout.
func (s Settings) ScriptTimeoutDuration() time.Duration {
	return time.Duration(s.ScriptTimeout) * time.Second
}

// Default returns the empty configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  defaultVersion,
		Rules:    []Rule{},
		Settings: DefaultSettings(),
	}
}

// Load resolves the configuration in fallback order:
// <root>/.claude/hooks.yaml, then ~/.claude/hooks.yaml, then Default().
// An empty root means the current working directory.
func Load(root string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return load(root, home)
}

func load(root, home string) (*Config, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = wd
	}

	for _, candidate := range candidatePaths(root, home) {
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		return FromFile(candidate)
	}

	return Default(), nil
}

func candidatePaths(root, home string) []string {
	paths := []string{filepath.Join(root, DirName, FileName)}
	if home != "" {
		paths = append(paths, filepath.Join(home, DirName, FileName))
	}
	return paths
}

// FromFile reads, parses and validates a configuration file.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Source = path
	return cfg, nil
}

// Parse decodes YAML and validates the result.
// Settings missing from the document keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Settings: DefaultSettings()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if cfg.Rules == nil {
		cfg.Rules = []Rule{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
