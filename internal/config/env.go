package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Env holds the RULEZ_* environment overrides.
type Env struct {
	// ConfigPath bypasses the fallback load order.
	ConfigPath string `env:"RULEZ_CONFIG"`
	// LogPath is the audit log file.
	LogPath string `env:"RULEZ_LOG_PATH"`
	// Debug forces the per-rule trace in audit entries.
	Debug bool `env:"RULEZ_DEBUG"`
	// LogLevel overrides settings.log_level.
	LogLevel string `env:"RULEZ_LOG_LEVEL"`
}

// LoadEnv reads the overrides from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// LoadEnvFrom reads the overrides from an explicit variable set.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// DefaultLogPath returns ~/.claude/logs/rulez.jsonl for the given home.
func DefaultLogPath(home string) string {
	return filepath.Join(home, DirName, "logs", "rulez.jsonl")
}

// Resolve loads the configuration honoring RULEZ_CONFIG. An explicit
// path wins over the environment, which wins over the fallback order.
func (e Env) Resolve(explicitPath, root string) (*Config, error) {
	switch {
	case explicitPath != "":
		return FromFile(explicitPath)
	case e.ConfigPath != "":
		return FromFile(e.ConfigPath)
	default:
		return Load(root)
	}
}
