package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/pflag"
)

// Load builds the effective configuration with priority:
// CLI flags > Config file > Defaults. It does not validate.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Explicit --config wins over the standard locations
	configPath := ""
	if fs != nil {
		configPath, _ = fs.GetString(FlagConfig)
	}
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if fs != nil {
		if err := cfg.MergeFromFlags(fs); err != nil {
			return nil, err
		}
	}

	cfg.Normalize()

	if cfg.Probe.Workers == 0 {
		cfg.Probe.Workers = runtime.NumCPU()
	}

	return cfg, nil
}

// LoadConfig loads and validates the configuration
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := Load(fs)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
