// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file. If path is empty it searches the
// default locations; if no file is found the built-in defaults are used.
// Environment variable overrides are applied after loading, then the final
// configuration is validated.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		candidates := []string{"earshot.yaml", "config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies EARSHOT_* environment variables on top of
// whatever was loaded from file. Only settings that make sense to flip per
// invocation are overridable this way.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("EARSHOT_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("EARSHOT_TRANSPORT_MODE"); ok {
		c.Transport.Mode = val
	}
	if val, ok := os.LookupEnv("EARSHOT_WS_LISTEN"); ok {
		c.Transport.WSListen = val
	}
	if val, ok := os.LookupEnv("EARSHOT_UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
	}
	if val, ok := os.LookupEnv("EARSHOT_COOLDOWN"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Analysis.Cooldown = Duration(dur)
		}
	}
}
