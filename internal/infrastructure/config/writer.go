package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# kin configuration

server:
  addr: ":8080"   # or set KIN_SERVER_ADDR
  # cors_origins: ["http://localhost:5173"]

log:
  mode: development   # development | production (KIN_LOG_MODE)
  level: info         # debug | info | warn | error (KIN_LOG_LEVEL)

# Plausible parent age at a child's birth, in years. Outside this band an
# edge is still accepted but carries an age gap warning.
validator:
  min_parent_age: 12
  max_parent_age: 60

projection:
  max_depth: 25
  max_fan_depth: 10

scorer:
  min_gap: 10
  max_gap: 70
  ideal_gap: 28
  weights:
    name: 0.30
    age: 0.30
    household: 0.25
    evidence: 0.15
  ambiguity_margin: 5
  workers: 0   # 0 = one per CPU
`

// WriteDefault creates the .kin directory and writes a default config file.
func WriteDefault(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configFile := ConfigFilePath(basePath)
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
