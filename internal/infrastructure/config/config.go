// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/scoring"
)

const (
	// DefaultConfigDir is the directory name for kin configuration.
	DefaultConfigDir = ".kin"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultFamiliesFile is the default families registry file name.
	DefaultFamiliesFile = "families.yaml"
	// DefaultDatabaseFile is the per-family database file name.
	DefaultDatabaseFile = "kin.db"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds infrastructure and engine tuning configuration.
type Config struct {
	SQLite     SQLiteConfig     `yaml:"sqlite,omitempty"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Projection ProjectionConfig `yaml:"projection"`
	Scorer     ScorerConfig     `yaml:"scorer"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-family databases, this is computed using SQLitePathForFamily.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"` // empty disables CORS handling
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode  string `yaml:"mode"`  // development or production
	Level string `yaml:"level"` // debug, info, warn, error
}

// ValidatorConfig holds the plausible parent age band.
type ValidatorConfig struct {
	MinParentAge float64 `yaml:"min_parent_age"`
	MaxParentAge float64 `yaml:"max_parent_age"`
}

// ProjectionConfig caps tree view depth.
type ProjectionConfig struct {
	MaxDepth    int `yaml:"max_depth"`
	MaxFanDepth int `yaml:"max_fan_depth"`
}

// ScorerConfig tunes suggestion scoring.
type ScorerConfig struct {
	MinGap          float64       `yaml:"min_gap"`
	MaxGap          float64       `yaml:"max_gap"`
	IdealGap        float64       `yaml:"ideal_gap"`
	Weights         WeightsConfig `yaml:"weights"`
	AmbiguityMargin float64       `yaml:"ambiguity_margin"`
	Workers         int           `yaml:"workers"`
}

// WeightsConfig holds the relative signal weights.
type WeightsConfig struct {
	Name      float64 `yaml:"name"`
	Age       float64 `yaml:"age"`
	Household float64 `yaml:"household"`
	Evidence  float64 `yaml:"evidence"`
}

// Default returns a Config with default values.
func Default() *Config {
	sc := scoring.DefaultConfig()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Mode: "development", Level: "info"},
		Validator: ValidatorConfig{
			MinParentAge: graph.DefaultMinParentAgeYears,
			MaxParentAge: graph.DefaultMaxParentAgeYears,
		},
		Projection: ProjectionConfig{
			MaxDepth:    graph.DefaultMaxDepth,
			MaxFanDepth: graph.DefaultMaxFanDepth,
		},
		Scorer: ScorerConfig{
			MinGap:   sc.MinGap,
			MaxGap:   sc.MaxGap,
			IdealGap: sc.IdealGap,
			Weights: WeightsConfig{
				Name:      sc.Weights.Name,
				Age:       sc.Weights.Age,
				Household: sc.Weights.Household,
				Evidence:  sc.Weights.Evidence,
			},
			AmbiguityMargin: sc.AmbiguityMargin,
			Workers:         sc.Workers,
		},
	}
}

// Load loads configuration from the .kin directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'kin init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("KIN_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if mode := os.Getenv("KIN_LOG_MODE"); mode != "" {
		c.Log.Mode = mode
	}
	if level := os.Getenv("KIN_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate checks value ranges that would otherwise surface as odd
// engine behaviour.
func (c *Config) Validate() error {
	if c.Validator.MinParentAge < 0 || c.Validator.MinParentAge >= c.Validator.MaxParentAge {
		return fmt.Errorf("validator: parent age band %.0f-%.0f is empty",
			c.Validator.MinParentAge, c.Validator.MaxParentAge)
	}
	if c.Projection.MaxDepth <= 0 || c.Projection.MaxFanDepth <= 0 {
		return errors.New("projection: depth caps must be positive")
	}
	if c.Projection.MaxFanDepth > graph.FanDepthLimit {
		return fmt.Errorf("projection: max_fan_depth %d exceeds %d", c.Projection.MaxFanDepth, graph.FanDepthLimit)
	}
	if err := c.ScorerConfig().Validate(); err != nil {
		return fmt.Errorf("scorer: %w", err)
	}
	switch c.Log.Mode {
	case "development", "production":
	default:
		return fmt.Errorf("log: unknown mode %q (valid: development, production)", c.Log.Mode)
	}
	return nil
}

// ValidatorConfig converts to the graph validator's configuration.
func (c *Config) ValidatorConfig() graph.ValidatorConfig {
	return graph.ValidatorConfig{
		MinParentAgeYears: c.Validator.MinParentAge,
		MaxParentAgeYears: c.Validator.MaxParentAge,
	}
}

// ProjectorConfig converts to the projector's configuration.
func (c *Config) ProjectorConfig() graph.ProjectorConfig {
	return graph.ProjectorConfig{
		MaxDepth:    c.Projection.MaxDepth,
		MaxFanDepth: c.Projection.MaxFanDepth,
	}
}

// ScorerConfig converts to the suggestion scorer's configuration.
func (c *Config) ScorerConfig() scoring.Config {
	return scoring.Config{
		MinGap:   c.Scorer.MinGap,
		MaxGap:   c.Scorer.MaxGap,
		IdealGap: c.Scorer.IdealGap,
		Weights: scoring.Weights{
			Name:      c.Scorer.Weights.Name,
			Age:       c.Scorer.Weights.Age,
			Household: c.Scorer.Weights.Household,
			Evidence:  c.Scorer.Weights.Evidence,
		},
		AmbiguityMargin: c.Scorer.AmbiguityMargin,
		Workers:         c.Scorer.Workers,
	}
}

// ConfigDir returns the path to the .kin config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// FamiliesFilePath returns the path to the families registry.
func FamiliesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultFamiliesFile)
}

// Exists checks if a kin config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeFamilyName converts a family name to a safe directory name.
func SanitizeFamilyName(name string) string {
	name = strings.ToLower(name)

	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	name = reNonAlphanumeric.ReplaceAllString(name, "")
	name = reMultipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}
	return name
}

// FamilyDir returns the directory path for a given family.
func FamilyDir(basePath, familyName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "families", SanitizeFamilyName(familyName))
}

// SQLitePathForFamily returns the SQLite database path for a given family.
func SQLitePathForFamily(basePath, familyName string) string {
	return filepath.Join(FamilyDir(basePath, familyName), DefaultDatabaseFile)
}
