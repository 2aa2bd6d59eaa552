package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/archlens/archlens/internal/errors"
)

// Config is the whole application configuration, loaded from an optional
// YAML file with ARCHLENS_* environment overrides on top. A .env file in
// the working directory is honored before the environment is read.
type Config struct {
	Neo4j       Neo4jConfig       `mapstructure:"neo4j"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	LogLevel    string            `mapstructure:"log_level"`
}

// Neo4jConfig holds graph store connection settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// BatchProfile selects write batch sizing: default, small, or large.
	BatchProfile string `mapstructure:"batch_profile"`
}

// CoordinatorConfig bounds the extraction pipeline.
type CoordinatorConfig struct {
	Workers        int    `mapstructure:"workers"`
	FileTimeoutSec int    `mapstructure:"file_timeout_sec"`
	CachePath      string `mapstructure:"cache_path"`
}

// AnalysisConfig bounds the architectural analyzer.
type AnalysisConfig struct {
	MaxCycleLength     int `mapstructure:"max_cycle_length"`
	MaxCyclesPerGraph  int `mapstructure:"max_cycles_per_graph"`
	VisitBudget        int `mapstructure:"visit_budget"`
	UnusedElementLimit int `mapstructure:"unused_element_limit"`
}

// Load reads configuration: defaults, then the named YAML file (or
// ./archlens.yaml when path is empty), then environment variables. A
// missing config file is not an error; missing credentials are.
func Load(path string) (*Config, error) {
	// best effort; most setups keep the NEO4J credentials in .env
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ARCHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("archlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.archlens")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return apperrors.ValidationError("neo4j.uri is required (set ARCHLENS_NEO4J_URI or neo4j.uri)")
	}
	if c.Neo4j.User == "" || c.Neo4j.Password == "" {
		return apperrors.ValidationError("neo4j credentials are required (set ARCHLENS_NEO4J_USER and ARCHLENS_NEO4J_PASSWORD)")
	}
	switch c.Neo4j.BatchProfile {
	case "default", "small", "large":
	default:
		return apperrors.ValidationErrorf("neo4j.batch_profile must be default, small, or large; got %q", c.Neo4j.BatchProfile)
	}
	if c.Coordinator.Workers < 1 {
		return apperrors.ValidationErrorf("coordinator.workers must be at least 1; got %d", c.Coordinator.Workers)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.batch_profile", "default")

	v.SetDefault("coordinator.workers", 8)
	v.SetDefault("coordinator.file_timeout_sec", 30)
	v.SetDefault("coordinator.cache_path", "")

	v.SetDefault("analysis.max_cycle_length", 10)
	v.SetDefault("analysis.max_cycles_per_graph", 100)
	v.SetDefault("analysis.visit_budget", 200000)
	v.SetDefault("analysis.unused_element_limit", 100)

	v.SetDefault("log_level", "info")
}
