package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ExtractionConfig controls how background extraction tasks are scheduled.
type ExtractionConfig struct {
	Delay         time.Duration `mapstructure:"delay"`          // simulated processing time per task
	TaskTimeout   time.Duration `mapstructure:"task_timeout"`   // deadline for a single task run
	MaxConcurrent int64         `mapstructure:"max_concurrent"` // tasks allowed to run at once
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from an optional YAML file, .env and the environment.
// Parameters:
//   - configPath: explicit config file path; empty searches ./configs and the working dir.
//
// Returns:
//   - *Config: resolved configuration.
//   - error: non-nil if the file is unreadable or values are invalid.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("extraction.delay", 5*time.Second)
	v.SetDefault("extraction.task_timeout", 2*time.Minute)
	v.SetDefault("extraction.max_concurrent", 16)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "analystai")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "GIN_MODE")
	v.BindEnv("extraction.delay", "EXTRACTION_DELAY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Extraction.Delay < 0 {
		return fmt.Errorf("config: extraction.delay must not be negative")
	}
	if c.Extraction.TaskTimeout <= 0 {
		return fmt.Errorf("config: extraction.task_timeout must be positive")
	}
	if c.Extraction.MaxConcurrent <= 0 {
		return fmt.Errorf("config: extraction.max_concurrent must be positive")
	}
	return nil
}
