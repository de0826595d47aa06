package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the host configuration of the reactmesh command.
type Config struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	MaxCycles   int           `mapstructure:"max_cycles"`
	Tools       []string      `mapstructure:"tools"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	// ToolRate limits tool calls per second across all tools. Zero disables it.
	ToolRate float64   `mapstructure:"tool_rate"`
	Log      LogConfig `mapstructure:"log"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	Backend    string `mapstructure:"backend"` // slog or zap
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// setDefaults registers the default values of every key so that environment
// variables are picked up by Unmarshal as well.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("max_cycles", 10)
	v.SetDefault("tools", []string{"search", "browse", "eval"})
	v.SetDefault("tool_timeout", 15*time.Second)
	v.SetDefault("tool_rate", 0.0)
	v.SetDefault("log.backend", "slog")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
}

// LoadConfig reads the configuration from path (or ./reactmesh.yaml when
// empty) and REACTMESH_* environment variables. A missing default file is
// not an error.
func LoadConfig(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("reactmesh")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("REACTMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.Log.Backend {
	case "slog", "zap":
	default:
		return fmt.Errorf("unknown log backend %q", c.Log.Backend)
	}

	if c.MaxCycles < 0 {
		return errors.New("max_cycles must not be negative")
	}

	return nil
}
