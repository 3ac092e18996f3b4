// Package config loads the layered runtime configuration: built-in defaults,
// then the YAML config file, then BANTZ_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"bantz/internal/llm"
	"bantz/internal/observability"
	"bantz/pkg/types"
)

// ReactConfig bounds the observe-replan loop.
type ReactConfig struct {
	MaxIterations  int `mapstructure:"max_iterations" yaml:"max_iterations"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// FinalizerConfig tunes reply finalization.
type FinalizerConfig struct {
	Mode            string `mapstructure:"mode" yaml:"mode"` // off|calendarOnly|smalltalkOnly|always
	TokenBudget     int    `mapstructure:"token_budget" yaml:"token_budget"`
	CheckCurrency   bool   `mapstructure:"check_currency" yaml:"check_currency"`
	AllowDraftFacts bool   `mapstructure:"allow_draft_facts" yaml:"allow_draft_facts"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel  string                      `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string                      `mapstructure:"log_format" yaml:"log_format"`
	Planner   llm.Config                  `mapstructure:"planner" yaml:"planner"`
	Quality   llm.Config                  `mapstructure:"quality" yaml:"quality"`
	React     ReactConfig                 `mapstructure:"react" yaml:"react"`
	Finalizer FinalizerConfig             `mapstructure:"finalizer" yaml:"finalizer"`
	Tracing   observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Planner: llm.Config{
			BaseURL:    "http://localhost:11434/v1",
			Model:      "qwen2.5:7b",
			Timeout:    30,
			MaxRetries: 2,
		},
		Quality: llm.Config{
			BaseURL:    "http://localhost:11434/v1",
			Model:      "qwen2.5:32b",
			Timeout:    60,
			MaxRetries: 2,
		},
		React: ReactConfig{
			MaxIterations:  3,
			TimeoutSeconds: 20,
		},
		Finalizer: FinalizerConfig{
			Mode:        string(types.FinalizeAlways),
			TokenBudget: 1200,
		},
	}
}

// DefaultPath returns ~/.bantz/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bantz", "config.yaml"), nil
}

// Load reads configuration from path (or the default path when empty), with
// environment overrides applied last. A missing file is not an error; the
// defaults stand.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := Default()
	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return Config{}, fmt.Errorf("marshal defaults: %w", err)
	}
	if err := v.ReadConfig(strings.NewReader(string(raw))); err != nil {
		return Config{}, fmt.Errorf("seed defaults: %w", err)
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return Config{}, err
		}
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok && !os.IsNotExist(err) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("BANTZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Secrets usually arrive via environment, never the file.
	_ = v.BindEnv("planner.api_key", "BANTZ_PLANNER_API_KEY")
	_ = v.BindEnv("quality.api_key", "BANTZ_QUALITY_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
