package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/pkg/dataset"
)

// Config is the application configuration.
type Config struct {
	Scheduling scheduler.Flags  `json:"scheduling"`
	Simulation SimulationConfig `json:"simulation"`
	Forecast   ForecastConfig   `json:"forecast"`
	Generator  dataset.Params   `json:"generator"`
	Metrics    metrics.Config   `json:"metrics"`
	Store      StoreConfig      `json:"store"`
	Logging    LoggingConfig    `json:"logging"`
}

// StoreConfig locates the SQLite run history. An empty path disables it.
type StoreConfig struct {
	Path string `json:"path"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	cfg := Config{
		Scheduling: scheduler.DefaultFlags(),
		Simulation: SimulationConfig{SmoothForecast: true},
		Generator:  dataset.DefaultParams(),
	}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	c.Scheduling.SetDefaults()
	c.Simulation.SetDefaults()
	c.Forecast.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduling.Validate(); err != nil {
		return err
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	return c.Logging.Validate()
}

// Load reads the file at path on top of Default and applies K_ prefixed
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
