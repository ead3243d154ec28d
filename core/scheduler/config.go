package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by Flags.Engine.
const (
	EngineGreedy   = "greedy"
	EngineGlobal   = "global"
	EngineBaseline = "baseline"
)

// OptimizerConfig tunes the population based global optimizer.
type OptimizerConfig struct {
	Population     int     `json:"population" yaml:"population"`
	MaxEvaluations int     `json:"max_evaluations" yaml:"max_evaluations"`
	StepSize       float64 `json:"step_size" yaml:"step_size"`
	StopBelowKWh   float64 `json:"stop_below_kwh" yaml:"stop_below_kwh"`
}

// Flags toggles the scheduling heuristics.
type Flags struct {
	ReduceMaxPower    bool            `json:"reduce_max_power" yaml:"reduce_max_power"`
	FlattenTail       bool            `json:"flatten_tail" yaml:"flatten_tail"`
	OverchargeEnabled bool            `json:"overcharge_enabled" yaml:"overcharge_enabled"`
	AllowGridSlack    bool            `json:"allow_grid_slack" yaml:"allow_grid_slack"`
	Engine            string          `json:"engine" yaml:"engine"`
	Optimizer         OptimizerConfig `json:"optimizer" yaml:"optimizer"`
}

// DefaultFlags returns the flags used when no configuration is given.
func DefaultFlags() Flags {
	f := Flags{ReduceMaxPower: true, OverchargeEnabled: true}
	f.SetDefaults()
	return f
}

// SetDefaults fills unset engine and optimizer parameters.
func (f *Flags) SetDefaults() {
	if f.Engine == "" {
		f.Engine = EngineGreedy
	}
	if f.Optimizer.Population <= 0 {
		f.Optimizer.Population = 16
	}
	if f.Optimizer.MaxEvaluations <= 0 {
		f.Optimizer.MaxEvaluations = 4000
	}
	if f.Optimizer.StepSize <= 0 {
		f.Optimizer.StepSize = 30
	}
	if f.Optimizer.StopBelowKWh <= 0 {
		f.Optimizer.StopBelowKWh = 100
	}
}

// Validate checks the flag values.
func (f Flags) Validate() error {
	switch f.Engine {
	case EngineGreedy, EngineGlobal, EngineBaseline:
	default:
		return fmt.Errorf("scheduling.engine: unknown engine %q", f.Engine)
	}
	if f.Optimizer.Population < 2 {
		return fmt.Errorf("scheduling.optimizer.population must be at least 2")
	}
	return nil
}

// LoadConfig loads Flags from a JSON or YAML file. Missing keys keep the
// values of DefaultFlags.
func LoadConfig(path string) (Flags, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Flags{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	cfg := DefaultFlags()
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Flags{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return Flags{}, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads from r to decode Flags.
func DecodeConfig(r io.Reader, format string) (Flags, error) {
	cfg := DefaultFlags()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
