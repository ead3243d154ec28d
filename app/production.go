package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilianp07/solarsched/config"
	"github.com/kilianp07/solarsched/core/forecast"
	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/infra/energycharts"
)

// ProductionSource yields the per-minute solar production of a day in W.
type ProductionSource interface {
	Production(ctx context.Context, day model.Day) (model.Timeline, error)
}

// Fetcher retrieves the raw forecast around a day.
type Fetcher interface {
	Fetch(ctx context.Context, day model.Day) (forecast.Forecast, error)
}

// ForecastSource scales a fetched forecast to the plant peak.
type ForecastSource struct {
	Fetcher        Fetcher
	PeakW          float64
	ReferencePeakW float64
	Smooth         bool
}

// Production fetches, scales and samples the forecast.
func (s ForecastSource) Production(ctx context.Context, day model.Day) (model.Timeline, error) {
	fc, err := s.Fetcher.Fetch(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	scaled, err := fc.Scale(s.PeakW, s.ReferencePeakW)
	if err != nil {
		return nil, err
	}
	return scaled.Production(day, s.Smooth), nil
}

// FileSource reads a JSON array of per-minute production values.
type FileSource struct {
	Path string
}

// Production loads the file; missing minutes are zero.
func (s FileSource) Production(_ context.Context, _ model.Day) (model.Timeline, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode production %s: %w", s.Path, err)
	}
	return model.TimelineFrom(values), nil
}

// NewProductionSource selects the local file when configured and the
// energy-charts forecast otherwise.
func NewProductionSource(cfg *config.Config) ProductionSource {
	if cfg.Simulation.ProductionPath != "" {
		return FileSource{Path: cfg.Simulation.ProductionPath}
	}
	return ForecastSource{
		Fetcher:        energycharts.NewClient(cfg.Forecast.URL, cfg.Forecast.Timeout()),
		PeakW:          cfg.Simulation.PeakSolarW,
		ReferencePeakW: cfg.Simulation.ReferencePeakW,
		Smooth:         cfg.Simulation.SmoothForecast,
	}
}
