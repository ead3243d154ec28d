package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/infra/energycharts"
)

// SimulationConfig describes the simulated day and its inputs and outputs.
type SimulationConfig struct {
	// Date is the simulated day as YYYY-MM-DD; empty means tomorrow.
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
	// VehiclesPath is the JSON vehicle record file.
	VehiclesPath   string  `json:"vehicles_path"`
	PeakSolarW     float64 `json:"peak_solar_w"`
	ReferencePeakW float64 `json:"reference_peak_w"`
	SmoothForecast bool    `json:"smooth_forecast"`
	// ProductionPath, when set, replaces the forecast with a JSON array of
	// per-minute production values in W.
	ProductionPath string `json:"production_path"`
	SnapshotPath   string `json:"snapshot_path"`
	ResultCSV      string `json:"result_csv"`
	TimelineCSV    string `json:"timeline_csv"`
	SegmentsCSV    string `json:"segments_csv"`
}

// SetDefaults applies the reference plant and forecast peak.
func (c *SimulationConfig) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.PeakSolarW == 0 {
		c.PeakSolarW = 300_000
	}
	if c.ReferencePeakW == 0 {
		c.ReferencePeakW = 4_196_000_000
	}
}

// Validate checks the peaks, the date and the timezone.
func (c SimulationConfig) Validate() error {
	if c.PeakSolarW <= 0 || c.ReferencePeakW <= 0 {
		return fmt.Errorf("simulation: peak_solar_w and reference_peak_w must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("simulation.timezone: %w", err)
	}
	if c.Date != "" {
		if _, err := time.Parse(time.DateOnly, c.Date); err != nil {
			return fmt.Errorf("simulation.date: %w", err)
		}
	}
	return nil
}

// Day resolves the simulated day. now is used when no date is configured.
func (c SimulationConfig) Day(now time.Time) (model.Day, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return model.Day{}, fmt.Errorf("simulation.timezone: %w", err)
	}
	if c.Date == "" {
		return model.NewDay(now.In(loc).AddDate(0, 0, 1)), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, c.Date, loc)
	if err != nil {
		return model.Day{}, fmt.Errorf("simulation.date: %w", err)
	}
	return model.NewDay(t), nil
}

// ForecastConfig locates the solar forecast API.
type ForecastConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults selects the public energy-charts endpoint.
func (c *ForecastConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = energycharts.DefaultURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c ForecastConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("forecast.url is required")
	}
	return nil
}

// Timeout returns the HTTP timeout.
func (c ForecastConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
