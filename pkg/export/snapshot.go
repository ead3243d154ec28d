package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/pkg/dataset"
)

// Parameters describes how a snapshot was simulated.
type Parameters struct {
	Date           time.Time       `json:"simulation_date"`
	Timezone       string          `json:"timezone,omitempty"`
	PeakSolarW     float64         `json:"peak_solar_w"`
	ReferencePeakW float64         `json:"reference_peak_w"`
	SmoothForecast bool            `json:"smooth_forecast"`
	Scheduling     scheduler.Flags `json:"scheduling"`
}

// Snapshot is the persisted state of a simulated day. Vehicles carry their
// clamped targets.
type Snapshot struct {
	RunID      string           `json:"run_id"`
	Parameters Parameters       `json:"simulation_parameters"`
	Vehicles   []dataset.Record `json:"vehicles"`
	Consumers  []model.Consumer `json:"consumers"`
	Production []float64        `json:"production"`
}

// NewSnapshot captures a result.
func NewSnapshot(params Parameters, res scheduler.Result) Snapshot {
	recs := make([]dataset.Record, len(res.Vehicles))
	for i, v := range res.Vehicles {
		recs[i] = dataset.FromVehicle(v)
	}
	params.Date = res.Day.Start
	params.Timezone = res.Day.Start.Location().String()
	return Snapshot{
		RunID:      res.RunID,
		Parameters: params,
		Vehicles:   recs,
		Consumers:  res.Consumers,
		Production: res.Production,
	}
}

// Result rebuilds the schedule of the snapshot without rescheduling. Vehicle
// clock times are resolved in the stored timezone.
func (s Snapshot) Result() (scheduler.Result, error) {
	date := s.Parameters.Date
	if s.Parameters.Timezone != "" {
		loc, err := time.LoadLocation(s.Parameters.Timezone)
		if err != nil {
			return scheduler.Result{}, fmt.Errorf("snapshot timezone: %w", err)
		}
		date = date.In(loc)
	}
	day := model.NewDay(date)
	vehicles := make([]model.Vehicle, 0, len(s.Vehicles))
	for _, rec := range s.Vehicles {
		v, err := rec.Vehicle(day)
		if err != nil {
			return scheduler.Result{}, fmt.Errorf("snapshot: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return scheduler.Result{
		RunID:      s.RunID,
		Day:        day,
		Vehicles:   vehicles,
		Consumers:  s.Consumers,
		Production: model.TimelineFrom(s.Production),
		Usage:      model.UsageOf(day, s.Consumers),
		Overpower:  model.OverpowerOf(day, s.Consumers),
	}, nil
}

// WriteSnapshot encodes s as indented JSON.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(s)
}

// ReadSnapshot decodes a snapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// SaveSnapshot writes s to path.
func SaveSnapshot(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot from path.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadSnapshot(f)
}
