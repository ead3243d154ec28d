package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/pkg/dataset"
)

type VehicleDef struct {
	ID            string  `yaml:"id"`
	Arrive        string  `yaml:"arrive"`
	Leave         string  `yaml:"leave"`
	PercentArrive float64 `yaml:"percent_arrive"`
	PercentLeave  float64 `yaml:"percent_leave"`
	BatteryKWh    float64 `yaml:"battery_kwh"`
	ChargeMaxKW   float64 `yaml:"charge_max_kw"`
}

func (v VehicleDef) ToModel(day model.Day) (model.Vehicle, error) {
	return dataset.Record{
		ID:            dataset.ID(v.ID),
		TimeArrive:    v.Arrive,
		TimeLeave:     v.Leave,
		PercentArrive: v.PercentArrive,
		PercentLeave:  v.PercentLeave,
		BatterySize:   v.BatteryKWh,
		ChargeMax:     v.ChargeMaxKW,
	}.Vehicle(day)
}

// SolarDef is a constant production block between two clock times.
type SolarDef struct {
	From  string  `yaml:"from"`
	To    string  `yaml:"to"`
	Watts float64 `yaml:"watts"`
}

type Expected struct {
	Scheduled   int               `yaml:"scheduled"`
	Cycles      int               `yaml:"cycles,omitempty"`
	Starts      map[string]string `yaml:"starts,omitempty"`
	Grid        string            `yaml:"grid,omitempty"`
	Overcharge  []string          `yaml:"overcharge,omitempty"`
	Rescheduled []string          `yaml:"rescheduled,omitempty"`
	Missed      []string          `yaml:"missed,omitempty"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Date        string          `yaml:"date"`
	Scheduling  scheduler.Flags `yaml:"scheduling"`
	Solar       []SolarDef      `yaml:"solar"`
	Vehicles    []VehicleDef    `yaml:"vehicles"`
	Expected    Expected        `yaml:"expected"`
}

// Load reads a scenario. Scheduling keys absent from the file keep their
// default values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{Scheduling: scheduler.DefaultFlags()}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Date == "" {
		sc.Date = "2025-06-02"
	}
	return &sc, nil
}

// Day returns the simulated day in UTC.
func (sc *Scenario) Day() (model.Day, error) {
	t, err := time.Parse(time.DateOnly, sc.Date)
	if err != nil {
		return model.Day{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return model.NewDay(t), nil
}

// Production builds the day timeline from the solar blocks.
func (sc *Scenario) Production(day model.Day) (model.Timeline, error) {
	tl := model.NewTimeline()
	for _, s := range sc.Solar {
		from, err := clock(day, s.From)
		if err != nil {
			return nil, err
		}
		to, err := clock(day, s.To)
		if err != nil {
			return nil, err
		}
		for i := day.Index(from); i < day.Index(to) && i < len(tl); i++ {
			tl[i] += s.Watts
		}
	}
	return tl, nil
}

func clock(day model.Day, s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return day.Start.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}
