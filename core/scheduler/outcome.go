package scheduler

import (
	"time"

	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
)

// Outcome reports how well one vehicle was served.
type Outcome struct {
	VehicleID     string  `json:"vehicle_id"`
	RequiredKWh   float64 `json:"required_kwh"`
	DeliveredKWh  float64 `json:"delivered_kwh"`
	OverchargeKWh float64 `json:"overcharge_kwh"`
	MissingKWh    float64 `json:"missing_kwh"`
	SoCReached    float64 `json:"soc_reached"`
	Scheduled     bool    `json:"scheduled"`
	Met           bool    `json:"met"`
}

// Outcomes evaluates every vehicle against the consumers. A requirement is
// met when less than one minute of charging at max rate is missing.
func Outcomes(vehicles []model.Vehicle, consumers []model.Consumer) []Outcome {
	byID := make(map[string]model.Consumer, len(consumers))
	for _, c := range consumers {
		byID[c.ID] = c
	}
	out := make([]Outcome, 0, len(vehicles))
	for _, v := range vehicles {
		o := Outcome{VehicleID: v.ID, RequiredKWh: v.EnergyRequired(), SoCReached: v.SoCArrive}
		if c, ok := byID[v.ID]; ok {
			o.Scheduled = true
			o.DeliveredKWh = c.Energy() / 1000
			o.OverchargeKWh = c.Overpower.Energy() / 1000
			o.SoCReached = (v.BatteryKWh*v.SoCArrive/100 + o.DeliveredKWh) / v.BatteryKWh * 100
		}
		o.MissingKWh = o.RequiredKWh - o.DeliveredKWh
		o.Met = o.MissingKWh <= v.MaxChargeKW/60
		out = append(out, o)
	}
	return out
}

// Summary holds the energy balance of a simulated day. Energies are in Wh.
type Summary struct {
	RunID             string    `json:"run_id"`
	Date              time.Time `json:"date"`
	PeakSolarW        float64   `json:"peak_solar_w"`
	TotalVehicles     int       `json:"total_vehicles"`
	ScheduledVehicles int       `json:"scheduled_vehicles"`
	RequiredWh        float64   `json:"required_wh"`
	SolarWh           float64   `json:"solar_wh"`
	ConsumedWh        float64   `json:"consumed_wh"`
	GridWh            float64   `json:"grid_wh"`
	SolarUnusedWh     float64   `json:"solar_unused_wh"`
	Missed            []string  `json:"missed"`
}

// Summarize computes the day balance of a result.
func Summarize(res Result, peakSolarW float64) Summary {
	prod := model.TimelineFrom(res.Production)
	total := model.TimelineFrom(res.Usage).Add(model.TimelineFrom(res.Overpower))
	s := Summary{
		RunID:             res.RunID,
		Date:              res.Day.Start,
		PeakSolarW:        peakSolarW,
		TotalVehicles:     len(res.Vehicles),
		ScheduledVehicles: len(res.Consumers),
		SolarWh:           prod.Energy(),
		ConsumedWh:        total.Energy(),
		GridWh:            model.Deficit(prod, total).Energy(),
		SolarUnusedWh:     model.Available(prod, total).Energy(),
	}
	for _, o := range Outcomes(res.Vehicles, res.Consumers) {
		s.RequiredWh += o.RequiredKWh * 1000
		if !o.Met {
			s.Missed = append(s.Missed, o.VehicleID)
		}
	}
	return s
}

// Event converts the summary for metrics sinks.
func (s Summary) Event() metrics.SummaryEvent {
	return metrics.SummaryEvent{
		RunID:             s.RunID,
		Date:              s.Date,
		TotalVehicles:     s.TotalVehicles,
		ScheduledVehicles: s.ScheduledVehicles,
		MissedVehicles:    len(s.Missed),
		RequiredWh:        s.RequiredWh,
		SolarWh:           s.SolarWh,
		ConsumedWh:        s.ConsumedWh,
		GridWh:            s.GridWh,
		SolarUnusedWh:     s.SolarUnusedWh,
	}
}

// TimelineEvent converts the result timelines for metrics sinks.
func (res Result) TimelineEvent() metrics.TimelineEvent {
	return metrics.TimelineEvent{
		RunID:      res.RunID,
		Day:        res.Day.Start,
		Production: res.Production,
		Usage:      res.Usage,
		Overcharge: res.Overpower,
	}
}
