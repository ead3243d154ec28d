package scheduler

import (
	"github.com/google/uuid"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
)

// Baseline starts every vehicle on arrival at its full rate. It serves as
// the reference the other engines are compared against.
type Baseline struct {
	log  logger.Logger
	sink metrics.MetricsSink
}

// NewBaseline creates the arrival-time engine. sink may be nil.
func NewBaseline(log logger.Logger, sink metrics.MetricsSink) *Baseline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Baseline{log: log, sink: sink}
}

// Schedule places each vehicle at its arrival.
func (b *Baseline) Schedule(day model.Day, vehicles []model.Vehicle, production model.Timeline) (Result, error) {
	fleet, capped, err := prepareFleet(vehicles, b.log)
	if err != nil {
		return Result{}, err
	}
	runID := uuid.NewString()
	prod := model.TimelineFrom(production)
	usage := model.NewTimeline()
	var consumers []model.Consumer
	var placements []Placement
	for _, v := range fleet {
		if v.EnergyRequired() <= 0 {
			b.log.Infof("vehicle %s needs no charge, skipping", v.ID)
			continue
		}
		samples := flat(v.MaxChargeKW, v.MinDuration())
		start := day.Index(v.Arrival)
		grid := GridEnergy(samples, start, usage, prod)
		usage.AddAt(start, samples)
		c := model.Consumer{ID: v.ID, Power: model.NewPowerCurve(v.Arrival, samples)}
		consumers = append(consumers, c)
		placements = append(placements, Placement{
			Vehicle:  v,
			Consumer: c,
			Profile:  Profile{Samples: samples, RateKW: v.MaxChargeKW, Divisor: 1, Flat: true},
			GridWh:   grid,
		})
	}
	if err := b.sink.RecordPlacements(placementEvents(runID, day.Start, placements, nil)); err != nil {
		b.log.Errorf("record placements: %v", err)
	}
	return Result{
		RunID:       runID,
		Day:         day,
		Vehicles:    fleet,
		Consumers:   consumers,
		Production:  prod,
		Usage:       usage,
		Overpower:   model.NewTimeline(),
		Unscheduled: unscheduled(fleet, consumers),
		Capped:      capped,
	}, nil
}
