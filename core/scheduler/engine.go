package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
)

// ErrNoVehicles is returned by engines that cannot run on an empty fleet.
var ErrNoVehicles = errors.New("no vehicles to schedule")

// Engine schedules a fleet on one day against a production timeline.
type Engine interface {
	Schedule(day model.Day, vehicles []model.Vehicle, production model.Timeline) (Result, error)
}

// Result is the schedule of one simulated day.
type Result struct {
	RunID string
	Day   model.Day
	// Vehicles holds every input vehicle in input order with clamped targets.
	Vehicles    []model.Vehicle
	Consumers   []model.Consumer
	Production  model.Timeline
	Usage       model.Timeline
	Overpower   model.Timeline
	Unscheduled []string
	Capped      []model.TargetCapped
	Cycles      int
}

// prepareFleet validates the fleet, rejects duplicate ids and clamps targets.
func prepareFleet(vehicles []model.Vehicle, log logger.Logger) ([]model.Vehicle, []model.TargetCapped, error) {
	seen := make(map[string]struct{}, len(vehicles))
	out := make([]model.Vehicle, 0, len(vehicles))
	var capped []model.TargetCapped
	for _, v := range vehicles {
		if _, dup := seen[v.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate id %s", model.ErrInvalidVehicle, v.ID)
		}
		seen[v.ID] = struct{}{}
		clamped, warn, err := model.NewVehicle(v)
		if err != nil {
			return nil, nil, err
		}
		if warn != nil {
			log.Warnf("%s", warn.String())
			capped = append(capped, *warn)
		}
		out = append(out, clamped)
	}
	return out, capped, nil
}

func vehicleIndex(vehicles []model.Vehicle) map[string]model.Vehicle {
	m := make(map[string]model.Vehicle, len(vehicles))
	for _, v := range vehicles {
		m[v.ID] = v
	}
	return m
}

// unscheduled lists vehicles needing energy that have no consumer.
func unscheduled(vehicles []model.Vehicle, consumers []model.Consumer) []string {
	placed := make(map[string]struct{}, len(consumers))
	for _, c := range consumers {
		placed[c.ID] = struct{}{}
	}
	var ids []string
	for _, v := range vehicles {
		if _, ok := placed[v.ID]; !ok && v.EnergyRequired() > 0 {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func placementEvents(runID string, at time.Time, placements []Placement, rescheduled map[string]bool) []metrics.PlacementEvent {
	events := make([]metrics.PlacementEvent, 0, len(placements))
	for _, p := range placements {
		events = append(events, metrics.PlacementEvent{
			RunID:       runID,
			VehicleID:   p.Consumer.ID,
			Start:       p.Consumer.Power.Interval.Start,
			Minutes:     p.Profile.Minutes(),
			EnergyWh:    p.Consumer.Power.Energy(),
			GridWh:      p.GridWh,
			Rescheduled: rescheduled[p.Consumer.ID],
			CycleTime:   at,
		})
	}
	return events
}

func overchargeEvents(runID string, at time.Time, grants []Grant) []metrics.OverchargeEvent {
	events := make([]metrics.OverchargeEvent, 0, len(grants))
	for _, g := range grants {
		events = append(events, metrics.OverchargeEvent{
			RunID:     runID,
			VehicleID: g.ConsumerID,
			Start:     g.Curve.Interval.Start,
			Minutes:   g.Curve.Len(),
			EnergyWh:  g.Curve.Energy(),
			Extended:  g.Extended,
			CycleTime: at,
		})
	}
	return events
}
