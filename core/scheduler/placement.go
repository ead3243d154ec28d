package scheduler

import (
	"sort"
	"time"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/model"
)

// gridSlackWh is the grid energy per vehicle treated as free when
// Flags.AllowGridSlack is set.
const gridSlackWh = 1000

// Placement is the result of placing one vehicle.
type Placement struct {
	// Vehicle is the clamped vehicle the profile was built for.
	Vehicle  model.Vehicle
	Consumer model.Consumer
	Profile  Profile
	GridWh   float64
	Capped   *model.TargetCapped
}

// Greedy places vehicles one at a time at the start minute drawing the least
// grid energy.
type Greedy struct {
	flags Flags
	log   logger.Logger
}

// NewGreedy returns a greedy placement engine.
func NewGreedy(flags Flags, log logger.Logger) *Greedy {
	return &Greedy{flags: flags, log: log}
}

// SortByEnergy orders vehicles by decreasing required energy. Equal
// requirements keep their input order.
func SortByEnergy(vehicles []model.Vehicle) []model.Vehicle {
	out := append([]model.Vehicle(nil), vehicles...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnergyRequired() > out[j].EnergyRequired()
	})
	return out
}

// Window returns the earliest and latest start minute of a block of the
// given length. Latest never precedes earliest.
func Window(day model.Day, v model.Vehicle, now time.Time, minutes int) (int, int) {
	from := v.Arrival
	if now.After(from) {
		from = now
	}
	earliest := day.Index(from)
	latest := day.Index(v.Departure) - minutes
	if latest < earliest {
		latest = earliest
	}
	return earliest, latest
}

// GridEnergy returns the energy in Wh drawn from the grid when samples start
// at minute start on top of usage.
func GridEnergy(samples []float64, start int, usage, production model.Timeline) float64 {
	var grid float64
	for k, p := range samples {
		i := start + k
		if deficit := usage.At(i) + p - production.At(i); deficit > 0 {
			grid += deficit
		}
	}
	return grid / 60
}

// Best scans [earliest, latest] and returns the start with the least grid
// energy. Ties keep the earliest start.
func (g *Greedy) Best(samples []float64, earliest, latest int, usage, production model.Timeline) (int, float64) {
	best := earliest
	bestGrid := g.cost(samples, earliest, usage, production)
	for t := earliest + 1; t <= latest; t++ {
		if grid := g.cost(samples, t, usage, production); grid < bestGrid {
			best, bestGrid = t, grid
		}
	}
	return best, bestGrid
}

func (g *Greedy) cost(samples []float64, start int, usage, production model.Timeline) float64 {
	grid := GridEnergy(samples, start, usage, production)
	if g.flags.AllowGridSlack && grid <= gridSlackWh {
		return 0
	}
	return grid
}

// Place builds the profile of v, chooses its start and adds the profile to
// usage.
func (g *Greedy) Place(day model.Day, v model.Vehicle, now time.Time, usage, production model.Timeline) Placement {
	profile, clamped, capped := BuildProfile(v, g.flags, g.log)
	earliest, latest := Window(day, clamped, now, profile.Minutes())
	start, grid := g.Best(profile.Samples, earliest, latest, usage, production)
	usage.AddAt(start, profile.Samples)

	consumer := model.Consumer{
		ID:    clamped.ID,
		Power: model.NewPowerCurve(day.Time(start), profile.Samples),
	}
	g.log.Debugw("vehicle placed", map[string]any{
		"vehicle_id": clamped.ID,
		"start":      consumer.Power.Interval.Start.Format(time.RFC3339),
		"minutes":    profile.Minutes(),
		"grid_wh":    grid,
	})
	return Placement{Vehicle: clamped, Consumer: consumer, Profile: profile, GridWh: grid, Capped: capped}
}

// PlaceAll places the pool against the available production, largest
// requirement first. It returns the placements and the usage they add.
func (g *Greedy) PlaceAll(day model.Day, pool []model.Vehicle, now time.Time, available model.Timeline) ([]Placement, model.Timeline) {
	usage := model.NewTimeline()
	placements := make([]Placement, 0, len(pool))
	for _, v := range SortByEnergy(pool) {
		placements = append(placements, g.Place(day, v, now, usage, available))
	}
	return placements, usage
}
