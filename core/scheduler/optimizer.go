package scheduler

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/optimize"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
)

// GlobalOptimizer searches the start minutes of the whole fleet jointly with
// a covariance matrix adaptation evolution strategy. It works on a fixed
// fleet known at the start of the day and does not reschedule.
type GlobalOptimizer struct {
	flags  Flags
	log    logger.Logger
	sink   metrics.MetricsSink
	greedy *Greedy
}

// NewGlobalOptimizer creates the offline engine. sink may be nil.
func NewGlobalOptimizer(flags Flags, log logger.Logger, sink metrics.MetricsSink) *GlobalOptimizer {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &GlobalOptimizer{flags: flags, log: log, sink: sink, greedy: NewGreedy(flags, log)}
}

// fleetProblem evaluates start vectors of a fixed set of profiles.
type fleetProblem struct {
	profiles   [][]float64
	earliest   []int
	latest     []int
	production model.Timeline
	stopBelow  float64

	mu   sync.Mutex
	best float64
}

func (p *fleetProblem) starts(x []float64) []int {
	out := make([]int, len(x))
	for i, v := range x {
		s := int(math.Round(v))
		if s < p.earliest[i] {
			s = p.earliest[i]
		}
		if s > p.latest[i] {
			s = p.latest[i]
		}
		out[i] = s
	}
	return out
}

// grid returns the total grid energy in Wh of the given starts.
func (p *fleetProblem) grid(starts []int) float64 {
	usage := model.NewTimeline()
	for i, s := range starts {
		usage.AddAt(s, p.profiles[i])
	}
	return model.Deficit(p.production, usage).Energy()
}

func (p *fleetProblem) objective(x []float64) float64 {
	g := p.grid(p.starts(x))
	p.mu.Lock()
	if g < p.best {
		p.best = g
	}
	p.mu.Unlock()
	return g
}

func (p *fleetProblem) status() (optimize.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.best < p.stopBelow {
		return optimize.FunctionThreshold, nil
	}
	return optimize.NotTerminated, nil
}

// Schedule places the fleet. The greedy placement seeds the search and is
// kept when the search does not improve on it.
func (o *GlobalOptimizer) Schedule(day model.Day, vehicles []model.Vehicle, production model.Timeline) (Result, error) {
	fleet, capped, err := prepareFleet(vehicles, o.log)
	if err != nil {
		return Result{}, err
	}
	var pool []model.Vehicle
	for _, v := range fleet {
		if v.EnergyRequired() <= 0 {
			o.log.Infof("vehicle %s needs no charge, skipping", v.ID)
			continue
		}
		pool = append(pool, v)
	}
	if len(pool) == 0 {
		return Result{}, ErrNoVehicles
	}

	prod := model.TimelineFrom(production)
	placements, _ := o.greedy.PlaceAll(day, pool, day.Start, prod)
	if len(placements) > 1 {
		if err := o.improve(day, placements, prod); err != nil {
			return Result{}, err
		}
	}

	runID := uuid.NewString()
	consumers := make([]model.Consumer, 0, len(placements))
	for _, p := range placements {
		consumers = append(consumers, p.Consumer)
	}
	usage := model.UsageOf(day, consumers)
	over := model.NewTimeline()
	var grants []Grant
	if o.flags.OverchargeEnabled {
		consumers, over, grants = AllocateOvercharge(day, day.Start, consumers, vehicleIndex(fleet), prod, usage, o.log)
	}

	if err := o.sink.RecordPlacements(placementEvents(runID, day.Start, placements, nil)); err != nil {
		o.log.Errorf("record placements: %v", err)
	}
	if rec, ok := o.sink.(metrics.OverchargeRecorder); ok && len(grants) > 0 {
		if err := rec.RecordOvercharge(overchargeEvents(runID, day.Start, grants)); err != nil {
			o.log.Errorf("record overcharge: %v", err)
		}
	}
	return Result{
		RunID:       runID,
		Day:         day,
		Vehicles:    fleet,
		Consumers:   consumers,
		Production:  prod,
		Usage:       usage,
		Overpower:   over,
		Unscheduled: unscheduled(fleet, consumers),
		Capped:      capped,
		Cycles:      1,
	}, nil
}

// improve runs the evolution strategy from the greedy starts and moves the
// placements when it finds less grid energy.
func (o *GlobalOptimizer) improve(day model.Day, placements []Placement, prod model.Timeline) error {
	n := len(placements)
	fp := &fleetProblem{
		profiles:   make([][]float64, n),
		earliest:   make([]int, n),
		latest:     make([]int, n),
		production: prod,
		stopBelow:  o.flags.Optimizer.StopBelowKWh * 1000,
		best:       math.Inf(1),
	}
	seed := make([]float64, n)
	seedStarts := make([]int, n)
	for i, p := range placements {
		fp.profiles[i] = p.Profile.Samples
		fp.earliest[i], fp.latest[i] = Window(day, p.Vehicle, day.Start, p.Profile.Minutes())
		seedStarts[i] = day.Index(p.Consumer.Power.Interval.Start)
		seed[i] = float64(seedStarts[i])
	}
	seedGrid := fp.grid(seedStarts)
	if seedGrid < fp.stopBelow {
		o.log.Infof("greedy seed already below %.0f Wh of grid energy", fp.stopBelow)
		return nil
	}

	res, err := optimize.Minimize(
		optimize.Problem{Func: fp.objective, Status: fp.status},
		seed,
		&optimize.Settings{FuncEvaluations: o.flags.Optimizer.MaxEvaluations, Concurrent: 1},
		&optimize.CmaEsChol{InitStepSize: o.flags.Optimizer.StepSize, Population: o.flags.Optimizer.Population},
	)
	if err != nil {
		return fmt.Errorf("global optimizer: %w", err)
	}
	starts := fp.starts(res.X)
	found := fp.grid(starts)
	o.log.Infof("global optimizer finished with status %v after %d evaluations: %.0f Wh grid (greedy %.0f Wh)",
		res.Status, res.Stats.FuncEvaluations, found, seedGrid)
	if found >= seedGrid {
		return nil
	}
	usage := model.NewTimeline()
	for i := range placements {
		p := &placements[i]
		p.Consumer.Power = model.NewPowerCurve(day.Time(starts[i]), p.Consumer.Power.Samples)
		p.GridWh = GridEnergy(p.Profile.Samples, starts[i], usage, prod)
		usage.AddAt(starts[i], p.Profile.Samples)
	}
	return nil
}
