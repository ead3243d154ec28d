package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/metrics"
	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/internal/eventbus"
)

// CycleEvent describes one reschedule cycle triggered by arrivals.
type CycleEvent struct {
	RunID      string
	Minute     int
	Time       time.Time
	Arrivals   []string
	Reclaimed  []string
	Truncated  []string
	Placements []Placement
	Grants     []Grant
}

// State is the schedule owned by the Rescheduler during one day. Usage and
// Overpower are always rebuilt from Consumers.
type State struct {
	Day        model.Day
	Production model.Timeline
	Consumers  []model.Consumer
	Usage      model.Timeline
	Overpower  model.Timeline
}

// Rescheduler advances a day minute by minute and reschedules whenever
// vehicles arrive. It is not safe for concurrent use.
type Rescheduler struct {
	flags  Flags
	greedy *Greedy
	log    logger.Logger
	sink   metrics.MetricsSink
	bus    *eventbus.TypedBus[CycleEvent]

	runID    string
	vehicles []model.Vehicle
	byID     map[string]model.Vehicle
	arrivals map[int][]string
	capped   []model.TargetCapped
	cycles   int
	state    State
}

// NewRescheduler creates the incremental greedy engine. sink and bus may be
// nil.
func NewRescheduler(flags Flags, log logger.Logger, sink metrics.MetricsSink, bus *eventbus.TypedBus[CycleEvent]) *Rescheduler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Rescheduler{
		flags:  flags,
		greedy: NewGreedy(flags, log),
		log:    log,
		sink:   sink,
		bus:    bus,
	}
}

// Reset prepares a new day. Vehicles that need no energy are left out of the
// arrival index.
func (r *Rescheduler) Reset(day model.Day, vehicles []model.Vehicle, production model.Timeline) error {
	fleet, capped, err := prepareFleet(vehicles, r.log)
	if err != nil {
		return err
	}
	r.runID = uuid.NewString()
	r.vehicles = fleet
	r.byID = vehicleIndex(fleet)
	r.capped = capped
	r.cycles = 0
	r.arrivals = make(map[int][]string)
	for _, v := range fleet {
		if v.EnergyRequired() <= 0 {
			r.log.Infof("vehicle %s needs no charge, skipping", v.ID)
			continue
		}
		m := day.Index(v.Arrival)
		r.arrivals[m] = append(r.arrivals[m], v.ID)
	}
	r.state = State{
		Day:        day,
		Production: model.TimelineFrom(production),
		Usage:      model.NewTimeline(),
		Overpower:  model.NewTimeline(),
	}
	return nil
}

// State returns the current schedule.
func (r *Rescheduler) State() State { return r.state }

// RunID identifies the current day run.
func (r *Rescheduler) RunID() string { return r.runID }

// Step processes minute m. It reports false and leaves the state untouched
// when no vehicle arrives at m.
func (r *Rescheduler) Step(m int) (CycleEvent, bool) {
	ids := r.arrivals[m]
	if len(ids) == 0 {
		return CycleEvent{}, false
	}
	day := r.state.Day
	t := day.Time(m)
	ev := CycleEvent{RunID: r.runID, Minute: m, Time: t, Arrivals: ids}

	inPool := make(map[string]bool, len(ids))
	for _, id := range ids {
		inPool[id] = true
	}
	ev.Reclaimed = model.Unstarted(r.state.Consumers, t)
	reclaimed := make(map[string]bool, len(ev.Reclaimed))
	for _, id := range ev.Reclaimed {
		reclaimed[id] = true
		inPool[id] = true
	}
	kept := make([]model.Consumer, 0, len(r.state.Consumers))
	for _, c := range r.state.Consumers {
		if reclaimed[c.ID] {
			continue
		}
		if op, ok := c.Overpower.Get(); ok && !op.Interval.Start.After(t) && op.Interval.End.After(t) {
			c.Overpower = model.SomeOverpower(op.TruncateAt(t))
			ev.Truncated = append(ev.Truncated, c.ID)
		}
		kept = append(kept, c)
	}

	pool := make([]model.Vehicle, 0, len(inPool))
	for _, v := range r.vehicles {
		if inPool[v.ID] {
			pool = append(pool, v)
		}
	}

	usage := model.UsageOf(day, kept)
	available := model.Available(r.state.Production, usage)
	placements, _ := r.greedy.PlaceAll(day, pool, t, available)
	ev.Placements = placements
	for _, p := range placements {
		kept = append(kept, p.Consumer)
	}
	usage = model.UsageOf(day, kept)

	over := model.OverpowerOf(day, kept)
	if r.flags.OverchargeEnabled {
		kept, over, ev.Grants = AllocateOvercharge(day, t, kept, r.byID, r.state.Production, usage, r.log)
	}

	r.state.Consumers = kept
	r.state.Usage = usage
	r.state.Overpower = over
	r.cycles++

	r.log.Infof("reschedule at %s: %d arrivals, %d reclaimed, %d truncated, %d overcharge grants",
		t.Format("15:04"), len(ids), len(ev.Reclaimed), len(ev.Truncated), len(ev.Grants))
	r.publish(ev, reclaimed)
	return ev, true
}

func (r *Rescheduler) publish(ev CycleEvent, reclaimed map[string]bool) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
	if err := r.sink.RecordPlacements(placementEvents(r.runID, ev.Time, ev.Placements, reclaimed)); err != nil {
		r.log.Errorf("record placements: %v", err)
	}
	if rec, ok := r.sink.(metrics.OverchargeRecorder); ok && len(ev.Grants) > 0 {
		if err := rec.RecordOvercharge(overchargeEvents(r.runID, ev.Time, ev.Grants)); err != nil {
			r.log.Errorf("record overcharge: %v", err)
		}
	}
	if rec, ok := r.sink.(metrics.CycleRecorder); ok {
		err := rec.RecordCycle(metrics.CycleEvent{
			RunID:     r.runID,
			Time:      ev.Time,
			Arrivals:  len(ev.Arrivals),
			Reclaimed: len(ev.Reclaimed),
			Truncated: len(ev.Truncated),
			Placed:    len(ev.Placements),
			Granted:   len(ev.Grants),
		})
		if err != nil {
			r.log.Errorf("record cycle: %v", err)
		}
	}
}

// Result returns the schedule built so far.
func (r *Rescheduler) Result() Result {
	consumers := make([]model.Consumer, len(r.state.Consumers))
	for i, c := range r.state.Consumers {
		consumers[i] = c.Clone()
	}
	return Result{
		RunID:       r.runID,
		Day:         r.state.Day,
		Vehicles:    append([]model.Vehicle(nil), r.vehicles...),
		Consumers:   consumers,
		Production:  r.state.Production.Clone(),
		Usage:       r.state.Usage.Clone(),
		Overpower:   r.state.Overpower.Clone(),
		Unscheduled: unscheduled(r.vehicles, consumers),
		Capped:      append([]model.TargetCapped(nil), r.capped...),
		Cycles:      r.cycles,
	}
}

// Schedule runs the whole day.
func (r *Rescheduler) Schedule(day model.Day, vehicles []model.Vehicle, production model.Timeline) (Result, error) {
	if err := r.Reset(day, vehicles, production); err != nil {
		return Result{}, err
	}
	for m := 0; m < model.MinutesPerDay; m++ {
		r.Step(m)
	}
	res := r.Result()
	for _, id := range res.Unscheduled {
		r.log.Warnf("vehicle %s was never scheduled", id)
	}
	return res, nil
}
