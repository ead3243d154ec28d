package scenarios

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/infra/logger"
	"github.com/kilianp07/solarsched/infra/metrics"
	"github.com/kilianp07/solarsched/internal/eventbus"
)

// Run schedules the scenario with the rescheduling loop and returns the
// result together with every id reclaimed during the day.
func Run(sc *Scenario, sink *metrics.PromSink) (scheduler.Result, []string, error) {
	day, err := sc.Day()
	if err != nil {
		return scheduler.Result{}, nil, err
	}
	prod, err := sc.Production(day)
	if err != nil {
		return scheduler.Result{}, nil, err
	}
	vehicles := make([]model.Vehicle, 0, len(sc.Vehicles))
	for _, def := range sc.Vehicles {
		v, err := def.ToModel(day)
		if err != nil {
			return scheduler.Result{}, nil, err
		}
		vehicles = append(vehicles, v)
	}

	bus := eventbus.NewTyped[scheduler.CycleEvent]()
	sub := bus.SubscribeBuffered(model.MinutesPerDay)
	r := scheduler.NewRescheduler(sc.Scheduling, logger.NopLogger{}, sink, bus)
	res, err := r.Schedule(day, vehicles, prod)
	bus.Close()
	var reclaimed []string
	for ev := range sub {
		reclaimed = append(reclaimed, ev.Reclaimed...)
	}
	return res, reclaimed, err
}

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	res, reclaimed, err := Run(sc, sink)
	require.NoError(t, err)
	exp := sc.Expected

	assert.Len(t, res.Consumers, exp.Scheduled, "scheduled consumers")
	seen := map[string]bool{}
	for _, c := range res.Consumers {
		assert.False(t, seen[c.ID], "duplicate consumer %s", c.ID)
		seen[c.ID] = true
	}
	if exp.Cycles > 0 {
		assert.Equal(t, exp.Cycles, res.Cycles, "cycles")
		want := fmt.Sprintf(`# HELP solarsched_cycles_total Reschedule cycles that changed the schedule
# TYPE solarsched_cycles_total counter
solarsched_cycles_total %d
`, exp.Cycles)
		assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "solarsched_cycles_total"))
	}
	for id, start := range exp.Starts {
		want, err := clock(res.Day, start)
		require.NoError(t, err)
		c := find(res.Consumers, id)
		require.NotNil(t, c, "consumer %s", id)
		assert.Equal(t, want, c.Power.Interval.Start, "start of %s", id)
	}
	for _, id := range exp.Overcharge {
		c := find(res.Consumers, id)
		require.NotNil(t, c, "consumer %s", id)
		op, ok := c.Overpower.Get()
		require.True(t, ok, "overcharge of %s", id)
		assert.Equal(t, c.Power.Interval.End, op.Interval.Start)
	}
	if len(exp.Rescheduled) > 0 {
		assert.ElementsMatch(t, exp.Rescheduled, reclaimed)
	}

	sum := scheduler.Summarize(res, 0)
	switch exp.Grid {
	case "zero":
		assert.InDelta(t, 0, sum.GridWh, 1e-9, "grid energy")
	case "positive":
		assert.Greater(t, sum.GridWh, 0.0, "grid energy")
	}
	assert.ElementsMatch(t, exp.Missed, sum.Missed)
}

func find(consumers []model.Consumer, id string) *model.Consumer {
	for i := range consumers {
		if consumers[i].ID == id {
			return &consumers[i]
		}
	}
	return nil
}
