package scheduler

import (
	"time"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/infra/logger"
)

var (
	testDay = model.NewDay(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	nop     = logger.NopLogger{}
)

func at(h, m int) time.Time {
	return testDay.Start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// solar returns a production timeline with w watts between the two clock
// times and zero elsewhere.
func solar(from, to time.Time, w float64) model.Timeline {
	tl := model.NewTimeline()
	for i := testDay.Index(from); i < testDay.Index(to); i++ {
		tl[i] = w
	}
	return tl
}

func vehicle(id string, arrive, leave time.Time, socArrive, socTarget, battery, rate float64) model.Vehicle {
	return model.Vehicle{
		ID:          id,
		Arrival:     arrive,
		Departure:   leave,
		SoCArrive:   socArrive,
		SoCTarget:   socTarget,
		BatteryKWh:  battery,
		MaxChargeKW: rate,
	}
}

func flags(reduce, overcharge bool) Flags {
	f := DefaultFlags()
	f.ReduceMaxPower = reduce
	f.OverchargeEnabled = overcharge
	return f
}

func constant(n int, w float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = w
	}
	return out
}
