package scheduler

import (
	"time"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/model"
)

// minSurplusW is the smallest renewable surplus that opens an overcharge
// minute.
const minSurplusW = 1000

// Grant is an overcharge window handed out by one allocator pass. Curve holds
// only the minutes granted in that pass.
type Grant struct {
	ConsumerID string
	Curve      model.PowerCurve
	Extended   bool
}

// AllocateOvercharge hands renewable surplus left after usage to consumers
// that still have battery headroom. Grants that have not started at t are
// revoked and recomputed. A window opens at the consumer's committed end,
// which must not lie before t, and runs while the vehicle is parked, the
// battery has headroom and the surplus is at least minSurplusW. Power never
// exceeds the last committed level and never rises once it has dropped.
//
// The input slice is not modified. The returned timeline is the total
// overpower of the returned consumers.
func AllocateOvercharge(day model.Day, t time.Time, consumers []model.Consumer, vehicles map[string]model.Vehicle,
	production, usage model.Timeline, log logger.Logger) ([]model.Consumer, model.Timeline, []Grant) {
	out := make([]model.Consumer, len(consumers))
	for i, c := range consumers {
		out[i] = c.Clone()
		if op, ok := c.Overpower.Get(); ok && op.Interval.Start.After(t) {
			out[i].Overpower = model.NoOverpower()
		}
	}

	kept := model.OverpowerOf(day, out)
	granted := model.NewTimeline()
	var grants []Grant

	for i := range out {
		c := &out[i]
		v, ok := vehicles[c.ID]
		if !ok {
			continue
		}
		prior, hasPrior := c.Overpower.Get()
		if hasPrior && prior.Interval.End.After(t) {
			continue
		}
		start := c.CommittedEnd()
		if start.Before(t) {
			continue
		}
		if hasPrior && !prior.Interval.End.Equal(start) {
			continue
		}

		limit := c.Power.Last()
		if hasPrior && prior.Len() > 0 {
			limit = prior.Last()
		}
		if limit <= 0 {
			continue
		}

		headroomWh := (v.BatteryKWh*(1-v.SoCArrive/100) - c.Energy()/1000) * 1000
		from := day.Index(start)
		leave := day.Index(v.Departure)

		var samples []float64
		var grantedWh float64
		for m := from; m < len(production); m++ {
			if m >= leave || headroomWh-grantedWh <= 0 {
				break
			}
			surplus := production.At(m) - usage.At(m) - kept.At(m) - granted.At(m)
			if surplus < minSurplusW {
				break
			}
			p := limit
			if surplus < p {
				p = surplus
			}
			samples = append(samples, p)
			grantedWh += p / 60
			limit = p
		}
		if len(samples) == 0 {
			continue
		}

		granted.AddAt(from, samples)
		curve := model.NewPowerCurve(start, samples)
		grants = append(grants, Grant{ConsumerID: c.ID, Curve: curve, Extended: hasPrior})
		if hasPrior {
			merged := append(append([]float64(nil), prior.Samples...), samples...)
			c.Overpower = model.SomeOverpower(model.NewPowerCurve(prior.Interval.Start, merged))
		} else {
			c.Overpower = model.SomeOverpower(curve)
		}
		log.Debugw("overcharge granted", map[string]any{
			"vehicle_id": c.ID,
			"start":      start.Format(time.RFC3339),
			"minutes":    len(samples),
			"energy_wh":  curve.Energy(),
			"extended":   hasPrior,
		})
	}
	return out, model.OverpowerOf(day, out), grants
}
