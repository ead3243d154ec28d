package scheduler

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/solarsched/core/logger"
	"github.com/kilianp07/solarsched/core/model"
)

const (
	flattenMinMinutes = 120
	flattenHeadShare  = 0.85
	flattenTailShare  = 0.15
)

// Profile is the contiguous demand block of one vehicle in W per minute.
type Profile struct {
	Samples []float64
	RateKW  float64
	// Divisor is the factor the vehicle rate was divided by (1, 2, 4 or 8).
	Divisor float64
	Flat    bool
}

// Minutes returns the profile length.
func (p Profile) Minutes() int { return len(p.Samples) }

// Energy returns the profile energy in Wh.
func (p Profile) Energy() float64 {
	if len(p.Samples) == 0 {
		return 0
	}
	return floats.Sum(p.Samples) / 60
}

// BuildProfile shapes the demand of v. The vehicle is first clamped to what
// its parking window can deliver; the clamped copy is returned alongside the
// profile together with the warning, if any.
func BuildProfile(v model.Vehicle, f Flags, log logger.Logger) (Profile, model.Vehicle, *model.TargetCapped) {
	v, capped := v.Feasible()
	if capped != nil {
		log.Warnf("%s", capped.String())
	}

	rate := v.MaxChargeKW
	minutes := v.MinDuration()
	park := v.ParkingMinutes()
	divisor := 1.0

	if f.ReduceMaxPower {
		if rate > 20 && minutes < 30 && park > 4*minutes {
			log.Infof("vehicle %s can be charged with 1/4 max power, parking %d minutes, required %d minutes", v.ID, park, minutes)
			rate /= 4
			minutes *= 4
			divisor *= 4
		}
		if rate > 15 && park > 2*minutes {
			log.Infof("vehicle %s can be charged with 1/2 max power, parking %d minutes, required %d minutes", v.ID, park, minutes)
			rate /= 2
			minutes *= 2
			divisor *= 2
		}
	}

	if f.FlattenTail && minutes >= flattenMinMinutes {
		if samples, ok := flattenedSamples(v.EnergyRequired(), rate, minutes, park); ok {
			return Profile{Samples: samples, RateKW: rate, Divisor: divisor}, v, capped
		}
	}
	return Profile{Samples: flat(rate, minutes), RateKW: rate, Divisor: divisor, Flat: true}, v, capped
}

// flattenedSamples charges the head of the session at full rate and appends a
// linear ramp down to half rate sized on the remaining energy. ok is false
// when the ramp would not fit the parking window.
func flattenedSamples(energyKWh, rate float64, minutes, park int) ([]float64, bool) {
	head := int(float64(minutes) * flattenHeadShare)
	slope := int(flattenTailShare * energyKWh / rate * 4 / 3 * 60)
	if head+slope > park {
		return nil, false
	}
	samples := flat(rate, head)
	for k := 0; k < slope; k++ {
		samples = append(samples, (rate-rate/2*float64(k)/float64(slope))*1000)
	}
	return samples, true
}

func flat(rateKW float64, minutes int) []float64 {
	if minutes <= 0 {
		return []float64{}
	}
	samples := make([]float64, minutes)
	for i := range samples {
		samples[i] = rateKW * 1000
	}
	return samples
}
