package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParams is returned for generator parameters that cannot
// describe a fleet.
var ErrInvalidParams = errors.New("invalid generator parameters")

// BatteryShare is the probability of a battery capacity in kWh.
type BatteryShare struct {
	CapacityKWh float64 `json:"capacity_kwh" yaml:"capacity_kwh"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Params controls synthetic fleet generation.
type Params struct {
	Count            int            `json:"count" yaml:"count"`
	Batteries        []BatteryShare `json:"batteries" yaml:"batteries"`
	SoCMeanArrival   float64        `json:"soc_mean_arrival" yaml:"soc_mean_arrival"`
	SoCVariance      float64        `json:"soc_variance" yaml:"soc_variance"`
	ChargeRatesKW    []float64      `json:"charge_rates_kw" yaml:"charge_rates_kw"`
	MeanParkingHours float64        `json:"mean_parking_hours" yaml:"mean_parking_hours"`
	ParkingShape     float64        `json:"parking_shape" yaml:"parking_shape"`
	Seed             uint64         `json:"seed" yaml:"seed"`
}

// DefaultParams returns the reference fleet: ten vehicles leaving around 17:00.
func DefaultParams() Params {
	return Params{
		Count: 10,
		Batteries: []BatteryShare{
			{CapacityKWh: 60, Probability: 0.5},
			{CapacityKWh: 18, Probability: 0.2},
			{CapacityKWh: 100, Probability: 0.3},
		},
		SoCMeanArrival:   0.4,
		SoCVariance:      0.04,
		ChargeRatesKW:    []float64{11, 22, 7},
		MeanParkingHours: 8,
		ParkingShape:     40,
	}
}

var targetChoices = []float64{60, 70, 80, 90, 100}

const (
	departureBase   = 17 * time.Hour
	departureJitter = 90
)

// Validate checks the distributions are well formed.
func (p Params) Validate() error {
	switch {
	case p.Count < 0:
		return fmt.Errorf("%w: count must not be negative", ErrInvalidParams)
	case len(p.Batteries) == 0:
		return fmt.Errorf("%w: battery distribution is empty", ErrInvalidParams)
	case len(p.ChargeRatesKW) == 0:
		return fmt.Errorf("%w: charge rates are empty", ErrInvalidParams)
	case p.SoCMeanArrival <= 0 || p.SoCMeanArrival >= 1:
		return fmt.Errorf("%w: soc mean %.3f outside (0,1)", ErrInvalidParams, p.SoCMeanArrival)
	case p.SoCVariance <= 0 || p.SoCVariance >= p.SoCMeanArrival*(1-p.SoCMeanArrival):
		return fmt.Errorf("%w: soc variance %.3f not below mean*(1-mean)", ErrInvalidParams, p.SoCVariance)
	case p.MeanParkingHours <= 0 || p.ParkingShape <= 0:
		return fmt.Errorf("%w: parking time parameters must be positive", ErrInvalidParams)
	}
	weights := make([]float64, len(p.Batteries))
	for i, b := range p.Batteries {
		if b.Probability < 0 || b.CapacityKWh <= 0 {
			return fmt.Errorf("%w: battery share %d", ErrInvalidParams, i)
		}
		weights[i] = b.Probability
	}
	if math.Abs(floats.Sum(weights)-1) > 1e-9 {
		return fmt.Errorf("%w: battery probabilities must sum to 1", ErrInvalidParams)
	}
	return nil
}

// betaShape derives the Beta parameters from mean and variance.
func (p Params) betaShape() (alpha, beta float64) {
	m := p.SoCMeanArrival
	c := m*(1-m)/p.SoCVariance - 1
	return m * c, (1 - m) * c
}

// Generate draws a fleet. Arrival SoC is Beta distributed, parking time is
// Erlang distributed and departures scatter uniformly by 90 minutes around
// 17:00. Every generated vehicle needs charging. The same seed always yields
// the same fleet.
func Generate(p Params) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	weights := make([]float64, len(p.Batteries))
	for i, b := range p.Batteries {
		weights[i] = b.Probability
	}
	batteries := distuv.NewCategorical(weights, rng)
	alpha, beta := p.betaShape()
	soc := distuv.Beta{Alpha: alpha, Beta: beta, Src: rng}
	parking := distuv.Gamma{Alpha: p.ParkingShape, Beta: p.ParkingShape / p.MeanParkingHours, Src: rng}

	out := make([]Record, 0, p.Count)
	for i := 1; i <= p.Count; i++ {
		capacity := p.Batteries[int(batteries.Rand())].CapacityKWh
		park := time.Duration(parking.Rand() * float64(time.Hour))
		leave := departureBase + time.Duration(rng.IntN(2*departureJitter+1)-departureJitter)*time.Minute
		arrive := leave - park
		if arrive < 0 {
			arrive = 0
		}
		if leave-arrive < time.Minute {
			arrive = leave - time.Minute
		}
		arrivePct := math.Max(0, math.Min(99, math.Floor(soc.Rand()*100)))
		leavePct := targetChoices[rng.IntN(len(targetChoices))]
		if leavePct < arrivePct {
			leavePct = 100
		}
		out = append(out, Record{
			ID:            ID(strconv.Itoa(i)),
			TimeArrive:    clockString(arrive),
			TimeLeave:     clockString(leave),
			PercentArrive: arrivePct,
			PercentLeave:  leavePct,
			BatterySize:   capacity,
			ChargeMax:     p.ChargeRatesKW[rng.IntN(len(p.ChargeRatesKW))],
		})
	}
	return out, nil
}

func clockString(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
