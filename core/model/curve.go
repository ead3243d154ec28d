package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// PowerCurve is a per-minute power series in W bound to an interval. The
// number of samples equals the interval length in minutes. The zero value
// carries no data and reports zero power and energy everywhere.
type PowerCurve struct {
	Interval TimeInterval
	Samples  []float64
}

// NewPowerCurve binds samples to the interval starting at start.
func NewPowerCurve(start time.Time, samples []float64) PowerCurve {
	return PowerCurve{
		Interval: TimeInterval{Start: start, End: start.Add(time.Duration(len(samples)) * time.Minute)},
		Samples:  samples,
	}
}

// PowerAt returns the power in W at t, or zero outside the curve.
func (c PowerCurve) PowerAt(t time.Time) float64 {
	if t.Before(c.Interval.Start) || t.After(c.Interval.End) {
		return 0
	}
	idx := int(t.Sub(c.Interval.Start) / time.Minute)
	if idx < 0 || idx >= c.Interval.Minutes() || idx >= len(c.Samples) {
		return 0
	}
	return c.Samples[idx]
}

// Energy returns the energy of the curve in Wh.
func (c PowerCurve) Energy() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	return floats.Sum(c.Samples) / 60
}

// Len returns the number of samples.
func (c PowerCurve) Len() int { return len(c.Samples) }

// Last returns the final sample or zero for an empty curve.
func (c PowerCurve) Last() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	return c.Samples[len(c.Samples)-1]
}

// TruncateAt cuts the curve at t: End becomes t and samples from t on are
// dropped. Times outside the curve leave it unchanged. The curve is never
// extended.
func (c PowerCurve) TruncateAt(t time.Time) PowerCurve {
	if !c.Interval.Contains(t) {
		return c
	}
	idx := int(t.Sub(c.Interval.Start) / time.Minute)
	if idx > len(c.Samples) {
		idx = len(c.Samples)
	}
	samples := make([]float64, idx)
	copy(samples, c.Samples[:idx])
	return PowerCurve{Interval: TimeInterval{Start: c.Interval.Start, End: t}, Samples: samples}
}

// Clone returns a deep copy.
func (c PowerCurve) Clone() PowerCurve {
	samples := make([]float64, len(c.Samples))
	copy(samples, c.Samples)
	return PowerCurve{Interval: c.Interval, Samples: samples}
}

type curveJSON struct {
	Power    []float64       `json:"power"`
	Interval json.RawMessage `json:"interval"`
}

// MarshalJSON encodes the curve in the {power, interval} form.
func (c PowerCurve) MarshalJSON() ([]byte, error) {
	iv, err := json.Marshal(c.Interval)
	if err != nil {
		return nil, err
	}
	power := c.Samples
	if power == nil {
		power = []float64{}
	}
	return json.Marshal(curveJSON{Power: power, Interval: iv})
}

// UnmarshalJSON decodes a curve. The interval is mandatory, minute aligned
// and must hold exactly one sample per minute.
func (c *PowerCurve) UnmarshalJSON(b []byte) error {
	var raw curveJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw.Interval) == 0 || string(raw.Interval) == "null" {
		return fmt.Errorf("%w: power curve without interval", ErrInvalidInterval)
	}
	var iv TimeInterval
	if err := json.Unmarshal(raw.Interval, &iv); err != nil {
		return err
	}
	if !minuteAligned(iv.Start) || !minuteAligned(iv.End) {
		return fmt.Errorf("%w: bounds must fall on whole minutes", ErrInvalidInterval)
	}
	if len(raw.Power) != iv.Minutes() {
		return fmt.Errorf("%w: %d samples for a %d minute interval", ErrInvalidInterval, len(raw.Power), iv.Minutes())
	}
	c.Interval = iv
	c.Samples = raw.Power
	return nil
}

func minuteAligned(t time.Time) bool {
	return t.Nanosecond() == 0 && t.Unix()%60 == 0
}

// Overpower is the optional opportunistic curve of a consumer: either absent
// or present.
type Overpower struct {
	curve   PowerCurve
	present bool
}

// NoOverpower returns the absent value.
func NoOverpower() Overpower { return Overpower{} }

// SomeOverpower wraps a granted curve.
func SomeOverpower(c PowerCurve) Overpower { return Overpower{curve: c, present: true} }

// Get returns the curve and whether it is present.
func (o Overpower) Get() (PowerCurve, bool) { return o.curve, o.present }

// Present reports whether a curve was granted.
func (o Overpower) Present() bool { return o.present }

// Energy returns the granted energy in Wh, zero when absent.
func (o Overpower) Energy() float64 {
	if !o.present {
		return 0
	}
	return o.curve.Energy()
}

// PowerAt returns the granted power at t, zero when absent.
func (o Overpower) PowerAt(t time.Time) float64 {
	if !o.present {
		return 0
	}
	return o.curve.PowerAt(t)
}

// MarshalJSON writes the curve, or a curve with a null interval when absent.
func (o Overpower) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte(`{"power":[],"interval":null}`), nil
	}
	return json.Marshal(o.curve)
}

// UnmarshalJSON accepts null, or a curve whose interval may be null (absent).
func (o *Overpower) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = NoOverpower()
		return nil
	}
	var raw curveJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw.Interval) == 0 || string(raw.Interval) == "null" {
		*o = NoOverpower()
		return nil
	}
	var c PowerCurve
	if err := json.Unmarshal(b, &c); err != nil {
		return err
	}
	*o = SomeOverpower(c)
	return nil
}
