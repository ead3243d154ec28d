package model

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// MinutesPerDay is the number of slots in a simulated day.
const MinutesPerDay = 24 * 60

// Day maps timestamps of one simulated day to minute indices.
type Day struct {
	Start time.Time
}

// NewDay returns the day containing t, truncated to midnight in t's location.
func NewDay(t time.Time) Day {
	return Day{Start: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

// Index returns the minute offset of t from the start of the day. Values
// outside 0..MinutesPerDay-1 denote times outside the day.
func (d Day) Index(t time.Time) int {
	return int(t.Sub(d.Start) / time.Minute)
}

// Time returns the timestamp of minute i.
func (d Day) Time(i int) time.Time {
	return d.Start.Add(time.Duration(i) * time.Minute)
}

// End returns the first instant after the day.
func (d Day) End() time.Time { return d.Start.Add(MinutesPerDay * time.Minute) }

// Contains reports whether t lies within the day.
func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End())
}

// Timeline is a per-minute power series in W spanning one day.
type Timeline []float64

// NewTimeline returns a zeroed day timeline.
func NewTimeline() Timeline { return make(Timeline, MinutesPerDay) }

// At returns the sample at minute i, zero outside the day.
func (tl Timeline) At(i int) float64 {
	if i < 0 || i >= len(tl) {
		return 0
	}
	return tl[i]
}

// AddCurve adds the curve samples at their offset in the day. Samples that
// fall outside the day are ignored.
func (tl Timeline) AddCurve(d Day, c PowerCurve) {
	tl.AddAt(d.Index(c.Interval.Start), c.Samples)
}

// AddAt adds samples starting at minute offset.
func (tl Timeline) AddAt(offset int, samples []float64) {
	lo, hi := offset, offset+len(samples)
	if lo < 0 {
		lo = 0
	}
	if hi > len(tl) {
		hi = len(tl)
	}
	if lo >= hi {
		return
	}
	floats.Add(tl[lo:hi], samples[lo-offset:hi-offset])
}

// Add adds other pointwise and returns tl.
func (tl Timeline) Add(other Timeline) Timeline {
	floats.Add(tl, other)
	return tl
}

// Clone returns a copy.
func (tl Timeline) Clone() Timeline {
	out := make(Timeline, len(tl))
	copy(out, tl)
	return out
}

// Energy returns the energy in Wh.
func (tl Timeline) Energy() float64 { return floats.Sum(tl) / 60 }

// Available returns max(production - usage, 0) pointwise.
func Available(production, usage Timeline) Timeline {
	out := NewTimeline()
	floats.SubTo(out, production, usage)
	for i, v := range out {
		if v < 0 {
			out[i] = 0
		}
	}
	return out
}

// Deficit returns max(usage - production, 0) pointwise, the power drawn from
// the grid.
func Deficit(production, usage Timeline) Timeline {
	out := NewTimeline()
	floats.SubTo(out, usage, production)
	for i, v := range out {
		if v < 0 {
			out[i] = 0
		}
	}
	return out
}

// UsageOf rebuilds the regular usage timeline from scratch.
func UsageOf(d Day, consumers []Consumer) Timeline {
	tl := NewTimeline()
	for _, c := range consumers {
		tl.AddCurve(d, c.Power)
	}
	return tl
}

// OverpowerOf rebuilds the overpower timeline from scratch.
func OverpowerOf(d Day, consumers []Consumer) Timeline {
	tl := NewTimeline()
	for _, c := range consumers {
		if op, ok := c.Overpower.Get(); ok {
			tl.AddCurve(d, op)
		}
	}
	return tl
}

// TimelineFrom copies values into a day timeline, padding with zeros or
// dropping samples beyond the day.
func TimelineFrom(values []float64) Timeline {
	tl := NewTimeline()
	copy(tl, values)
	return tl
}
