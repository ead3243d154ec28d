// Package forecast turns renewable production forecasts into the per-minute
// production timeline of a simulated day.
package forecast

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/solarsched/core/model"
)

// ErrInvalidScale is returned when a scaling peak is not positive.
var ErrInvalidScale = errors.New("invalid forecast scale")

// Datapoint is a forecast value in W valid from Time on.
type Datapoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Forecast is a time ordered series of datapoints.
type Forecast struct {
	Points []Datapoint `json:"points"`
}

// New returns a forecast with the points sorted by time.
func New(points []Datapoint) Forecast {
	out := append([]Datapoint(nil), points...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return Forecast{Points: out}
}

// Scale maps the forecast from a reference installation with referencePeakW
// onto one with peakW.
func (f Forecast) Scale(peakW, referencePeakW float64) (Forecast, error) {
	if peakW <= 0 || referencePeakW <= 0 {
		return Forecast{}, fmt.Errorf("%w: peak %.0f W, reference %.0f W", ErrInvalidScale, peakW, referencePeakW)
	}
	out := make([]Datapoint, len(f.Points))
	for i, p := range f.Points {
		out[i] = Datapoint{Time: p.Time, Value: p.Value / referencePeakW * peakW}
	}
	return Forecast{Points: out}, nil
}

// ValueAt returns the forecast at t. With smooth the value is interpolated
// linearly towards the next point, otherwise the current value holds until
// the next point. Times before the first or from the last point on are zero.
func (f Forecast) ValueAt(t time.Time, smooth bool) float64 {
	i := sort.Search(len(f.Points), func(i int) bool { return f.Points[i].Time.After(t) })
	if i == 0 || i == len(f.Points) {
		return 0
	}
	cur, next := f.Points[i-1], f.Points[i]
	if !smooth {
		return cur.Value
	}
	span := next.Time.Sub(cur.Time)
	return cur.Value + (next.Value-cur.Value)*float64(t.Sub(cur.Time))/float64(span)
}

// Daily keeps the points falling on the given day.
func (f Forecast) Daily(day model.Day) Forecast {
	var out []Datapoint
	for _, p := range f.Points {
		if day.Contains(p.Time) {
			out = append(out, p)
		}
	}
	return Forecast{Points: out}
}

// Peak returns the highest value of the forecast, zero when empty.
func (f Forecast) Peak() float64 {
	var peak float64
	for _, p := range f.Points {
		if p.Value > peak {
			peak = p.Value
		}
	}
	return peak
}

// Production samples the forecast of day once per minute.
func (f Forecast) Production(day model.Day, smooth bool) model.Timeline {
	daily := f.Daily(day)
	tl := model.NewTimeline()
	for i := range tl {
		tl[i] = daily.ValueAt(day.Time(i), smooth)
	}
	return tl
}
