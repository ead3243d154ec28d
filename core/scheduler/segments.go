package scheduler

import (
	"time"

	"github.com/kilianp07/solarsched/core/model"
)

// Segment is a rectangle of a stacked schedule plot: constant power drawn by
// one consumer on top of a constant base.
type Segment struct {
	ConsumerID string    `json:"id_user"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PowerW     float64   `json:"power_w"`
	BaseW      float64   `json:"base_w"`
	Overcharge bool      `json:"overcharge"`
}

// Segments projects consumers onto stacked segments. Consumers are stacked
// in the given order, each regular curve followed by its overpower curve.
func Segments(day model.Day, consumers []model.Consumer) []Segment {
	stack := model.NewTimeline()
	var out []Segment
	for _, c := range consumers {
		out = appendSegments(out, day, stack, c.ID, c.Power, false)
		if op, ok := c.Overpower.Get(); ok {
			out = appendSegments(out, day, stack, c.ID, op, true)
		}
	}
	return out
}

func appendSegments(out []Segment, day model.Day, stack model.Timeline, id string, curve model.PowerCurve, over bool) []Segment {
	offset := day.Index(curve.Interval.Start)
	open := false
	var cur Segment
	for k, p := range curve.Samples {
		t := curve.Interval.Start.Add(time.Duration(k) * time.Minute)
		base := stack.At(offset + k)
		if open && p == cur.PowerW && base == cur.BaseW {
			cur.End = t.Add(time.Minute)
			continue
		}
		if open {
			out = append(out, cur)
		}
		cur = Segment{ConsumerID: id, Start: t, End: t.Add(time.Minute), PowerW: p, BaseW: base, Overcharge: over}
		open = true
	}
	if open {
		out = append(out, cur)
	}
	stack.AddCurve(day, curve)
	return out
}
