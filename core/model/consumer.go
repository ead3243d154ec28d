package model

import "time"

// Consumer is the realised schedule of one vehicle: the committed regular
// curve plus an optional opportunistic overpower curve.
type Consumer struct {
	ID        string     `json:"id_user"`
	Power     PowerCurve `json:"power"`
	Overpower Overpower  `json:"overpower"`
}

// Energy returns regular plus overpower energy in Wh.
func (c Consumer) Energy() float64 {
	return c.Power.Energy() + c.Overpower.Energy()
}

// Started reports whether the regular session has begun at t.
func (c Consumer) Started(t time.Time) bool {
	return !c.Power.Interval.Start.After(t)
}

// CommittedEnd returns the later of the regular end and the overpower end.
func (c Consumer) CommittedEnd() time.Time {
	end := c.Power.Interval.End
	if op, ok := c.Overpower.Get(); ok && op.Interval.End.After(end) {
		end = op.Interval.End
	}
	return end
}

// Clone returns a deep copy of the consumer.
func (c Consumer) Clone() Consumer {
	out := Consumer{ID: c.ID, Power: c.Power.Clone()}
	if op, ok := c.Overpower.Get(); ok {
		out.Overpower = SomeOverpower(op.Clone())
	}
	return out
}

// Unstarted returns the ids of consumers whose regular session starts after t.
func Unstarted(consumers []Consumer, t time.Time) []string {
	var ids []string
	for _, c := range consumers {
		if c.Power.Interval.Start.After(t) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
