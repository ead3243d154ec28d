package metrics

import "time"

// PlacementEvent records one vehicle placed by the scheduler.
type PlacementEvent struct {
	RunID       string
	VehicleID   string
	Start       time.Time
	Minutes     int
	EnergyWh    float64
	GridWh      float64
	Rescheduled bool
	CycleTime   time.Time
}

// MetricsSink records placements for observability purposes.
type MetricsSink interface {
	RecordPlacements(events []PlacementEvent) error
}

// OverchargeEvent records an opportunistic grant.
type OverchargeEvent struct {
	RunID     string
	VehicleID string
	Start     time.Time
	Minutes   int
	EnergyWh  float64
	Extended  bool
	CycleTime time.Time
}

// OverchargeRecorder records overcharge grants.
type OverchargeRecorder interface {
	RecordOvercharge(events []OverchargeEvent) error
}

// CycleEvent summarises one reschedule cycle.
type CycleEvent struct {
	RunID     string
	Time      time.Time
	Arrivals  int
	Reclaimed int
	Truncated int
	Placed    int
	Granted   int
}

// CycleRecorder records reschedule cycles.
type CycleRecorder interface {
	RecordCycle(ev CycleEvent) error
}

// SummaryEvent carries the totals of a simulated day.
type SummaryEvent struct {
	RunID             string
	Date              time.Time
	TotalVehicles     int
	ScheduledVehicles int
	MissedVehicles    int
	RequiredWh        float64
	SolarWh           float64
	ConsumedWh        float64
	GridWh            float64
	SolarUnusedWh     float64
}

// SummaryRecorder records day summaries.
type SummaryRecorder interface {
	RecordSummary(ev SummaryEvent) error
}

// TimelineEvent carries the per-minute timelines of a simulated day in W.
type TimelineEvent struct {
	RunID      string
	Day        time.Time
	Production []float64
	Usage      []float64
	Overcharge []float64
}

// TimelineRecorder records per-minute timelines.
type TimelineRecorder interface {
	RecordTimeline(ev TimelineEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlacements([]PlacementEvent) error  { return nil }
func (NopSink) RecordOvercharge([]OverchargeEvent) error { return nil }
func (NopSink) RecordCycle(CycleEvent) error             { return nil }
func (NopSink) RecordSummary(SummaryEvent) error         { return nil }
func (NopSink) RecordTimeline(TimelineEvent) error       { return nil }
