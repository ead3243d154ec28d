package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlacements forwards the events to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlacements(ev []PlacementEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlacements(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordOvercharge forwards grants to sinks that record them.
func (m *MultiSink) RecordOvercharge(ev []OverchargeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OverchargeRecorder); ok {
			if err := rec.RecordOvercharge(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCycle forwards cycle events.
func (m *MultiSink) RecordCycle(ev CycleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CycleRecorder); ok {
			if err := rec.RecordCycle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSummary forwards day summaries.
func (m *MultiSink) RecordSummary(ev SummaryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SummaryRecorder); ok {
			if err := rec.RecordSummary(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTimeline forwards timelines.
func (m *MultiSink) RecordTimeline(ev TimelineEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TimelineRecorder); ok {
			if err := rec.RecordTimeline(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
