// Package metrics defines the sinks that observe a scheduling run. Sinks like
// PromSink and InfluxSink record placements, overcharge grants, reschedule
// cycles and the final day summary, and can be combined with NewMultiSink.
// The factory helpers return a MultiSink automatically when multiple sinks
// are configured.
package metrics
