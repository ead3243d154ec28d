// Package scheduler places electric vehicle charging sessions on a single
// simulated day so that as much of the demand as possible is covered by
// renewable production.
//
// The greedy engine shapes a demand profile per vehicle and scans every
// feasible start minute for the one drawing the least grid energy. The
// Rescheduler drives it minute by minute, reclaiming sessions that have not
// started yet whenever new vehicles arrive, and hands leftover surplus to
// already served vehicles through the overcharge allocator. GlobalOptimizer
// is an offline alternative searching all start times jointly.
package scheduler
