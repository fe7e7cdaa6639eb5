// Package pointmap holds the perceived track points the planner searches
// against.
//
// Responsibilities: a uniform spatial grid of boundary and obstacle points,
// a small exhaustive collection of direction markers, time-based eviction
// with removal reporting, and incremental deltas for downstream mirrors.
// Key types: Point, Map, DeltaTracker, Pruner.
//
// The Map is owned by the control loop and is not safe for concurrent use.
// Hosts that need visibility from other goroutines should consume deltas or
// Snapshot() copies at cycle boundaries.
package pointmap
