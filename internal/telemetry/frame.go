// Package telemetry defines the per-cycle report the control loop hands to
// its observers, and the sinks that consume it.
package telemetry

import (
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
)

// NoObstacle is reported as the nearest obstacle distance when none is
// within the nearest-point search range.
const NoObstacle = -1.0

// Diagnostic summarizes one control cycle.
type Diagnostic struct {
	ActualSpeed     float64 // m/s, from odometry
	ActualCurvature float64 // 1/m, from odometry

	FPSMean       float64
	CycleMsMean   float64
	CycleMsStddev float64

	PlanExpanded    int
	NearestObstacle float64 // meters, or NoObstacle

	Mode    command.Mode
	Command command.Drive
}

// Frame is everything produced by one cycle. Added and Removed are this
// cycle's map delta; a mirror applying every frame in order reproduces the
// map.
type Frame struct {
	Cycle      uint64
	Time       time.Time
	Pose       kinematics.State
	Trajectory planner.Trajectory
	Added      []pointmap.Point
	Removed    []pointmap.PointID
	Diagnostic Diagnostic
}

// Delta returns the frame's map changes.
func (f *Frame) Delta() pointmap.Delta {
	return pointmap.Delta{Added: f.Added, Removed: f.Removed}
}
