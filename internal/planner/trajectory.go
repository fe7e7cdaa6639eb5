package planner

import (
	"github.com/banshee-data/racecore/internal/geom"
)

// TrajectoryPoint is one sample of a planned path. Curvature is that of the
// step arriving at this point; for the root it is the vehicle's current
// curvature.
type TrajectoryPoint struct {
	Pos       geom.Position
	Heading   float64
	Curvature float64
}

// Trajectory is the planned path at fixed arc-length spacing, starting with
// the vehicle's own pose. It is replaced every cycle, never mutated.
type Trajectory struct {
	Points []TrajectoryPoint
}

// Steps returns the number of planned steps after the root. Zero means hold
// position.
func (t Trajectory) Steps() int {
	if len(t.Points) == 0 {
		return 0
	}
	return len(t.Points) - 1
}

// End returns the last point, or the zero point for an empty trajectory.
func (t Trajectory) End() TrajectoryPoint {
	if len(t.Points) == 0 {
		return TrajectoryPoint{}
	}
	return t.Points[len(t.Points)-1]
}

// Length returns the summed straight-line distance between samples.
func (t Trajectory) Length() float64 {
	total := 0.0
	for i := 1; i < len(t.Points); i++ {
		total += t.Points[i-1].Pos.Dist(t.Points[i].Pos)
	}
	return total
}
