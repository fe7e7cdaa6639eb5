// Package kinematics models the vehicle as a point moving along circular
// arcs of constant curvature.
package kinematics

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/racecore/internal/geom"
)

// StraightEpsilon is the curvature magnitude below which a step is treated
// as a straight segment.
const StraightEpsilon = 1e-3

// State is either an absolute vehicle pose or a relative motion increment.
// Curvature (1/m, positive turns left) and Speed (m/s) are constant over a
// single integration step.
type State struct {
	Pos       geom.Position
	Heading   float64
	Curvature float64
	Speed     float64
}

// StepDistance advances s by arc length d along its own curvature using the
// exact chord of the arc.
func (s State) StepDistance(d float64) State {
	return State{
		Pos:       s.Pos.Add(alongArc(d, s.Curvature).Rotate(s.Heading)),
		Heading:   s.Heading + s.Curvature*d,
		Curvature: s.Curvature,
		Speed:     s.Speed,
	}
}

// StepTime advances s for dt at its own speed.
func (s State) StepTime(dt time.Duration) State {
	return s.StepDistance(dt.Seconds() * s.Speed)
}

// Compose applies the relative increment b in the frame of s: b's position
// is rotated into s's heading and added, headings sum, and b's curvature and
// speed are taken.
func (s State) Compose(b State) State {
	return State{
		Pos:       s.Pos.Add(b.Pos.Rotate(s.Heading)),
		Heading:   s.Heading + b.Heading,
		Curvature: b.Curvature,
		Speed:     b.Speed,
	}
}

// WithCurvature returns a copy of s with the given curvature.
func (s State) WithCurvature(c float64) State {
	s.Curvature = c
	return s
}

func (s State) String() string {
	return fmt.Sprintf("pos=%v heading=%.3f curvature=%.3f speed=%.2f", s.Pos, s.Heading, s.Curvature, s.Speed)
}

// alongArc is the local-frame displacement after travelling d along an arc.
func alongArc(d, curvature float64) geom.Position {
	if math.Abs(curvature) < StraightEpsilon {
		return geom.Position{X: d}
	}
	angle := curvature * d
	return geom.Position{
		X: math.Sin(angle) / curvature,
		Y: (1 - math.Cos(angle)) / curvature,
	}
}
