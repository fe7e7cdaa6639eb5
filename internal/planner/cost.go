package planner

import (
	"math"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/pointmap"
)

// nearby gathers the grid points any child of s can come within
// SafeDistance of. One query serves every curvature option.
func (c Config) nearby(m *pointmap.Map, s kinematics.State) []pointmap.Point {
	return m.PointsInArea(s.Pos, c.SafeDistance+c.StepLength)
}

// stepCost is the incremental cost of moving from parent to child. nearby
// comes from the parent; distances are measured from the child.
func (c Config) stepCost(nearby, markers []pointmap.Point, parent, child kinematics.State) float64 {
	cost := c.StepBias
	cost += c.obstaclePenalty(nearby, child.Pos)
	cost -= c.markerBonus(markers, parent.WithCurvature(child.Curvature))
	cost += c.smoothness(child.Curvature)
	return cost
}

// obstaclePenalty rises linearly from zero at SafeDistance to
// MaxObstaclePenalty at distance zero from the nearest point.
func (c Config) obstaclePenalty(points []pointmap.Point, pos geom.Position) float64 {
	if len(points) == 0 || c.SafeDistance <= 0 {
		return 0
	}
	nearest := math.Inf(1)
	for _, p := range points {
		if d := p.Pos.DistSquared(pos); d < nearest {
			nearest = d
		}
	}
	d := math.Sqrt(nearest)
	if d >= c.SafeDistance {
		return 0
	}
	return (c.SafeDistance - d) / c.SafeDistance * c.MaxObstaclePenalty
}

// markerBonus probes a short step from s and returns MarkerBonus if any
// marker within the cutoff is circled the way it mandates. Left markers
// want counter-clockwise motion around them, which keeps the marker on the
// vehicle's left; right markers want clockwise. Repeated detections of one
// marker earn the bonus once.
func (c Config) markerBonus(markers []pointmap.Point, s kinematics.State) float64 {
	if len(markers) == 0 || c.MarkerBonus == 0 {
		return 0
	}
	probe := s.StepDistance(c.MarkerProbe).Pos
	cutoff2 := c.MarkerCutoff * c.MarkerCutoff
	for _, mk := range markers {
		if mk.Pos.DistSquared(s.Pos) > cutoff2 {
			continue
		}
		before := s.Pos.Sub(mk.Pos).Angle()
		after := probe.Sub(mk.Pos).Angle()
		turn := geom.NormalizeAngle(after - before)
		if (mk.Kind == pointmap.LeftMarker && turn > 0) || (mk.Kind == pointmap.RightMarker && turn < 0) {
			return c.MarkerBonus
		}
	}
	return 0
}

// smoothness penalizes curvature superlinearly; straight driving is free.
func (c Config) smoothness(curvature float64) float64 {
	if curvature == 0 {
		return 0
	}
	return c.SmoothnessWeight * math.Pow(math.Abs(curvature), c.SmoothnessExponent)
}
