// Package perception supplies the control loop with newly detected points.
//
// A Source assigns each point a fresh identifier and a classification. It
// never assigns expiry: the loop's pruner does that when the points enter
// the map.
package perception

import (
	"math"
	"math/rand"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/pointmap"
)

// Source detects points around the vehicle once per cycle.
type Source interface {
	Detect(state kinematics.State) []pointmap.Point
}

// SourceFunc adapts a function to Source.
type SourceFunc func(state kinematics.State) []pointmap.Point

// Detect calls fn.
func (fn SourceFunc) Detect(state kinematics.State) []pointmap.Point { return fn(state) }

// Segment is a straight stretch of boundary in the track frame.
type Segment struct {
	From, To geom.Position
}

// Track describes a course in the track frame: boundary segments of each
// side and fixed marker positions.
type Track struct {
	Left, Right []Segment
	LeftMarkers []geom.Position
	// RightMarkers are markers to be kept on the vehicle's right.
	RightMarkers []geom.Position
}

// DefaultTrack is a small indoor course: two nested loops to the right of
// the start and an outer straight on the left, with a marker of each kind.
func DefaultTrack() Track {
	p := func(x, y float64) geom.Position { return geom.Position{X: x, Y: y} }
	return Track{
		Left: []Segment{
			{p(-0.5, 0.5), p(-0.5, -3.5)},
			{p(-0.5, -3.5), p(3.5, -3.5)},
			{p(3.5, -3.5), p(3.5, 0.5)},
			{p(3.5, 0.5), p(-0.5, 0.5)},
			{p(-4, -4), p(-4, 4)},
		},
		Right: []Segment{
			{p(0.5, -0.5), p(0.5, -2.5)},
			{p(0.5, -2.5), p(2.5, -2.5)},
			{p(2.5, -2.5), p(2.5, -0.5)},
			{p(2.5, -0.5), p(0.5, -0.5)},
			{p(-1.5, -4), p(-1.5, 4)},
		},
		LeftMarkers:  []geom.Position{p(-2.75, 0)},
		RightMarkers: []geom.Position{p(-2.75, -2.5)},
	}
}

// SyntheticConfig tunes the synthetic detector.
type SyntheticConfig struct {
	SamplesPerSegment int     // boundary points per segment per call
	Jitter            float64 // meters, uniform in [-Jitter/2, Jitter/2] per axis
	FieldOfView       float64 // radians, centred on the heading; 0 sees all round
	Range             float64 // meters; 0 is unlimited
}

// DefaultSyntheticConfig returns the default detector settings.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		SamplesPerSegment: 10,
		Jitter:            0.1,
		FieldOfView:       2 * math.Pi / 3,
		Range:             3,
	}
}

// Synthetic samples points from a Track, standing in for a camera pipeline
// when running without hardware. Not safe for concurrent use.
type Synthetic struct {
	track Track
	cfg   SyntheticConfig
	rng   *rand.Rand
}

// NewSynthetic creates a synthetic source. A nil rng uses a fixed seed.
func NewSynthetic(track Track, cfg SyntheticConfig, rng *rand.Rand) *Synthetic {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Synthetic{track: track, cfg: cfg, rng: rng}
}

// Detect samples every boundary segment and marker, then keeps the points
// inside the field of view from state.
func (s *Synthetic) Detect(state kinematics.State) []pointmap.Point {
	var out []pointmap.Point
	add := func(kind pointmap.Kind, pos geom.Position) {
		if s.visible(state, pos) {
			out = append(out, pointmap.NewPoint(kind, pos))
		}
	}

	for _, m := range s.track.LeftMarkers {
		add(pointmap.LeftMarker, m)
	}
	for _, m := range s.track.RightMarkers {
		add(pointmap.RightMarker, m)
	}
	s.sample(s.track.Left, pointmap.LeftBoundary, add)
	s.sample(s.track.Right, pointmap.RightBoundary, add)
	return out
}

func (s *Synthetic) sample(segs []Segment, kind pointmap.Kind, add func(pointmap.Kind, geom.Position)) {
	for _, seg := range segs {
		length := seg.From.Dist(seg.To)
		for i := 0; i < s.cfg.SamplesPerSegment; i++ {
			pos := seg.From.DistAlong(seg.To, s.rng.Float64()*length).Add(s.jitter())
			add(kind, pos)
		}
	}
}

func (s *Synthetic) jitter() geom.Position {
	return geom.Position{
		X: (s.rng.Float64() - 0.5) * s.cfg.Jitter,
		Y: (s.rng.Float64() - 0.5) * s.cfg.Jitter,
	}
}

func (s *Synthetic) visible(state kinematics.State, pos geom.Position) bool {
	rel := pos.Sub(state.Pos)
	if s.cfg.Range > 0 && rel.Norm() > s.cfg.Range {
		return false
	}
	if s.cfg.FieldOfView <= 0 || s.cfg.FieldOfView >= 2*math.Pi {
		return true
	}
	bearing := geom.NormalizeAngle(rel.Angle() - state.Heading)
	return math.Abs(bearing) <= s.cfg.FieldOfView/2
}
