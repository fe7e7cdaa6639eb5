package perception

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allRound() SyntheticConfig {
	cfg := DefaultSyntheticConfig()
	cfg.FieldOfView = 0
	cfg.Range = 0
	return cfg
}

func TestSyntheticSamplesWholeTrack(t *testing.T) {
	track := DefaultTrack()
	s := NewSynthetic(track, allRound(), rand.New(rand.NewSource(42)))

	pts := s.Detect(kinematics.State{})
	want := (len(track.Left)+len(track.Right))*10 + len(track.LeftMarkers) + len(track.RightMarkers)
	require.Len(t, pts, want)

	counts := map[pointmap.Kind]int{}
	ids := map[pointmap.PointID]bool{}
	for _, p := range pts {
		counts[p.Kind]++
		assert.False(t, ids[p.ID], "identifiers are unique")
		ids[p.ID] = true
		assert.True(t, p.ExpireAt.IsZero(), "perception never assigns expiry")
	}
	assert.Equal(t, 50, counts[pointmap.LeftBoundary])
	assert.Equal(t, 50, counts[pointmap.RightBoundary])
	assert.Equal(t, 1, counts[pointmap.LeftMarker])
	assert.Equal(t, 1, counts[pointmap.RightMarker])
}

func TestSyntheticPointsLieNearSegments(t *testing.T) {
	seg := Segment{From: geom.Position{X: 0, Y: 1}, To: geom.Position{X: 4, Y: 1}}
	cfg := allRound()
	cfg.SamplesPerSegment = 200
	s := NewSynthetic(Track{Left: []Segment{seg}}, cfg, rand.New(rand.NewSource(7)))

	for _, p := range s.Detect(kinematics.State{}) {
		assert.InDelta(t, 1, p.Pos.Y, cfg.Jitter/2+1e-12)
		assert.GreaterOrEqual(t, p.Pos.X, -cfg.Jitter/2)
		assert.LessOrEqual(t, p.Pos.X, 4+cfg.Jitter/2)
	}
}

func TestSyntheticFieldOfView(t *testing.T) {
	track := Track{
		LeftMarkers:  []geom.Position{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}},
		RightMarkers: []geom.Position{{X: 5, Y: 0}},
	}
	cfg := SyntheticConfig{FieldOfView: math.Pi / 2, Range: 3}
	s := NewSynthetic(track, cfg, nil)

	pts := s.Detect(kinematics.State{})
	require.Len(t, pts, 1, "only the marker ahead and in range is seen")
	assert.Equal(t, geom.Position{X: 1, Y: 0}, pts[0].Pos)

	// Facing +Y the marker at (0, 1) is straight ahead.
	pts = s.Detect(kinematics.State{Heading: math.Pi / 2})
	require.Len(t, pts, 1)
	assert.Equal(t, geom.Position{X: 0, Y: 1}, pts[0].Pos)

	// Facing -X with the bearing wrapping through ±π.
	pts = s.Detect(kinematics.State{Heading: math.Pi})
	require.Len(t, pts, 1)
	assert.Equal(t, geom.Position{X: -1, Y: 0}, pts[0].Pos)
}

func TestSyntheticIsDeterministicForASeed(t *testing.T) {
	a := NewSynthetic(DefaultTrack(), allRound(), rand.New(rand.NewSource(3)))
	b := NewSynthetic(DefaultTrack(), allRound(), rand.New(rand.NewSource(3)))
	pa, pb := a.Detect(kinematics.State{}), b.Detect(kinematics.State{})
	require.Equal(t, len(pa), len(pb))
	for i := range pa {
		assert.Equal(t, pa[i].Pos, pb[i].Pos)
		assert.Equal(t, pa[i].Kind, pb[i].Kind)
	}
}

func TestSourceFunc(t *testing.T) {
	var src Source = SourceFunc(func(kinematics.State) []pointmap.Point {
		return []pointmap.Point{pointmap.NewPoint(pointmap.Obstacle, geom.Origin)}
	})
	assert.Len(t, src.Detect(kinematics.State{}), 1)
}
