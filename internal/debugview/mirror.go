// Package debugview renders the vehicle's map and plan for debugging.
//
// A Mirror rebuilds the map from telemetry deltas the same way a remote
// client does, so the views show what a client would see rather than the
// control loop's own map.
package debugview

import (
	"bytes"
	"slices"
	"sync"

	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/telemetry"
)

// Mirror is a telemetry.Sink that reconstructs the map from frame deltas.
type Mirror struct {
	mu         sync.RWMutex
	points     map[pointmap.PointID]pointmap.Point
	pose       kinematics.State
	trajectory planner.Trajectory
	cycle      uint64
	unknown    int // removals of IDs never added
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{points: make(map[pointmap.PointID]pointmap.Point)}
}

// Send applies the frame's additions, then its removals.
func (m *Mirror) Send(f *telemetry.Frame) {
	if f == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range f.Added {
		m.points[p.ID] = p
	}
	for _, id := range f.Removed {
		if _, ok := m.points[id]; !ok {
			m.unknown++
			continue
		}
		delete(m.points, id)
	}
	if m.unknown > 0 && len(f.Removed) > 0 {
		tracef("cycle %d: %d removals of unknown points so far", f.Cycle, m.unknown)
	}
	m.pose = f.Pose
	m.trajectory = f.Trajectory
	m.cycle = f.Cycle
}

// View is a consistent copy of the mirrored state.
type View struct {
	Cycle      uint64
	Pose       kinematics.State
	Trajectory planner.Trajectory
	Points     []pointmap.Point // ordered by kind, then ID
}

// View returns a copy of the current state.
func (m *Mirror) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := View{
		Cycle: m.cycle,
		Pose:  m.pose,
		Trajectory: planner.Trajectory{
			Points: slices.Clone(m.trajectory.Points),
		},
		Points: make([]pointmap.Point, 0, len(m.points)),
	}
	for _, p := range m.points {
		v.Points = append(v.Points, p)
	}
	slices.SortFunc(v.Points, func(a, b pointmap.Point) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return v
}

// Len returns the number of mirrored points.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

// UnknownRemovals counts removals of points the mirror never saw. A non-zero
// count means frames were lost between the loop and this mirror.
func (m *Mirror) UnknownRemovals() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unknown
}

// byKind groups a view's points for per-kind series.
func (v View) byKind() map[pointmap.Kind][]pointmap.Point {
	out := make(map[pointmap.Kind][]pointmap.Point)
	for _, p := range v.Points {
		out[p.Kind] = append(out[p.Kind], p)
	}
	return out
}

// bounds returns a square extent centred on the pose that covers every
// point and the trajectory, with a minimum half-width of one meter.
func (v View) bounds() (minX, maxX, minY, maxY float64) {
	half := 1.0
	c := v.Pose.Pos
	grow := func(x, y float64) {
		half = max(half, abs(x-c.X)*1.05, abs(y-c.Y)*1.05)
	}
	for _, p := range v.Points {
		grow(p.Pos.X, p.Pos.Y)
	}
	for _, p := range v.Trajectory.Points {
		grow(p.Pos.X, p.Pos.Y)
	}
	return c.X - half, c.X + half, c.Y - half, c.Y + half
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
