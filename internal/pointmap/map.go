package pointmap

import (
	"math"

	"github.com/banshee-data/racecore/internal/geom"
)

const (
	// DefaultCellSize is the grid cell edge in meters.
	DefaultCellSize = 0.15
	// DefaultNearestRings bounds how far NearestPoint expands before giving up.
	DefaultNearestRings = 10
)

// Map stores boundary and obstacle points in a uniform grid and keeps
// direction markers in a separate slice that is always scanned in full.
type Map struct {
	cellSize     float64
	nearestRings int

	grid    map[int64][]Point // cell ID → points
	markers []Point
	count   int

	removed []PointID
}

// NewMap creates an empty map. Non-positive arguments fall back to the
// defaults.
func NewMap(cellSize float64, nearestRings int) *Map {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if nearestRings <= 0 {
		nearestRings = DefaultNearestRings
	}
	return &Map{
		cellSize:     cellSize,
		nearestRings: nearestRings,
		grid:         make(map[int64][]Point),
	}
}

// CellSize returns the grid cell edge in meters.
func (m *Map) CellSize() float64 { return m.cellSize }

func (m *Map) cellCoord(v float64) int64 {
	return int64(math.Floor(v / m.cellSize))
}

// cellID computes a unique cell identifier using Szudzik's pairing function
// over zigzag-encoded cell coordinates, so negative coordinates are handled.
func cellID(cellX, cellY int64) int64 {
	zigzag := func(v int64) int64 {
		if v >= 0 {
			return 2 * v
		}
		return -2*v - 1
	}
	a, b := zigzag(cellX), zigzag(cellY)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func (m *Map) cellOf(p geom.Position) int64 {
	return cellID(m.cellCoord(p.X), m.cellCoord(p.Y))
}

// AddPoints inserts points. Markers go to the marker collection, everything
// else to its grid cell. There is no deduplication.
func (m *Map) AddPoints(points []Point) {
	for _, p := range points {
		if p.Kind.IsMarker() {
			m.markers = append(m.markers, p)
		} else {
			id := m.cellOf(p.Pos)
			m.grid[id] = append(m.grid[id], p)
		}
		m.count++
	}
}

// PointsInArea returns the grid points strictly closer than radius to
// center. Markers are not included; see Markers.
func (m *Map) PointsInArea(center geom.Position, radius float64) []Point {
	if radius <= 0 {
		return nil
	}
	var out []Point
	r2 := radius * radius
	minX, maxX := m.cellCoord(center.X-radius), m.cellCoord(center.X+radius)
	minY, maxY := m.cellCoord(center.Y-radius), m.cellCoord(center.Y+radius)
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			for _, p := range m.grid[cellID(cx, cy)] {
				if p.Pos.DistSquared(center) < r2 {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// NearestPoint returns the closest grid point to center. The search radius
// grows one cell at a time; after the ring ceiling it reports ok=false even
// if farther points exist.
func (m *Map) NearestPoint(center geom.Position) (Point, bool) {
	for ring := 1; ring <= m.nearestRings; ring++ {
		found := m.PointsInArea(center, float64(ring)*m.cellSize)
		if len(found) == 0 {
			continue
		}
		best := found[0]
		bestD := best.Pos.DistSquared(center)
		for _, p := range found[1:] {
			if d := p.Pos.DistSquared(center); d < bestD {
				best, bestD = p, d
			}
		}
		return best, true
	}
	return Point{}, false
}

// CountInCell returns the number of grid points in the cell containing pos.
// It is a cheap density estimate, not a radius count.
func (m *Map) CountInCell(pos geom.Position) int {
	return len(m.grid[m.cellOf(pos)])
}

// CountMarkersNear returns the number of stored markers strictly closer than
// radius to pos. Markers live outside the grid, so this is their density
// estimate.
func (m *Map) CountMarkersNear(pos geom.Position, radius float64) int {
	r2 := radius * radius
	n := 0
	for _, mk := range m.markers {
		if mk.Pos.DistSquared(pos) < r2 {
			n++
		}
	}
	return n
}

// Markers returns the direction markers. The slice is owned by the map and
// valid until the next mutation.
func (m *Map) Markers() []Point { return m.markers }

// Len returns the number of stored points, markers included.
func (m *Map) Len() int { return m.count }

// Remove deletes every point for which keep returns false, recording the
// removed identifiers for DrainRemovedIDs. It returns the number removed.
func (m *Map) Remove(keep func(Point) bool) int {
	removed := 0
	for id, cell := range m.grid {
		kept := cell[:0]
		for _, p := range cell {
			if keep(p) {
				kept = append(kept, p)
				continue
			}
			m.removed = append(m.removed, p.ID)
			removed++
		}
		if len(kept) == 0 {
			delete(m.grid, id)
			continue
		}
		clear(cell[len(kept):])
		m.grid[id] = kept
	}

	kept := m.markers[:0]
	for _, p := range m.markers {
		if keep(p) {
			kept = append(kept, p)
			continue
		}
		m.removed = append(m.removed, p.ID)
		removed++
	}
	clear(m.markers[len(kept):])
	m.markers = kept

	m.count -= removed
	if removed > 0 {
		tracef("removed %d points, %d remain", removed, m.count)
	}
	return removed
}

// RemoveIDs deletes the points with the given identifiers. Unknown
// identifiers are ignored.
func (m *Map) RemoveIDs(ids ...PointID) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[PointID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return m.Remove(func(p Point) bool {
		_, gone := drop[p.ID]
		return !gone
	})
}

// DrainRemovedIDs returns and clears the identifiers removed since the last
// drain.
func (m *Map) DrainRemovedIDs() []PointID {
	ids := m.removed
	m.removed = nil
	return ids
}

// Snapshot returns a copy of every stored point, grid points first.
func (m *Map) Snapshot() []Point {
	out := make([]Point, 0, m.count)
	for _, cell := range m.grid {
		out = append(out, cell...)
	}
	return append(out, m.markers...)
}
