package debugview

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/telemetry"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrajectory() planner.Trajectory {
	return planner.Trajectory{Points: []planner.TrajectoryPoint{
		{Pos: geom.Position{X: 0}},
		{Pos: geom.Position{X: 0.2}, Curvature: 0.5},
		{Pos: geom.Position{X: 0.4, Y: 0.01}, Curvature: 0.5},
	}}
}

func seededMirror(t *testing.T) (*Mirror, []pointmap.Point) {
	t.Helper()
	pts := []pointmap.Point{
		pointmap.NewPoint(pointmap.LeftBoundary, geom.Position{X: 1, Y: 1}),
		pointmap.NewPoint(pointmap.RightBoundary, geom.Position{X: 1, Y: -1}),
		pointmap.NewPoint(pointmap.Obstacle, geom.Position{X: 2, Y: 0}),
		pointmap.NewPoint(pointmap.LeftMarker, geom.Position{X: 3, Y: 0.5}),
	}
	m := NewMirror()
	m.Send(&telemetry.Frame{
		Cycle:      4,
		Pose:       kinematics.State{Heading: 0.1},
		Trajectory: testTrajectory(),
		Added:      pts,
	})
	return m, pts
}

func TestMirrorAppliesDeltas(t *testing.T) {
	m, pts := seededMirror(t)
	assert.Equal(t, 4, m.Len())

	m.Send(&telemetry.Frame{
		Cycle:   5,
		Removed: []pointmap.PointID{pts[2].ID, pointmap.NewPoint(pointmap.Obstacle, geom.Origin).ID},
	})
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 1, m.UnknownRemovals())

	v := m.View()
	assert.Equal(t, uint64(5), v.Cycle)
	require.Len(t, v.Points, 3)
	for i := 1; i < len(v.Points); i++ {
		assert.LessOrEqual(t, v.Points[i-1].Kind, v.Points[i].Kind, "points are ordered by kind")
	}
	assert.Equal(t, 0, v.Trajectory.Steps(), "the later frame carried no plan")

	m.Send(nil)
	assert.Equal(t, 3, m.Len())
}

func TestViewIsACopy(t *testing.T) {
	m, _ := seededMirror(t)
	v := m.View()
	v.Points[0].Pos = geom.Position{X: 99}
	v.Trajectory.Points[0].Pos = geom.Position{X: 99}

	again := m.View()
	assert.NotEqual(t, 99.0, again.Points[0].Pos.X)
	assert.NotEqual(t, 99.0, again.Trajectory.Points[0].Pos.X)
}

func TestViewBounds(t *testing.T) {
	v := View{Pose: kinematics.State{Pos: geom.Position{X: 10, Y: 10}}}
	minX, maxX, minY, maxY := v.bounds()
	assert.Equal(t, []float64{9, 11, 9, 11}, []float64{minX, maxX, minY, maxY}, "empty view keeps a one meter half-width")

	v.Points = []pointmap.Point{{Pos: geom.Position{X: 14, Y: 10}}}
	minX, maxX, _, _ = v.bounds()
	assert.InDelta(t, 10-4.2, minX, 1e-9)
	assert.InDelta(t, 10+4.2, maxX, 1e-9)
}

func TestHandleChart(t *testing.T) {
	m, _ := seededMirror(t)
	w := httptest.NewRecorder()
	m.handleChart(w, httptest.NewRequest(http.MethodGet, "/debug/map", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	for _, name := range []string{"left_boundary", "obstacle", "left_marker", "trajectory", "vehicle"} {
		assert.Contains(t, body, name)
	}
}

func TestHandlePNG(t *testing.T) {
	m, _ := seededMirror(t)
	w := httptest.NewRecorder()
	m.handlePNG(w, httptest.NewRequest(http.MethodGet, "/debug/map.png?inches=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())

	for _, bad := range []string{"0", "x", "100"} {
		w := httptest.NewRecorder()
		m.handlePNG(w, httptest.NewRequest(http.MethodGet, "/debug/map.png?inches="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestHandlePNGEmptyMirror(t *testing.T) {
	w := httptest.NewRecorder()
	NewMirror().handlePNG(w, httptest.NewRequest(http.MethodGet, "/debug/map.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGeoJSON(t *testing.T) {
	m, pts := seededMirror(t)
	w := httptest.NewRecorder()
	m.handleGeoJSON(w, httptest.NewRequest(http.MethodGet, "/debug/map.geojson", nil))
	require.Equal(t, http.StatusOK, w.Code)

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, len(pts)+2)

	kinds := map[string]int{}
	for _, f := range fc.Features {
		kind, err := f.PropertyString("kind")
		require.NoError(t, err)
		kinds[kind]++
	}
	assert.Equal(t, 1, kinds["trajectory"])
	assert.Equal(t, 1, kinds["vehicle"])
	assert.Equal(t, 1, kinds["obstacle"])

	var line *geojson.Feature
	for _, f := range fc.Features {
		if f.Geometry.IsLineString() {
			line = f
		}
	}
	require.NotNil(t, line)
	assert.Len(t, line.Geometry.LineString, 3)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/geo+json"))
}
