package planner

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/racecore/internal/geom"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func stepClock() *timeutil.StepClock {
	return timeutil.NewStepClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), time.Millisecond)
}

func TestCurvatures(t *testing.T) {
	cfg := DefaultConfig()
	want := []float64{-1.5, -1, -0.5, 0, 0.5, 1, 1.5}
	if diff := cmp.Diff(want, cfg.Curvatures(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Curvatures() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Curvatures()[3]; got != 0 {
		t.Errorf("middle curvature = %v, want exactly 0", got)
	}
	cfg.CurvatureOptions = 1
	if diff := cmp.Diff([]float64{0}, cfg.Curvatures()); diff != "" {
		t.Errorf("single option mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyMapDrivesStraight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 10
	cfg.StepLength = 0.2
	cfg.TimeBudget = 50 * time.Millisecond
	p := New(cfg, stepClock())

	res := p.Search(kinematics.State{}, pointmap.NewMap(0, 0))
	traj := res.Trajectory

	if got := traj.Steps(); got != 10 {
		t.Fatalf("Steps() = %d, want 10", got)
	}
	for i, pt := range traj.Points {
		if pt.Curvature != 0 {
			t.Errorf("point %d curvature = %v, want 0", i, pt.Curvature)
		}
	}
	end := traj.End().Pos
	if math.Abs(end.X-2.0) > 1e-9 || math.Abs(end.Y) > 1e-9 {
		t.Errorf("End() = %v, want (2.0, 0.0)", end)
	}
	if math.Abs(res.Cost-10*cfg.StepBias) > 1e-9 {
		t.Errorf("Cost = %v, want %v", res.Cost, 10*cfg.StepBias)
	}
	if !res.BudgetExceeded {
		t.Error("BudgetExceeded = false; an empty map never exhausts the open set")
	}
}

func TestObstacleAheadTurnsFirstStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 4
	cfg.TimeBudget = 10 * time.Second // exhaustive: 7^4 leaves
	p := New(cfg, nil)

	m := pointmap.NewMap(0, 0)
	m.AddPoints([]pointmap.Point{pointmap.NewPoint(pointmap.Obstacle, geom.Position{X: 0.4})})

	res := p.Search(kinematics.State{}, m)
	if res.BudgetExceeded {
		t.Fatal("search hit the budget; expected an exhaustive search")
	}
	if got := res.Trajectory.Steps(); got != 4 {
		t.Fatalf("Steps() = %d, want 4", got)
	}
	if c := res.Trajectory.Points[1].Curvature; c == 0 {
		t.Errorf("first step curvature = 0, want a turn away from the obstacle")
	}
	// 1 + 7 + 49 + 343 + 2401 nodes.
	if res.Generated != 2801 || res.Expanded != 2801 {
		t.Errorf("Generated, Expanded = %d, %d; want 2801, 2801", res.Generated, res.Expanded)
	}
}

func TestSearchRespectsBudgetAndDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeBudget = 5 * time.Millisecond
	p := New(cfg, nil)

	m := pointmap.NewMap(0, 0)
	var pts []pointmap.Point
	for i := 0; i < 60; i++ {
		x := float64(i) * 0.1
		pts = append(pts,
			pointmap.NewPoint(pointmap.LeftBoundary, geom.Position{X: x, Y: 0.6}),
			pointmap.NewPoint(pointmap.RightBoundary, geom.Position{X: x, Y: -0.6}))
	}
	m.AddPoints(pts)

	started := time.Now()
	res := p.Search(kinematics.State{Speed: 1}, m)
	took := time.Since(started)

	if took > cfg.TimeBudget+100*time.Millisecond {
		t.Errorf("search took %v, budget %v", took, cfg.TimeBudget)
	}
	if got := res.Trajectory.Steps(); got > cfg.MaxSteps {
		t.Errorf("Steps() = %d, exceeds MaxSteps %d", got, cfg.MaxSteps)
	}
	if len(res.Trajectory.Points) == 0 {
		t.Error("trajectory is empty; the root must always be present")
	}
}

func TestZeroBudgetReturnsRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeBudget = time.Nanosecond
	p := New(cfg, stepClock())

	start := kinematics.State{Pos: geom.Position{X: 1, Y: 2}, Heading: 0.5, Curvature: 0.2}
	traj := p.FindPath(start, pointmap.NewMap(0, 0))

	if got := traj.Steps(); got != 0 {
		t.Fatalf("Steps() = %d, want 0", got)
	}
	want := TrajectoryPoint{Pos: start.Pos, Heading: start.Heading, Curvature: start.Curvature}
	if diff := cmp.Diff(want, traj.Points[0]); diff != "" {
		t.Errorf("root mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchReusesArena(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 2
	cfg.TimeBudget = time.Second
	p := New(cfg, nil)
	m := pointmap.NewMap(0, 0)

	first := p.FindPath(kinematics.State{}, m)
	second := p.FindPath(kinematics.State{}, m)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated search differs (-first +second):\n%s", diff)
	}
}

func TestTracePanicsOnCycle(t *testing.T) {
	arena := []node{
		{parent: noParent},
		{parent: 2, steps: 1},
		{parent: 1, steps: 2},
	}
	defer func() {
		if recover() == nil {
			t.Error("trace did not panic on a parent cycle")
		}
	}()
	trace(arena, 2)
}

func TestTraceOrdersRootFirst(t *testing.T) {
	arena := []node{
		{state: kinematics.State{}, parent: noParent},
		{state: kinematics.State{Pos: geom.Position{X: 1}}, parent: 0, steps: 1},
		{state: kinematics.State{Pos: geom.Position{X: 9}}, parent: 0, steps: 1},
		{state: kinematics.State{Pos: geom.Position{X: 2}}, parent: 1, steps: 2},
	}
	traj := trace(arena, 3)
	var xs []float64
	for _, p := range traj.Points {
		xs = append(xs, p.Pos.X)
	}
	if diff := cmp.Diff([]float64{0, 1, 2}, xs); diff != "" {
		t.Errorf("trace order mismatch (-want +got):\n%s", diff)
	}
	if got := traj.Length(); got != 2 {
		t.Errorf("Length() = %v, want 2", got)
	}
}
