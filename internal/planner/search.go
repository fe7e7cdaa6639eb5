// Package planner finds a short forward trajectory through the point map
// with a wall-clock bounded best-first search over discretized curvatures.
package planner

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/timeutil"
)

const noParent int32 = -1

// node is one search tree vertex. Nodes live in an arena and refer to their
// parent by index, so every child shares its ancestors.
type node struct {
	state  kinematics.State
	cost   float64
	steps  int32
	parent int32
}

// openSet is a min-heap of arena indices ordered by cumulative cost, with
// the arena index as a deterministic tie-break.
type openSet struct {
	arena *[]node
	idx   []int32
}

func (o *openSet) Len() int { return len(o.idx) }
func (o *openSet) Less(i, j int) bool {
	a, b := (*o.arena)[o.idx[i]], (*o.arena)[o.idx[j]]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return o.idx[i] < o.idx[j]
}
func (o *openSet) Swap(i, j int)      { o.idx[i], o.idx[j] = o.idx[j], o.idx[i] }
func (o *openSet) Push(x interface{}) { o.idx = append(o.idx, x.(int32)) }
func (o *openSet) Pop() interface{} {
	n := len(o.idx)
	x := o.idx[n-1]
	o.idx = o.idx[:n-1]
	return x
}

// Result carries the trajectory and search diagnostics.
type Result struct {
	Trajectory     Trajectory
	Cost           float64 // cumulative cost of the selected node
	Expanded       int     // nodes popped from the open set
	Generated      int     // nodes created, root included
	Elapsed        time.Duration
	BudgetExceeded bool
}

// Planner runs self-contained searches; it keeps no state between calls
// besides its configuration. Not safe for concurrent use.
type Planner struct {
	cfg        Config
	clock      timeutil.Clock
	curvatures []float64

	arena []node // reused between searches
}

// New creates a planner. A nil clock uses the real clock.
func New(cfg Config, clock timeutil.Clock) *Planner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	p := &Planner{clock: clock}
	p.SetConfig(cfg)
	return p
}

// SetConfig swaps the search parameters for subsequent searches.
func (p *Planner) SetConfig(cfg Config) {
	p.cfg = cfg
	p.curvatures = cfg.Curvatures()
}

// Config returns the active configuration.
func (p *Planner) Config() Config { return p.cfg }

// FindPath returns the trajectory chosen by Search.
func (p *Planner) FindPath(start kinematics.State, m *pointmap.Map) Trajectory {
	return p.Search(start, m).Trajectory
}

// Search expands the cheapest open node until the open set empties or the
// time budget runs out, checked once per popped node. The answer is the
// deepest popped node, ties going to the strictly cheaper one, so a search
// cut short still returns its longest usable horizon. It never fails; at
// worst the trajectory is just the root.
func (p *Planner) Search(start kinematics.State, m *pointmap.Map) Result {
	began := p.clock.Now()

	p.arena = append(p.arena[:0], node{state: start, parent: noParent})
	open := &openSet{arena: &p.arena, idx: []int32{0}}
	best := int32(0)

	var res Result
	maxSteps := int32(p.cfg.MaxSteps)
	for open.Len() > 0 {
		if p.clock.Since(began) > p.cfg.TimeBudget {
			res.BudgetExceeded = true
			break
		}
		i := heap.Pop(open).(int32)
		n := p.arena[i]
		res.Expanded++

		b := p.arena[best]
		if n.steps > b.steps || (n.steps == b.steps && n.cost < b.cost) {
			best = i
		}
		if n.steps >= maxSteps {
			continue
		}

		nearby, markers := p.cfg.nearby(m, n.state), m.Markers()
		for _, c := range p.curvatures {
			child := n.state.WithCurvature(c).StepDistance(p.cfg.StepLength)
			p.arena = append(p.arena, node{
				state:  child,
				cost:   n.cost + p.cfg.stepCost(nearby, markers, n.state, child),
				steps:  n.steps + 1,
				parent: i,
			})
			heap.Push(open, int32(len(p.arena)-1))
		}
	}

	res.Generated = len(p.arena)
	res.Cost = p.arena[best].cost
	res.Trajectory = trace(p.arena, best)
	res.Elapsed = p.clock.Since(began)

	if res.BudgetExceeded {
		tracef("budget %v exhausted: expanded=%d generated=%d depth=%d",
			p.cfg.TimeBudget, res.Expanded, res.Generated, res.Trajectory.Steps())
	} else {
		diagf("open set exhausted: expanded=%d generated=%d depth=%d",
			res.Expanded, res.Generated, res.Trajectory.Steps())
	}
	return res
}

// trace walks parent links from leaf to the root and returns the path in
// root-first order. A walk longer than the arena means a parent cycle, which
// is a defect in the search and panics.
func trace(arena []node, leaf int32) Trajectory {
	var pts []TrajectoryPoint
	for i := leaf; i != noParent; i = arena[i].parent {
		if len(pts) > len(arena) {
			panic(fmt.Sprintf("planner: parent cycle at node %d", i))
		}
		s := arena[i].state
		pts = append(pts, TrajectoryPoint{Pos: s.Pos, Heading: s.Heading, Curvature: s.Curvature})
	}
	for l, r := 0, len(pts)-1; l < r; l, r = l+1, r-1 {
		pts[l], pts[r] = pts[r], pts[l]
	}
	return Trajectory{Points: pts}
}
