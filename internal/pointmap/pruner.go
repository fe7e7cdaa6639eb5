package pointmap

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/racecore/internal/config"
)

// PrunerConfig controls point lifetimes.
type PrunerConfig struct {
	MaxKeepFor    time.Duration // lifetime in an empty cell
	MinKeepFor    time.Duration // floor for crowded cells
	DensityFactor float64       // how fast lifetime shrinks with cell occupancy
	Jitter        float64       // multiplicative spread, keepFor × U(1−J, 1+J)
}

// DefaultPrunerConfig returns the built-in expiry policy.
func DefaultPrunerConfig() PrunerConfig {
	return PrunerConfigFromTuning(config.EmptyTuningConfig())
}

// PrunerConfigFromTuning builds a PrunerConfig from the tuning config.
func PrunerConfigFromTuning(cfg *config.TuningConfig) PrunerConfig {
	return PrunerConfig{
		MaxKeepFor:    cfg.GetMaxKeepFor(),
		MinKeepFor:    cfg.GetMinKeepFor(),
		DensityFactor: cfg.GetDensityFactor(),
		Jitter:        cfg.GetKeepJitter(),
	}
}

// Pruner assigns expiry timestamps and builds eviction predicates.
type Pruner struct {
	cfg PrunerConfig
	rng *rand.Rand
}

// NewPruner creates a pruner. A nil rng is seeded from the wall clock.
func NewPruner(cfg PrunerConfig, rng *rand.Rand) *Pruner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pruner{cfg: cfg, rng: rng}
}

// SetConfig swaps the policy; stamps already assigned are unaffected.
func (p *Pruner) SetConfig(cfg PrunerConfig) { p.cfg = cfg }

// KeepFor returns the jittered lifetime for a point landing in a cell that
// already holds density points. Denser cells are re-observed sooner, so
// their points live shorter.
func (p *Pruner) KeepFor(density int) time.Duration {
	base := float64(p.cfg.MaxKeepFor) / (1 + p.cfg.DensityFactor*float64(density))
	base = math.Max(float64(p.cfg.MinKeepFor), math.Min(float64(p.cfg.MaxKeepFor), base))
	if p.cfg.Jitter > 0 {
		base *= 1 + p.cfg.Jitter*(2*p.rng.Float64()-1)
	}
	return time.Duration(base)
}

// Stamp sets ExpireAt on each point from the density of its cell in m.
// Markers count the markers within one cell width instead. Points are
// modified in place.
func (p *Pruner) Stamp(m *Map, points []Point, now time.Time) {
	for i := range points {
		density := m.CountInCell(points[i].Pos)
		if points[i].Kind.IsMarker() {
			density = m.CountMarkersNear(points[i].Pos, m.CellSize())
		}
		points[i].ExpireAt = now.Add(p.KeepFor(density))
	}
}

// KeepPredicate returns the eviction predicate for one pruning pass. now is
// captured once so the whole pass is time-consistent.
func KeepPredicate(now time.Time) func(Point) bool {
	return func(pt Point) bool {
		return pt.ExpireAt.After(now)
	}
}
