// Package follower turns a planned trajectory into a single drive command.
package follower

import (
	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/config"
	"github.com/banshee-data/racecore/internal/planner"
)

// Config controls the follower.
type Config struct {
	Lookahead    int     // planned points averaged after the root
	NominalSpeed float64 // m/s
}

// DefaultConfig returns the built-in follower settings.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from the tuning config.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Lookahead:    cfg.GetLookahead(),
		NominalSpeed: cfg.GetNominalSpeed(),
	}
}

// Follow averages the curvature of the first Lookahead points after the
// root and drives at the nominal speed. A trajectory without steps means
// hold position.
func Follow(cfg Config, t planner.Trajectory) command.Drive {
	if t.Steps() == 0 {
		return command.Stop
	}
	n := cfg.Lookahead
	if n < 1 {
		n = 1
	}
	if n > t.Steps() {
		n = t.Steps()
	}
	sum := 0.0
	for _, p := range t.Points[1 : n+1] {
		sum += p.Curvature
	}
	return command.Drive{Curvature: sum / float64(n), Speed: cfg.NominalSpeed}
}
