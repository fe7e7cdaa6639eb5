package planner

import (
	"time"

	"github.com/banshee-data/racecore/internal/config"
)

// Config holds the search and cost parameters. The step bias and the
// smoothness terms are tuned together; neither is fixed by the search.
type Config struct {
	StepLength       float64       // arc length per step, meters
	MaxSteps         int           // depth ceiling
	CurvatureOptions int           // odd number of curvature choices per step
	MaxCurvature     float64       // 1/m, options span ±MaxCurvature
	TimeBudget       time.Duration // wall-clock limit per search

	StepBias           float64 // added per step; negative rewards depth
	SafeDistance       float64 // meters; proximity penalty starts here
	MaxObstaclePenalty float64 // penalty when touching a point
	MarkerCutoff       float64 // markers farther than this are ignored
	MarkerProbe        float64 // probe step length for the marker test
	MarkerBonus        float64 // subtracted when circling a marker the right way
	SmoothnessWeight   float64
	SmoothnessExponent float64 // > 1
}

// DefaultConfig returns the built-in planner settings.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from the tuning config.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		StepLength:         cfg.GetStepLength(),
		MaxSteps:           cfg.GetMaxSteps(),
		CurvatureOptions:   cfg.GetCurvatureOptions(),
		MaxCurvature:       cfg.GetMaxCurvature(),
		TimeBudget:         cfg.GetTimeBudget(),
		StepBias:           cfg.GetStepBias(),
		SafeDistance:       cfg.GetSafeDistance(),
		MaxObstaclePenalty: cfg.GetMaxObstaclePenalty(),
		MarkerCutoff:       cfg.GetMarkerCutoff(),
		MarkerProbe:        cfg.GetMarkerProbe(),
		MarkerBonus:        cfg.GetMarkerBonus(),
		SmoothnessWeight:   cfg.GetSmoothnessWeight(),
		SmoothnessExponent: cfg.GetSmoothnessExponent(),
	}
}

// Curvatures returns the evenly spaced curvature choices from
// -MaxCurvature to +MaxCurvature. The middle option is exactly zero.
func (c Config) Curvatures() []float64 {
	n := c.CurvatureOptions
	if n <= 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = c.MaxCurvature * float64(2*i-(n-1)) / float64(n-1)
	}
	return out
}
