package loop

import (
	"time"

	"github.com/banshee-data/racecore/internal/config"
)

// Config holds the loop's own settings.
type Config struct {
	CycleRate      float64       // target cycles per second
	StatsWindow    int           // cycles in the frame-rate window
	MaxCurvature   float64       // full manual turn, 1/m
	MaxManualSpeed float64       // full manual throttle, m/s
	ReloadInterval time.Duration // tuning file poll interval
}

// DefaultConfig returns the built-in loop settings.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from the tuning config.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		CycleRate:      cfg.GetCycleRate(),
		StatsWindow:    cfg.GetStatsWindow(),
		MaxCurvature:   cfg.GetMaxCurvature(),
		MaxManualSpeed: cfg.GetMaxManualSpeed(),
		ReloadInterval: time.Second,
	}
}

// Period returns the target cycle period.
func (c Config) Period() time.Duration {
	if c.CycleRate <= 0 {
		return time.Second / 30
	}
	return time.Duration(float64(time.Second) / c.CycleRate)
}
