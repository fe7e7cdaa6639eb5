// Package odometry estimates vehicle motion without wheel sensors by
// replaying the drive commands the actuators are still executing.
package odometry

import (
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/config"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/timeutil"
)

// RelativeStateProvider reports the vehicle's motion since the previous
// cycle as a relative state to compose onto the absolute pose.
type RelativeStateProvider interface {
	Movement() kinematics.State
}

// Config controls the blind estimator.
type Config struct {
	Delay      time.Duration // modeled actuation latency
	TurnFudge  float64       // scales replayed curvature
	SpeedFudge float64       // scales replayed speed
}

// DefaultConfig returns the built-in estimator settings.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from the tuning config.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Delay:      cfg.GetActuationDelay(),
		TurnFudge:  cfg.GetTurnFudge(),
		SpeedFudge: cfg.GetSpeedFudge(),
	}
}

type sample struct {
	drive command.Drive
	at    time.Time
}

// Blind is a dead-reckoning estimator. Actuators lag the commands sent to
// them, so the motion over the last interval is taken from the oldest
// command still inside the delay window rather than the newest one.
// Not safe for concurrent use.
type Blind struct {
	cfg   Config
	clock timeutil.Clock
	queue []sample
}

// NewBlind creates an estimator. A nil clock uses the real clock.
func NewBlind(cfg Config, clock timeutil.Clock) *Blind {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Blind{cfg: cfg, clock: clock}
}

// SetConfig swaps the estimator settings.
func (b *Blind) SetConfig(cfg Config) { b.cfg = cfg }

// SetCommand records a newly issued drive command and discards samples
// that are fully superseded. The newest sample older than the delay stays
// at the front; it is what the actuators are executing right now.
func (b *Blind) SetCommand(d command.Drive) {
	now := b.clock.Now()
	b.queue = append(b.queue, sample{drive: d, at: now})

	drop := 0
	for drop+1 < len(b.queue) && now.Sub(b.queue[drop+1].at) >= b.cfg.Delay {
		drop++
	}
	if drop > 0 {
		b.queue = append(b.queue[:0], b.queue[drop:]...)
	}
}

// Len returns the number of retained samples.
func (b *Blind) Len() int { return len(b.queue) }

// Movement returns the relative motion from executing the front sample for
// the span between the two oldest samples. It is zero with fewer than two
// samples.
func (b *Blind) Movement() kinematics.State {
	if len(b.queue) < 2 {
		return kinematics.State{}
	}
	front := b.queue[0]
	state := kinematics.State{
		Curvature: front.drive.Curvature * b.cfg.TurnFudge,
		Speed:     front.drive.Speed * b.cfg.SpeedFudge,
	}
	return state.StepTime(b.queue[1].at.Sub(front.at))
}
