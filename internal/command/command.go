// Package command models the remote operator's commands and the drive
// command sent to the actuators.
package command

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/banshee-data/racecore/internal/timeutil"
)

// Mode selects who is driving.
type Mode uint8

const (
	Off Mode = iota
	Auto
	Manual
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case Auto:
		return "auto"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "off":
		return Off, nil
	case "auto":
		return Auto, nil
	case "manual":
		return Manual, nil
	}
	return Off, fmt.Errorf("unknown mode %q", s)
}

// Command is the latest instruction from the remote operator. Throttle and
// Turn are in [-1, 1] and only matter in Manual mode.
type Command struct {
	Mode     Mode
	Throttle float64
	Turn     float64
}

// Clamped returns c with throttle and turn limited to [-1, 1]. NaN inputs
// become zero.
func (c Command) Clamped() Command {
	clamp := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return math.Max(-1, math.Min(1, v))
	}
	c.Throttle = clamp(c.Throttle)
	c.Turn = clamp(c.Turn)
	return c
}

// ManualDrive maps stick inputs to a drive command.
func (c Command) ManualDrive(maxCurvature, maxSpeed float64) Drive {
	c = c.Clamped()
	return Drive{Curvature: c.Turn * maxCurvature, Speed: c.Throttle * maxSpeed}
}

// Drive is the actuation command issued once per cycle.
type Drive struct {
	Curvature float64 // 1/m, positive turns left
	Speed     float64 // m/s
}

// Stop is the hold-position command.
var Stop = Drive{}

func (d Drive) String() string {
	return fmt.Sprintf("speed=%.2f curvature=%.3f", d.Speed, d.Curvature)
}

// Source is polled once per cycle for the operator's latest command.
type Source interface {
	Latest() Command
}

// Failsafe records commands as they arrive and reports Off once none has
// arrived within the timeout. It is safe for concurrent use: a network
// goroutine calls Update while the control loop calls Latest.
type Failsafe struct {
	clock   timeutil.Clock
	timeout time.Duration

	mu       sync.Mutex
	last     Command
	received time.Time
}

// DefaultTimeout is the command liveness window.
const DefaultTimeout = 100 * time.Millisecond

// NewFailsafe creates a Failsafe. A nil clock uses the real clock.
func NewFailsafe(clock timeutil.Clock, timeout time.Duration) *Failsafe {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Failsafe{clock: clock, timeout: timeout}
}

// Update records cmd as received now.
func (f *Failsafe) Update(cmd Command) {
	now := f.clock.Now()
	f.mu.Lock()
	f.last = cmd.Clamped()
	f.received = now
	f.mu.Unlock()
}

// Latest returns the last command, or the zero (Off) command when it is
// older than the timeout or none was ever received.
func (f *Failsafe) Latest() Command {
	now := f.clock.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.received.IsZero() || now.Sub(f.received) > f.timeout {
		return Command{}
	}
	return f.last
}

// Fixed is a Source that always returns the same command. It drives the
// vehicle autonomously when no remote operator is attached.
type Fixed Command

// Latest returns the fixed command.
func (f Fixed) Latest() Command { return Command(f) }
