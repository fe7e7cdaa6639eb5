// Package loop runs the control loop: it owns the vehicle state, the point
// map and the odometry history, and drives one sense-plan-act cycle per
// tick.
//
// Nothing in a Navigator is shared with other goroutines. Collaborators
// that run concurrently (the command server, telemetry publishers) only see
// what the loop hands them: the drive command and the per-cycle frame.
package loop

import (
	"context"
	"math/rand"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/config"
	"github.com/banshee-data/racecore/internal/driver"
	"github.com/banshee-data/racecore/internal/follower"
	"github.com/banshee-data/racecore/internal/kinematics"
	"github.com/banshee-data/racecore/internal/odometry"
	"github.com/banshee-data/racecore/internal/perception"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/banshee-data/racecore/internal/timeutil"
)

// Options are the Navigator's collaborators. Perception, Commands and
// Driver are required.
type Options struct {
	Perception perception.Source
	Commands   command.Source
	Driver     driver.Driver
	Sink       telemetry.Sink   // nil discards frames
	Clock      timeutil.Clock   // nil uses the real clock
	Rand       *rand.Rand       // expiry jitter; nil seeds from the clock
	Reloader   *config.Reloader // nil disables hot reload
	Start      kinematics.State // initial pose
}

// Navigator runs control cycles. Not safe for concurrent use.
type Navigator struct {
	cfg    Config
	follow follower.Config
	clock  timeutil.Clock

	state   kinematics.State
	m       *pointmap.Map
	tracker *pointmap.DeltaTracker
	pruner  *pointmap.Pruner
	odom    *odometry.Blind
	planner *planner.Planner
	stats   *CycleStats

	perception perception.Source
	commands   command.Source
	driver     driver.Driver
	sink       telemetry.Sink
	reloader   *config.Reloader

	cycle      uint64
	driveFails int
}

// New creates a Navigator from the tuning config.
func New(tuning *config.TuningConfig, opts Options) *Navigator {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.Discard
	}

	cfg := ConfigFromTuning(tuning)
	return &Navigator{
		cfg:        cfg,
		follow:     follower.ConfigFromTuning(tuning),
		clock:      clock,
		state:      opts.Start,
		m:          pointmap.NewMap(tuning.GetCellSize(), tuning.GetNearestRings()),
		tracker:    pointmap.NewDeltaTracker(),
		pruner:     pointmap.NewPruner(pointmap.PrunerConfigFromTuning(tuning), rng),
		odom:       odometry.NewBlind(odometry.ConfigFromTuning(tuning), clock),
		planner:    planner.New(planner.ConfigFromTuning(tuning), clock),
		stats:      NewCycleStats(cfg.StatsWindow),
		perception: opts.Perception,
		commands:   opts.Commands,
		driver:     opts.Driver,
		sink:       sink,
		reloader:   opts.Reloader,
	}
}

// ApplyTuning swaps in new parameters between cycles. The map's cell size
// and ring ceiling are fixed at construction; changes to them need a
// restart.
func (n *Navigator) ApplyTuning(tuning *config.TuningConfig) {
	n.cfg = ConfigFromTuning(tuning)
	n.follow = follower.ConfigFromTuning(tuning)
	n.pruner.SetConfig(pointmap.PrunerConfigFromTuning(tuning))
	n.odom.SetConfig(odometry.ConfigFromTuning(tuning))
	n.planner.SetConfig(planner.ConfigFromTuning(tuning))
	if tuning.GetCellSize() != n.m.CellSize() {
		opsf("cell size change to %g ignored until restart", tuning.GetCellSize())
	}
	diagf("tuning applied: rate=%.1fHz budget=%v steps=%d",
		n.cfg.CycleRate, n.planner.Config().TimeBudget, n.planner.Config().MaxSteps)
}

// State returns the current pose estimate.
func (n *Navigator) State() kinematics.State { return n.state }

// MapLen returns the number of points in the map.
func (n *Navigator) MapLen() int { return n.m.Len() }

// Tick runs one control cycle and returns the frame handed to the sink. It
// returns nil without doing anything when ctx is already done.
func (n *Navigator) Tick(ctx context.Context) *telemetry.Frame {
	if ctx.Err() != nil {
		return nil
	}
	start := n.clock.Now()
	if tuning, ok := n.reloader.Poll(start); ok {
		n.ApplyTuning(tuning)
	}

	// Dead reckoning.
	movement := n.odom.Movement()
	n.state = n.state.Compose(movement)

	// Map update.
	points := n.perception.Detect(n.state)
	n.pruner.Stamp(n.m, points, start)
	n.m.AddPoints(points)
	n.tracker.Added(points)
	n.m.Remove(pointmap.KeepPredicate(start))
	n.tracker.Removed(n.m.DrainRemovedIDs())
	delta := n.tracker.Flush()

	// Plan and act.
	plan := n.planner.Search(n.state, n.m)
	cmd := n.commands.Latest()
	drive := n.selectDrive(cmd, plan.Trajectory)
	if err := n.driver.Drive(drive); err != nil {
		n.driveFails++
		opsf("cycle %d: drive %s: %v (failures: %d)", n.cycle, drive, err, n.driveFails)
	}
	n.odom.SetCommand(drive)

	nearest := telemetry.NoObstacle
	if p, ok := n.m.NearestPoint(n.state.Pos); ok {
		nearest = p.Pos.Dist(n.state.Pos)
	}

	n.stats.Record(start, n.clock.Since(start))
	summary := n.stats.Summary()

	frame := &telemetry.Frame{
		Cycle:      n.cycle,
		Time:       start,
		Pose:       n.state,
		Trajectory: plan.Trajectory,
		Added:      delta.Added,
		Removed:    delta.Removed,
		Diagnostic: telemetry.Diagnostic{
			ActualSpeed:     movement.Speed,
			ActualCurvature: movement.Curvature,
			FPSMean:         summary.FPSMean,
			CycleMsMean:     summary.CycleMsMean,
			CycleMsStddev:   summary.CycleMsStddev,
			PlanExpanded:    plan.Expanded,
			NearestObstacle: nearest,
			Mode:            cmd.Mode,
			Command:         drive,
		},
	}
	n.sink.Send(frame)

	if logs.Tracing() {
		tracef("cycle %d: pose=%s points=%d +%d -%d steps=%d expanded=%d mode=%s drive=%s",
			n.cycle, n.state, n.m.Len(), len(delta.Added), len(delta.Removed),
			plan.Trajectory.Steps(), plan.Expanded, cmd.Mode, drive)
	}
	n.cycle++
	return frame
}

// selectDrive maps the operator's mode onto a drive command: Off holds
// position, Manual maps the sticks, Auto follows the plan.
func (n *Navigator) selectDrive(cmd command.Command, plan planner.Trajectory) command.Drive {
	switch cmd.Mode {
	case command.Manual:
		return cmd.ManualDrive(n.cfg.MaxCurvature, n.cfg.MaxManualSpeed)
	case command.Auto:
		return follower.Follow(n.follow, plan)
	default:
		return command.Stop
	}
}

// Run ticks at the configured rate until ctx is cancelled, then stops the
// vehicle. A cycle that overruns its period delays the next one; cycles
// never overlap.
func (n *Navigator) Run(ctx context.Context) error {
	period := n.cfg.Period()
	ticker := n.clock.NewTicker(period)
	defer func() { ticker.Stop() }()

	diagf("control loop running at %.1f Hz", n.cfg.CycleRate)
	for {
		select {
		case <-ctx.Done():
			if err := n.driver.Drive(command.Stop); err != nil {
				opsf("stop on shutdown: %v", err)
			}
			diagf("control loop stopped after %d cycles", n.cycle)
			return nil
		case <-ticker.C():
			n.Tick(ctx)
			if p := n.cfg.Period(); p != period {
				ticker.Stop()
				period = p
				ticker = n.clock.NewTicker(period)
				diagf("cycle period now %v", period)
			}
		}
	}
}

// Cycles returns the number of completed cycles.
func (n *Navigator) Cycles() uint64 { return n.cycle }

// Stats returns the current cycle statistics.
func (n *Navigator) Stats() CycleSummary { return n.stats.Summary() }
