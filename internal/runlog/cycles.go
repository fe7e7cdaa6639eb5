package runlog

import (
	"fmt"
	"time"

	"github.com/banshee-data/racecore/internal/telemetry"
)

// CycleRecord is one row of the cycles table.
type CycleRecord struct {
	RunID           int64
	Cycle           uint64
	Time            time.Time
	X, Y, Heading   float64
	Mode            string
	CmdCurvature    float64
	CmdSpeed        float64
	ActualCurvature float64
	ActualSpeed     float64
	PlanSteps       int
	PlanExpanded    int
	PointsAdded     int
	PointsRemoved   int
	NearestObstacle float64
	FPSMean         float64
	CycleMsMean     float64
	CycleMsStddev   float64
}

func recordFromFrame(runID int64, f *telemetry.Frame) CycleRecord {
	d := f.Diagnostic
	return CycleRecord{
		RunID:           runID,
		Cycle:           f.Cycle,
		Time:            f.Time,
		X:               f.Pose.Pos.X,
		Y:               f.Pose.Pos.Y,
		Heading:         f.Pose.Heading,
		Mode:            d.Mode.String(),
		CmdCurvature:    d.Command.Curvature,
		CmdSpeed:        d.Command.Speed,
		ActualCurvature: d.ActualCurvature,
		ActualSpeed:     d.ActualSpeed,
		PlanSteps:       f.Trajectory.Steps(),
		PlanExpanded:    d.PlanExpanded,
		PointsAdded:     len(f.Added),
		PointsRemoved:   len(f.Removed),
		NearestObstacle: d.NearestObstacle,
		FPSMean:         d.FPSMean,
		CycleMsMean:     d.CycleMsMean,
		CycleMsStddev:   d.CycleMsStddev,
	}
}

// Send implements telemetry.Sink. Frames arriving outside a run are ignored.
// Rows are buffered and written in batches; write errors are logged and the
// batch is discarded so a failing disk never stalls the control loop.
func (db *DB) Send(f *telemetry.Frame) {
	if f == nil {
		return
	}
	db.mu.Lock()
	if db.runID == 0 {
		db.mu.Unlock()
		return
	}
	db.pending = append(db.pending, recordFromFrame(db.runID, f))
	full := len(db.pending) >= db.flushEvery
	db.mu.Unlock()
	if full {
		if err := db.Flush(); err != nil {
			opsf("dropped cycles: %v", err)
		}
	}
}

// Flush writes buffered cycles in one transaction. It is safe to call from
// another goroutine than Send.
func (db *DB) Flush() error {
	db.mu.Lock()
	batch := db.pending
	db.pending = nil
	db.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO cycles (
		run_id, cycle, unix_nanos, x, y, heading, mode,
		cmd_curvature, cmd_speed, actual_curvature, actual_speed,
		plan_steps, plan_expanded, points_added, points_removed,
		nearest_obstacle, fps_mean, cycle_ms_mean, cycle_ms_stddev
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.Exec(
			r.RunID, int64(r.Cycle), r.Time.UnixNano(), r.X, r.Y, r.Heading, r.Mode,
			r.CmdCurvature, r.CmdSpeed, r.ActualCurvature, r.ActualSpeed,
			r.PlanSteps, r.PlanExpanded, r.PointsAdded, r.PointsRemoved,
			r.NearestObstacle, r.FPSMean, r.CycleMsMean, r.CycleMsStddev,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert cycle %d: %w", r.Cycle, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	tracef("wrote %d cycles", len(batch))
	return nil
}

// Cycles returns up to limit cycles of a run in cycle order. A limit of 0
// or less returns all of them.
func (db *DB) Cycles(runID int64, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT
		run_id, cycle, unix_nanos, x, y, heading, mode,
		cmd_curvature, cmd_speed, actual_curvature, actual_speed,
		plan_steps, plan_expanded, points_added, points_removed,
		nearest_obstacle, fps_mean, cycle_ms_mean, cycle_ms_stddev
		FROM cycles WHERE run_id = ? ORDER BY cycle LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var r CycleRecord
		var cycle, nanos int64
		if err := rows.Scan(
			&r.RunID, &cycle, &nanos, &r.X, &r.Y, &r.Heading, &r.Mode,
			&r.CmdCurvature, &r.CmdSpeed, &r.ActualCurvature, &r.ActualSpeed,
			&r.PlanSteps, &r.PlanExpanded, &r.PointsAdded, &r.PointsRemoved,
			&r.NearestObstacle, &r.FPSMean, &r.CycleMsMean, &r.CycleMsStddev,
		); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		r.Cycle = uint64(cycle)
		r.Time = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}
