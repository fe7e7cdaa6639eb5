package runlog

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"run_id", "cycle", "unix_nanos", "x", "y", "heading", "mode",
	"cmd_curvature", "cmd_speed", "actual_curvature", "actual_speed",
	"plan_steps", "plan_expanded", "points_added", "points_removed",
	"nearest_obstacle", "fps_mean", "cycle_ms_mean", "cycle_ms_stddev",
}

func writeCSV(w io.Writer, cycles []CycleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range cycles {
		row := []string{
			strconv.FormatInt(r.RunID, 10),
			strconv.FormatUint(r.Cycle, 10),
			strconv.FormatInt(r.Time.UnixNano(), 10),
			f(r.X), f(r.Y), f(r.Heading), r.Mode,
			f(r.CmdCurvature), f(r.CmdSpeed), f(r.ActualCurvature), f(r.ActualSpeed),
			strconv.Itoa(r.PlanSteps), strconv.Itoa(r.PlanExpanded),
			strconv.Itoa(r.PointsAdded), strconv.Itoa(r.PointsRemoved),
			f(r.NearestObstacle), f(r.FPSMean), f(r.CycleMsMean), f(r.CycleMsStddev),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
