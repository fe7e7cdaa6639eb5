package runlog

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/racecore/internal/httputil"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts a SQL console over the run log and a CSV export
// of a run's cycles on the debug handler.
func (db *DB) AttachAdminRoutes(debug *tsweb.DebugHandler) error {
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Run log",
	})
	debug.Handle("tailsql/", "SQL console over the run log", tsql.NewMux())
	debug.Handle("runs.json", "Recorded runs, newest first", http.HandlerFunc(db.handleRuns))
	debug.Handle("cycles.csv", "Cycles of a run as CSV (?run=ID, latest by default)", http.HandlerFunc(db.handleCyclesCSV))
	return nil
}

type runJSON struct {
	ID        int64      `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Version   string     `json:"version"`
	Notes     string     `json:"notes,omitempty"`
	Active    bool       `json:"active"`
}

func (db *DB) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := db.Runs()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	active := db.RunID()
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		j := runJSON{
			ID:        run.ID,
			StartedAt: run.StartedAt.UTC(),
			Version:   run.Version,
			Notes:     run.Notes,
			Active:    run.ID == active,
		}
		if !run.EndedAt.IsZero() {
			ended := run.EndedAt.UTC()
			j.EndedAt = &ended
		}
		out = append(out, j)
	}
	httputil.WriteJSONOK(w, out)
}

func (db *DB) handleCyclesCSV(w http.ResponseWriter, r *http.Request) {
	var runID int64
	if s := r.URL.Query().Get("run"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			httputil.BadRequest(w, "invalid run id")
			return
		}
		runID = id
	} else {
		runs, err := db.Runs()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		if len(runs) == 0 {
			httputil.NotFound(w, "no runs recorded")
			return
		}
		runID = runs[0].ID
	}

	if err := db.Flush(); err != nil {
		opsf("flush before export: %v", err)
	}
	cycles, err := db.Cycles(runID, 0)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=run-%d.csv", runID))
	if err := writeCSV(w, cycles); err != nil {
		opsf("write csv: %v", err)
	}
}
