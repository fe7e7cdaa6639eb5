package config

import (
	"os"
	"time"

	"github.com/banshee-data/racecore/internal/monitoring"
)

// Reloader watches a tuning file and reloads it when its modification time
// changes. It is polled from the control loop between cycles, so it never
// touches the filesystem more than once per interval.
type Reloader struct {
	path     string
	interval time.Duration

	lastCheck time.Time
	modTime   time.Time
}

// NewReloader creates a reloader for path. The current modification time is
// recorded so that only subsequent edits trigger a reload.
func NewReloader(path string, interval time.Duration) *Reloader {
	r := &Reloader{path: path, interval: interval}
	if info, err := os.Stat(path); err == nil {
		r.modTime = info.ModTime()
	}
	return r
}

// Poll returns a freshly loaded config when the file changed since the last
// successful load. Invalid edits are logged and skipped; the caller keeps its
// previous config.
func (r *Reloader) Poll(now time.Time) (*TuningConfig, bool) {
	if r == nil || r.path == "" {
		return nil, false
	}
	if !r.lastCheck.IsZero() && now.Sub(r.lastCheck) < r.interval {
		return nil, false
	}
	r.lastCheck = now

	info, err := os.Stat(r.path)
	if err != nil {
		monitoring.Logf("config reload: stat %s: %v", r.path, err)
		return nil, false
	}
	if info.ModTime().Equal(r.modTime) {
		return nil, false
	}
	r.modTime = info.ModTime()

	cfg, err := LoadTuningConfig(r.path)
	if err != nil {
		monitoring.Logf("config reload: keeping previous config: %v", err)
		return nil, false
	}
	monitoring.Logf("config reload: loaded %s", r.path)
	return cfg, true
}
