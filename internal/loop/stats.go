package loop

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// CycleSummary is the frame-rate and cycle-time summary over the window.
type CycleSummary struct {
	FPSMean       float64
	CycleMsMean   float64
	CycleMsStddev float64
}

// CycleStats keeps a sliding window of cycle start times and durations.
type CycleStats struct {
	window    int
	starts    []time.Time
	durations []float64 // milliseconds
}

// NewCycleStats creates a window of n cycles (at least 2).
func NewCycleStats(n int) *CycleStats {
	if n < 2 {
		n = 2
	}
	return &CycleStats{window: n}
}

// Record adds one cycle.
func (s *CycleStats) Record(start time.Time, took time.Duration) {
	s.starts = append(s.starts, start)
	s.durations = append(s.durations, float64(took)/float64(time.Millisecond))
	if len(s.starts) > s.window {
		s.starts = s.starts[1:]
		s.durations = s.durations[1:]
	}
}

// Len returns the number of cycles in the window.
func (s *CycleStats) Len() int { return len(s.durations) }

// Summary computes the window's statistics. The frame rate needs two cycles
// and the standard deviation needs two durations; both read zero before.
func (s *CycleStats) Summary() CycleSummary {
	var out CycleSummary
	switch len(s.durations) {
	case 0:
		return out
	case 1:
		out.CycleMsMean = s.durations[0]
		return out
	}
	out.CycleMsMean, out.CycleMsStddev = stat.MeanStdDev(s.durations, nil)

	span := s.starts[len(s.starts)-1].Sub(s.starts[0]).Seconds()
	if span > 0 {
		out.FPSMean = float64(len(s.starts)-1) / span
	}
	return out
}
