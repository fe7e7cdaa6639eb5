package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleStatsSummary(t *testing.T) {
	s := NewCycleStats(10)
	assert.Equal(t, CycleSummary{}, s.Summary())

	t0 := time.Unix(1700000000, 0)
	s.Record(t0, 10*time.Millisecond)
	assert.Equal(t, CycleSummary{CycleMsMean: 10}, s.Summary())

	s.Record(t0.Add(100*time.Millisecond), 20*time.Millisecond)
	s.Record(t0.Add(200*time.Millisecond), 30*time.Millisecond)

	got := s.Summary()
	assert.InDelta(t, 20, got.CycleMsMean, 1e-9)
	assert.InDelta(t, 10, got.CycleMsStddev, 1e-9)
	assert.InDelta(t, 10, got.FPSMean, 1e-9)
}

func TestCycleStatsWindow(t *testing.T) {
	s := NewCycleStats(3)
	t0 := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		s.Record(t0.Add(time.Duration(i)*50*time.Millisecond), time.Duration(i+1)*time.Millisecond)
	}
	assert.Equal(t, 3, s.Len())

	got := s.Summary()
	assert.InDelta(t, 4, got.CycleMsMean, 1e-9, "only the last three durations count")
	assert.InDelta(t, 20, got.FPSMean, 1e-9)
}

func TestCycleStatsMinimumWindow(t *testing.T) {
	s := NewCycleStats(0)
	t0 := time.Unix(1700000000, 0)
	s.Record(t0, time.Millisecond)
	s.Record(t0, time.Millisecond)
	s.Record(t0, time.Millisecond)
	assert.Equal(t, 2, s.Len())
	assert.Zero(t, s.Summary().FPSMean, "no elapsed time means no rate")
}
