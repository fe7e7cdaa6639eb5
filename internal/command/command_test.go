package command

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/racecore/internal/timeutil"
)

func TestModeString(t *testing.T) {
	for _, m := range []Mode{Off, Auto, Manual} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("ParseMode(turbo) succeeded")
	}
}

func TestManualDrive(t *testing.T) {
	tests := []struct {
		cmd  Command
		want Drive
	}{
		{Command{Mode: Manual, Throttle: 0.5, Turn: -1}, Drive{Curvature: -1.5, Speed: 0.75}},
		{Command{Mode: Manual, Throttle: 2, Turn: 3}, Drive{Curvature: 1.5, Speed: 1.5}},
		{Command{Mode: Manual, Throttle: math.NaN()}, Drive{}},
	}
	for _, tt := range tests {
		if got := tt.cmd.ManualDrive(1.5, 1.5); got != tt.want {
			t.Errorf("%+v.ManualDrive() = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestFailsafe(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	f := NewFailsafe(clock, 100*time.Millisecond)

	if got := f.Latest(); got != (Command{}) {
		t.Errorf("Latest() before any command = %+v, want Off", got)
	}

	manual := Command{Mode: Manual, Throttle: 0.3, Turn: 0.1}
	f.Update(manual)
	clock.Advance(100 * time.Millisecond)
	if got := f.Latest(); got != manual {
		t.Errorf("Latest() at timeout = %+v, want %+v", got, manual)
	}

	clock.Advance(time.Millisecond)
	if got := f.Latest(); got.Mode != Off || got.Throttle != 0 || got.Turn != 0 {
		t.Errorf("Latest() after timeout = %+v, want Off", got)
	}

	f.Update(Command{Mode: Auto})
	if got := f.Latest().Mode; got != Auto {
		t.Errorf("Latest().Mode after refresh = %v, want auto", got)
	}
}

func TestFixed(t *testing.T) {
	var src Source = Fixed{Mode: Auto}
	if got := src.Latest().Mode; got != Auto {
		t.Errorf("Fixed.Latest().Mode = %v, want auto", got)
	}
}
