package odometry

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/timeutil"
)

const tol = 1e-9

func newTestBlind(delay time.Duration) (*Blind, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Delay = delay
	return NewBlind(cfg, clock), clock
}

func TestMovementNeedsTwoSamples(t *testing.T) {
	b, _ := newTestBlind(150 * time.Millisecond)
	if got := b.Movement(); got.Pos.X != 0 || got.Pos.Y != 0 || got.Heading != 0 {
		t.Errorf("Movement() with no samples = %v, want zero", got)
	}
	b.SetCommand(command.Drive{Speed: 1})
	if got := b.Movement(); got.Pos.X != 0 {
		t.Errorf("Movement() with one sample = %v, want zero", got)
	}
}

func TestMovementUsesDelayedCommand(t *testing.T) {
	b, clock := newTestBlind(150 * time.Millisecond)

	a := command.Drive{Speed: 1}
	bb := command.Drive{Speed: 3}
	c := command.Drive{Speed: 5}

	b.SetCommand(a)
	clock.Advance(100 * time.Millisecond)
	b.SetCommand(bb)
	clock.Advance(100 * time.Millisecond)
	b.SetCommand(c)
	clock.Advance(50 * time.Millisecond)

	got := b.Movement()
	// A executed for the 0.1 s until B was issued.
	if math.Abs(got.Pos.X-0.1) > tol || math.Abs(got.Pos.Y) > tol {
		t.Errorf("Movement() = %v, want A for 100ms (0.1, 0)", got)
	}
	if got.Speed != a.Speed {
		t.Errorf("Movement().Speed = %v, want %v", got.Speed, a.Speed)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}

	clock.Advance(50 * time.Millisecond)
	b.SetCommand(command.Drive{Speed: 7})
	// At t=0.3 both A and B are older than the delay; B is the newest of
	// them and stays at the front.
	if b.Len() != 3 {
		t.Fatalf("Len() after eviction = %d, want 3", b.Len())
	}
	got = b.Movement()
	if math.Abs(got.Pos.X-0.3) > tol {
		t.Errorf("Movement().Pos.X = %v, want 0.3 (B at 3 m/s for 100ms)", got.Pos.X)
	}
}

func TestQueueStaysBounded(t *testing.T) {
	b, clock := newTestBlind(200 * time.Millisecond)
	for i := 0; i < 100; i++ {
		b.SetCommand(command.Drive{Speed: 1, Curvature: 0.5})
		clock.Advance(33 * time.Millisecond)
	}
	// 200ms / 33ms covers at most 7 samples plus the front one.
	if b.Len() > 8 {
		t.Errorf("Len() = %d, want at most 8", b.Len())
	}
	if b.Len() < 2 {
		t.Errorf("Len() = %d, want at least 2", b.Len())
	}
}

func TestMovementTurns(t *testing.T) {
	b, clock := newTestBlind(0)
	b.SetCommand(command.Drive{Speed: 2, Curvature: 1})
	clock.Advance(500 * time.Millisecond)
	b.SetCommand(command.Drive{})

	got := b.Movement()
	// Zero delay keeps only the newest qualifying sample, which is the
	// second one; nothing to replay.
	if b.Len() != 1 || got.Pos.X != 0 {
		t.Fatalf("zero delay: Len() = %d, Movement() = %v", b.Len(), got)
	}

	b, clock = newTestBlind(time.Second)
	b.SetCommand(command.Drive{Speed: 2, Curvature: 1})
	clock.Advance(500 * time.Millisecond)
	b.SetCommand(command.Drive{})
	got = b.Movement()
	// 1 m of arc at curvature 1.
	if math.Abs(got.Heading-1) > tol {
		t.Errorf("Movement().Heading = %v, want 1", got.Heading)
	}
	if math.Abs(got.Pos.X-math.Sin(1)) > tol || math.Abs(got.Pos.Y-(1-math.Cos(1))) > tol {
		t.Errorf("Movement().Pos = %v, want (%v, %v)", got.Pos, math.Sin(1), 1-math.Cos(1))
	}
}

func TestFudgeFactorsScaleReplay(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	b := NewBlind(Config{Delay: time.Second, TurnFudge: 0.5, SpeedFudge: 2}, clock)

	b.SetCommand(command.Drive{Speed: 1, Curvature: 0.4})
	clock.Advance(time.Second)
	b.SetCommand(command.Drive{})

	got := b.Movement()
	if math.Abs(got.Curvature-0.2) > tol || math.Abs(got.Speed-2) > tol {
		t.Errorf("Movement() curvature/speed = %v/%v, want 0.2/2", got.Curvature, got.Speed)
	}
	// 2 m at curvature 0.2 turns 0.4 rad.
	if math.Abs(got.Heading-0.4) > tol {
		t.Errorf("Movement().Heading = %v, want 0.4", got.Heading)
	}
}
