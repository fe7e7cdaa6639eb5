package pointmap

import (
	"math/rand"
	"testing"
	"time"

	"github.com/banshee-data/racecore/internal/geom"
)

func TestKeepForDensity(t *testing.T) {
	cfg := DefaultPrunerConfig()
	cfg.Jitter = 0
	p := NewPruner(cfg, rand.New(rand.NewSource(1)))

	tests := []struct {
		density int
		want    time.Duration
	}{
		{0, 4 * time.Second},
		{4, 2 * time.Second},
		{12, 1 * time.Second},
		{1000, 500 * time.Millisecond}, // clamped to MinKeepFor
	}
	for _, tt := range tests {
		if got := p.KeepFor(tt.density); got != tt.want {
			t.Errorf("KeepFor(%d) = %v, want %v", tt.density, got, tt.want)
		}
	}
}

func TestKeepForJitterBounds(t *testing.T) {
	p := NewPruner(DefaultPrunerConfig(), rand.New(rand.NewSource(3)))

	lo, hi := time.Duration(float64(4*time.Second)*0.9), time.Duration(float64(4*time.Second)*1.1)
	varied := false
	first := p.KeepFor(0)
	for i := 0; i < 500; i++ {
		got := p.KeepFor(0)
		if got < lo || got > hi {
			t.Fatalf("KeepFor(0) = %v, want within [%v, %v]", got, lo, hi)
		}
		if got != first {
			varied = true
		}
	}
	if !varied {
		t.Error("KeepFor(0) never varied with jitter enabled")
	}
}

func TestStampUsesCellDensity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultPrunerConfig()
	cfg.Jitter = 0
	p := NewPruner(cfg, nil)

	m := NewMap(0.15, 0)
	var crowd []Point
	for i := 0; i < 4; i++ {
		crowd = append(crowd, pt(Obstacle, 0.05, 0.05))
	}
	m.AddPoints(crowd)

	batch := []Point{pt(Obstacle, 0.1, 0.1), pt(Obstacle, 3, 3)}
	p.Stamp(m, batch, now)

	if got, want := batch[0].ExpireAt, now.Add(2*time.Second); !got.Equal(want) {
		t.Errorf("crowded ExpireAt = %v, want %v", got, want)
	}
	if got, want := batch[1].ExpireAt, now.Add(4*time.Second); !got.Equal(want) {
		t.Errorf("sparse ExpireAt = %v, want %v", got, want)
	}
}

func TestStampUsesMarkerDensity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultPrunerConfig()
	cfg.Jitter = 0
	p := NewPruner(cfg, nil)

	m := NewMap(0.15, 0)
	for i := 0; i < 4; i++ {
		m.AddPoints([]Point{pt(LeftMarker, 1, 0.01*float64(i))})
	}

	batch := []Point{pt(LeftMarker, 1, 0), pt(RightMarker, -1, 0)}
	p.Stamp(m, batch, now)

	if got, want := batch[0].ExpireAt, now.Add(2*time.Second); !got.Equal(want) {
		t.Errorf("re-detected marker ExpireAt = %v, want %v", got, want)
	}
	if got, want := batch[1].ExpireAt, now.Add(4*time.Second); !got.Equal(want) {
		t.Errorf("lone marker ExpireAt = %v, want %v", got, want)
	}
}

func TestKeepPredicate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	keep := KeepPredicate(now)

	p := NewPoint(Obstacle, geom.Origin)
	p.ExpireAt = now.Add(time.Nanosecond)
	if !keep(p) {
		t.Error("point expiring after now was not kept")
	}
	p.ExpireAt = now
	if keep(p) {
		t.Error("point expiring exactly now was kept")
	}
}
