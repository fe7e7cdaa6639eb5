package pointmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeltaTrackerCancelsAddThenRemove(t *testing.T) {
	tr := NewDeltaTracker()
	a, b, c := pt(Obstacle, 0, 0), pt(LeftBoundary, 1, 0), pt(RightMarker, 2, 0)
	stale := pt(Obstacle, 5, 5) // added in an earlier, already flushed delta

	tr.Added([]Point{a, b, c})
	tr.Removed([]PointID{b.ID, stale.ID})

	if got := tr.Pending(); got != 3 {
		t.Errorf("Pending() = %d, want 3", got)
	}

	d := tr.Flush()
	if diff := cmp.Diff(sortedIDs([]Point{a, c}), sortedIDs(d.Added)); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]PointID{stale.ID}, d.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	if d := tr.Flush(); !d.Empty() {
		t.Errorf("second Flush() = %+v, want empty", d)
	}
	if got := tr.Pending(); got != 0 {
		t.Errorf("Pending() after flush = %d, want 0", got)
	}
}

func TestDeltaTrackerRemovalAfterFlushIsReported(t *testing.T) {
	tr := NewDeltaTracker()
	a := pt(Obstacle, 0, 0)

	tr.Added([]Point{a})
	first := tr.Flush()
	if len(first.Added) != 1 {
		t.Fatalf("first flush added %d, want 1", len(first.Added))
	}

	tr.Removed([]PointID{a.ID})
	second := tr.Flush()
	if len(second.Added) != 0 || len(second.Removed) != 1 || second.Removed[0] != a.ID {
		t.Errorf("second flush = %+v, want only removal of %v", second, a.ID)
	}
}

func TestDeltaTrackerMerge(t *testing.T) {
	tr := NewDeltaTracker()
	a, b := pt(Obstacle, 0, 0), pt(Obstacle, 1, 0)

	tr.Merge(Delta{Added: []Point{a}})
	tr.Merge(Delta{Added: []Point{b}, Removed: []PointID{a.ID}})

	d := tr.Flush()
	if len(d.Added) != 1 || d.Added[0].ID != b.ID {
		t.Errorf("Added = %v, want only %v", d.Added, b)
	}
	if len(d.Removed) != 0 {
		t.Errorf("Removed = %v, want none", d.Removed)
	}
}

func TestDeltaTrackerStaysBoundedWithoutFlush(t *testing.T) {
	tr := NewDeltaTracker()
	keep := pt(LeftBoundary, -1, 0)
	tr.Added([]Point{keep})

	for round := 0; round < 1800; round++ {
		batch := make([]Point, 100)
		ids := make([]PointID, len(batch))
		for i := range batch {
			batch[i] = pt(Obstacle, float64(i)*0.1, float64(round%7))
			ids[i] = batch[i].ID
		}
		tr.Added(batch)
		tr.Removed(ids)
	}

	if got := tr.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
	if got := len(tr.added); got > 200 {
		t.Errorf("len(added) = %d after cancelled rounds, want bounded by live points", got)
	}

	d := tr.Flush()
	if len(d.Added) != 1 || d.Added[0].ID != keep.ID {
		t.Errorf("Flush().Added = %v, want only %v", d.Added, keep)
	}
}
