package pointmap

// Delta is the change set since the previous flush: points added and
// identifiers removed.
type Delta struct {
	Added   []Point
	Removed []PointID
}

// Empty reports whether the delta carries no changes.
func (d Delta) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// DeltaTracker accumulates additions and removals between flushes. A point
// added and removed again before a flush is dropped from both lists, so a
// downstream mirror never hears about a point it could not have seen.
type DeltaTracker struct {
	added     []Point
	live      map[PointID]struct{} // IDs in added that have not been cancelled
	cancelled int                  // entries in added no longer in live
	removed   []PointID
}

// NewDeltaTracker creates an empty tracker.
func NewDeltaTracker() *DeltaTracker {
	return &DeltaTracker{live: make(map[PointID]struct{})}
}

// Added records newly inserted points.
func (t *DeltaTracker) Added(points []Point) {
	for _, p := range points {
		t.added = append(t.added, p)
		t.live[p.ID] = struct{}{}
	}
}

// Removed records removed identifiers, cancelling unflushed additions.
// Cancelled additions are compacted away once they make up half of the
// pending list, so a tracker that is rarely flushed stays bounded by the
// live point count.
func (t *DeltaTracker) Removed(ids []PointID) {
	for _, id := range ids {
		if _, ok := t.live[id]; ok {
			delete(t.live, id)
			t.cancelled++
			continue
		}
		t.removed = append(t.removed, id)
	}
	if t.cancelled > 0 && 2*t.cancelled >= len(t.added) {
		t.compact()
	}
}

func (t *DeltaTracker) compact() {
	kept := t.added[:0]
	for _, p := range t.added {
		if _, ok := t.live[p.ID]; ok {
			kept = append(kept, p)
		}
	}
	clear(t.added[len(kept):])
	t.added = kept
	t.cancelled = 0
}

// Merge folds another delta into the tracker, in order: additions first.
func (t *DeltaTracker) Merge(d Delta) {
	t.Added(d.Added)
	t.Removed(d.Removed)
}

// Pending returns the number of additions and removals awaiting a flush.
func (t *DeltaTracker) Pending() int {
	return len(t.live) + len(t.removed)
}

// Flush returns the accumulated delta and resets the tracker.
func (t *DeltaTracker) Flush() Delta {
	var d Delta
	for _, p := range t.added {
		if _, ok := t.live[p.ID]; ok {
			d.Added = append(d.Added, p)
		}
	}
	d.Removed = t.removed

	t.added = nil
	t.removed = nil
	t.cancelled = 0
	clear(t.live)
	return d
}
