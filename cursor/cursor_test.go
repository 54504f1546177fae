package cursor

import "testing"

func ptr(i int) *int { return &i }

func TestAddSortedAndPrimaryShift(t *testing.T) {
	s := New() // [{0}], primary 0
	idx := s.Add(10, nil)
	if idx != 1 {
		t.Fatalf("Add(10) index = %d, want 1", idx)
	}
	if s.PrimaryIndex() != 0 {
		t.Fatalf("primary should stay at 0 (insertion after it), got %d", s.PrimaryIndex())
	}
	idx = s.Add(-5, nil) // inserts before index 0 and 1
	if idx != 0 {
		t.Fatalf("Add(-5) index = %d, want 0", idx)
	}
	if s.PrimaryIndex() != 1 {
		t.Fatalf("primary should shift to 1 after insertion at/before it, got %d", s.PrimaryIndex())
	}
}

func TestCollapseToSingleKeepsPrimary(t *testing.T) {
	s := New()
	s.Add(10, nil)
	s.Add(20, nil)
	// primary still at index 0 (value 0) since both adds were after it
	s.CollapseToSingle()
	if s.Len() != 1 || s.Primary().Position != 0 {
		t.Fatalf("expected single cursor at 0, got %+v", s.All())
	}
}

func TestMergeOverlappingNonTouching(t *testing.T) {
	s := New()
	s.cursors = []Cursor{{Position: 3}, {Position: 10}}
	s.primary = 0
	s.MergeOverlapping()
	if s.Len() != 2 {
		t.Fatalf("expected no merge, got %d cursors", s.Len())
	}
}

func TestMergeOverlappingUnionAndPrimarySurvives(t *testing.T) {
	s := New()
	// A: simple cursor at 5 (primary). B: selection anchor=6, position=3 (range [3,6]).
	s.cursors = []Cursor{{Position: 5}, {Position: 3, Anchor: ptr(6)}}
	s.primary = 0 // A is primary
	s.MergeOverlapping()
	if s.Len() != 1 {
		t.Fatalf("expected merge into 1 cursor, got %d: %+v", s.Len(), s.All())
	}
	merged := s.Primary()
	if merged.SelectionStart() != 3 || merged.SelectionEnd() != 6 {
		t.Fatalf("expected union range [3,6], got [%d,%d]", merged.SelectionStart(), merged.SelectionEnd())
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New()
	s.Add(10, nil)
	snap := s.Snapshot()
	s.Add(20, nil)
	if s.Len() != 3 {
		t.Fatalf("expected 3 cursors before restore")
	}
	s.Restore(snap)
	if s.Len() != 2 {
		t.Fatalf("expected 2 cursors after restore, got %d", s.Len())
	}
}

func TestClampAll(t *testing.T) {
	s := New()
	s.cursors = []Cursor{{Position: -5}, {Position: 100, Anchor: ptr(200)}}
	s.ClampAll(10)
	if s.cursors[0].Position != 0 {
		t.Errorf("expected clamp to 0, got %d", s.cursors[0].Position)
	}
	if s.cursors[1].Position != 10 || *s.cursors[1].Anchor != 10 {
		t.Errorf("expected clamp to 10, got pos=%d anchor=%d", s.cursors[1].Position, *s.cursors[1].Anchor)
	}
}

func TestHasSelection(t *testing.T) {
	c := Cursor{Position: 5}
	if c.HasSelection() {
		t.Error("no anchor should mean no selection")
	}
	c = Cursor{Position: 5, Anchor: ptr(5)}
	if c.HasSelection() {
		t.Error("anchor equal to position should mean no selection")
	}
	c = Cursor{Position: 5, Anchor: ptr(2)}
	if !c.HasSelection() {
		t.Error("distinct anchor should mean a selection")
	}
	if c.SelectionStart() != 2 || c.SelectionEnd() != 5 {
		t.Errorf("got start=%d end=%d", c.SelectionStart(), c.SelectionEnd())
	}
}
