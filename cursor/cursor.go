// Package cursor implements multi-cursor management and grouped
// undo/redo with typing coalescing: base-spec §3 Cursor/CursorSet/
// EditGroup/EditHistory and §4.4.
//
// No pack example manages multiple text cursors or an undo stack; this
// package follows base-spec §4.4 directly, in the teacher's terse,
// small-struct style.
package cursor

import "sort"

// Cursor is a single insertion point with an optional selection anchor.
type Cursor struct {
	Position int
	Anchor   *int
}

// HasSelection reports whether the cursor has a distinct anchor.
func (c Cursor) HasSelection() bool {
	return c.Anchor != nil && *c.Anchor != c.Position
}

// SelectionStart is min(anchor, position), or position with no anchor.
func (c Cursor) SelectionStart() int {
	if c.Anchor != nil && *c.Anchor < c.Position {
		return *c.Anchor
	}
	return c.Position
}

// SelectionEnd is max(anchor, position), or position with no anchor.
func (c Cursor) SelectionEnd() int {
	if c.Anchor != nil && *c.Anchor > c.Position {
		return *c.Anchor
	}
	return c.Position
}

func (c Cursor) clamp(docLen int) Cursor {
	p := clampInt(c.Position, 0, docLen)
	var a *int
	if c.Anchor != nil {
		v := clampInt(*c.Anchor, 0, docLen)
		a = &v
	}
	return Cursor{Position: p, Anchor: a}
}

// Snapshot is an immutable capture of a CursorSet's positions, anchors and
// primary index.
type Snapshot struct {
	cursors []Cursor
	primary int
}

// Cursors returns a copy of the snapshotted cursors.
func (s Snapshot) Cursors() []Cursor { return append([]Cursor(nil), s.cursors...) }

// PrimaryIndex returns the snapshotted primary index.
func (s Snapshot) PrimaryIndex() int { return s.primary }

// CursorSet is an ordered, position-sorted sequence of cursors with a
// tracked primary.
type CursorSet struct {
	cursors []Cursor
	primary int
}

// New returns a CursorSet with a single cursor at position 0.
func New() *CursorSet {
	return &CursorSet{cursors: []Cursor{{Position: 0}}}
}

// Len returns the number of cursors.
func (s *CursorSet) Len() int { return len(s.cursors) }

// At returns the cursor at index i.
func (s *CursorSet) At(i int) Cursor { return s.cursors[i] }

// All returns a copy of every cursor, in sorted order.
func (s *CursorSet) All() []Cursor { return append([]Cursor(nil), s.cursors...) }

// Primary returns the primary cursor.
func (s *CursorSet) Primary() Cursor { return s.cursors[s.primary] }

// PrimaryIndex returns the index of the primary cursor.
func (s *CursorSet) PrimaryIndex() int { return s.primary }

// Add inserts a cursor in sorted order by position, returning its index.
// The primary index shifts right if the insertion lands at or before it.
func (s *CursorSet) Add(position int, anchor *int) int {
	idx := sort.Search(len(s.cursors), func(i int) bool { return s.cursors[i].Position >= position })
	s.cursors = append(s.cursors, Cursor{})
	copy(s.cursors[idx+1:], s.cursors[idx:])
	s.cursors[idx] = Cursor{Position: position, Anchor: anchor}
	if idx <= s.primary {
		s.primary++
	}
	return idx
}

// CollapseToSingle discards every cursor but the primary.
func (s *CursorSet) CollapseToSingle() {
	s.cursors = []Cursor{s.cursors[s.primary]}
	s.primary = 0
}

// MergeOverlapping sorts cursors by position, then sweeps, merging
// adjacent pairs whose ranges touch or overlap (a.end >= b.start). The
// primary cursor's identity survives the merge whenever it participates;
// otherwise the later of the two survives, per base-spec §4.4.
func (s *CursorSet) MergeOverlapping() {
	n := len(s.cursors)
	if n == 0 {
		return
	}
	type tagged struct {
		c          Cursor
		wasPrimary bool
	}
	tmp := make([]tagged, n)
	for i, c := range s.cursors {
		tmp[i] = tagged{c: c, wasPrimary: i == s.primary}
	}
	sort.SliceStable(tmp, func(i, j int) bool { return tmp[i].c.Position < tmp[j].c.Position })

	merge := func(a, b tagged) tagged {
		start := minInt(a.c.SelectionStart(), b.c.SelectionStart())
		end := maxInt(a.c.SelectionEnd(), b.c.SelectionEnd())
		survivor := b
		if a.wasPrimary {
			survivor = a
		}
		forward := true
		if survivor.c.Anchor != nil {
			forward = *survivor.c.Anchor <= survivor.c.Position
		}
		var merged Cursor
		switch {
		case start == end:
			merged = Cursor{Position: start}
		case forward:
			anchor := start
			merged = Cursor{Position: end, Anchor: &anchor}
		default:
			anchor := end
			merged = Cursor{Position: start, Anchor: &anchor}
		}
		return tagged{c: merged, wasPrimary: survivor.wasPrimary}
	}

	out := make([]tagged, 0, n)
	for _, t := range tmp {
		if len(out) == 0 {
			out = append(out, t)
			continue
		}
		last := out[len(out)-1]
		if last.c.SelectionEnd() >= t.c.SelectionStart() {
			out[len(out)-1] = merge(last, t)
			continue
		}
		out = append(out, t)
	}

	s.cursors = make([]Cursor, len(out))
	s.primary = 0
	for i, t := range out {
		s.cursors[i] = t.c
		if t.wasPrimary {
			s.primary = i
		}
	}
}

// Snapshot captures the current cursors and primary index.
func (s *CursorSet) Snapshot() Snapshot {
	return Snapshot{cursors: append([]Cursor(nil), s.cursors...), primary: s.primary}
}

// Restore replaces the current cursors with a previously captured snapshot.
func (s *CursorSet) Restore(snap Snapshot) {
	s.cursors = append([]Cursor(nil), snap.cursors...)
	s.primary = snap.primary
}

// ClampAll clamps every cursor's position and anchor into [0, docLen].
func (s *CursorSet) ClampAll(docLen int) {
	for i := range s.cursors {
		s.cursors[i] = s.cursors[i].clamp(docLen)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
