package surface

import "testing"

func TestSetGraphemeWide(t *testing.T) {
	s := New(5, 1)
	s.SetGrapheme(0, 0, "中", DefaultColor, DefaultColor, 0) // CJK wide char
	if CellWidth(s.Get(0, 0).Grapheme) != 2 {
		t.Fatalf("expected wide glyph")
	}
	if !s.Get(1, 0).IsContinuation() {
		t.Fatalf("expected continuation sentinel at column 1")
	}
}

func TestSetNarrowAfterWideClearsSentinelLeak(t *testing.T) {
	s := New(5, 1)
	s.SetGrapheme(0, 0, "中", DefaultColor, DefaultColor, 0)
	s.SetGrapheme(2, 0, "a", DefaultColor, DefaultColor, 0)
	if s.Get(1, 0).Grapheme != "" && !s.Get(1, 0).IsContinuation() {
		t.Fatalf("column 1 should remain a clean continuation or blank")
	}
	// overwriting column 1 directly should blank the wide glyph at column 0
	s.Set(1, 0, Cell{Grapheme: "x"})
	if s.Get(0, 0) != Blank {
		t.Errorf("expected predecessor wide glyph cleared, got %+v", s.Get(0, 0))
	}
}

func TestResizePreservesOverlap(t *testing.T) {
	s := New(10, 10)
	s.Set(0, 0, Cell{Grapheme: "x"})
	s.Resize(5, 5)
	if s.W != 5 || s.H != 5 {
		t.Fatalf("resize dimensions wrong")
	}
	if s.Get(0, 0).Grapheme != "x" {
		t.Errorf("resize should preserve overlapping content")
	}
}

func TestDiffNoChangesIsEmpty(t *testing.T) {
	back := New(10, 3)
	front := New(10, 3)
	ops := Diff(back, front, DefaultFuseGap)
	if len(ops) != 0 {
		t.Errorf("expected no ops for identical surfaces, got %d", len(ops))
	}
}

func TestDiffSingleCellChange(t *testing.T) {
	back := New(10, 3)
	front := New(10, 3)
	back.Set(4, 1, Cell{Grapheme: "Z"})
	ops := Diff(back, front, DefaultFuseGap)
	if len(ops) != 1 {
		t.Fatalf("expected exactly 1 update op, got %d: %+v", len(ops), ops)
	}
	op := ops[0]
	if op.Row != 1 || op.StartCol != 4 || len(op.Cells) != 1 || op.Cells[0].Grapheme != "Z" {
		t.Errorf("unexpected op: %+v", op)
	}
}

func TestDiffFusesCloseSpans(t *testing.T) {
	back := New(20, 1)
	front := New(20, 1)
	back.Set(0, 0, Cell{Grapheme: "a"})
	back.Set(3, 0, Cell{Grapheme: "b"}) // gap of 2 unchanged cells (1,2)
	ops := Diff(back, front, DefaultFuseGap)
	if len(ops) != 1 {
		t.Fatalf("expected spans within fuseGap to merge into one op, got %d", len(ops))
	}
	if ops[0].StartCol != 0 || len(ops[0].Cells) != 4 {
		t.Errorf("unexpected fused op: %+v", ops[0])
	}
}

func TestDiffDoesNotFuseFarSpans(t *testing.T) {
	back := New(20, 1)
	front := New(20, 1)
	back.Set(0, 0, Cell{Grapheme: "a"})
	back.Set(10, 0, Cell{Grapheme: "b"})
	ops := Diff(back, front, DefaultFuseGap)
	if len(ops) != 2 {
		t.Fatalf("expected 2 separate ops for far-apart spans, got %d", len(ops))
	}
}

func TestDiffWideGlyphContinuationForcesExtension(t *testing.T) {
	back := New(10, 1)
	front := New(10, 1)
	back.SetGrapheme(0, 0, "中", DefaultColor, DefaultColor, 0)
	front.SetGrapheme(0, 0, "中", DefaultColor, DefaultColor, 0)
	// Now change only the continuation cell in back by overwriting column 0
	// with a narrow glyph (clears continuation) while front still has it.
	back.Set(0, 0, Cell{Grapheme: "x"})
	ops := Diff(back, front, DefaultFuseGap)
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(ops))
	}
	if ops[0].StartCol != 0 || len(ops[0].Cells) < 2 {
		t.Errorf("expected run to extend to cover the continuation cell: %+v", ops[0])
	}
}

func TestCellWidthEmptyAndASCII(t *testing.T) {
	if CellWidth("") != 0 {
		t.Errorf("empty grapheme should have width 0")
	}
	if CellWidth("a") != 1 {
		t.Errorf("ascii should have width 1")
	}
}
