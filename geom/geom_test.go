package geom

import "testing"

func TestConstraintsClamp(t *testing.T) {
	c := Constraints{MinW: 2, MaxW: 10, MinH: 1, MaxH: 5}
	got := c.Clamp(Size{W: 0, H: 20})
	if got.W != 2 || got.H != 5 {
		t.Errorf("Clamp(0,20) = %+v, want {2 5}", got)
	}
}

func TestConstraintsNormalizeRepairsInverted(t *testing.T) {
	c := Constraints{MinW: 5, MaxW: 1, MinH: -3, MaxH: -1}
	n := c.Normalize()
	if n.MinW > n.MaxW || n.MinH > n.MaxH || n.MinH < 0 {
		t.Errorf("Normalize left invariant broken: %+v", n)
	}
}

func TestRectContainsAndIntersect(t *testing.T) {
	r := Rect{X: 1, Y: 1, W: 4, H: 4}
	if !r.Contains(1, 1) || r.Contains(5, 5) {
		t.Errorf("Contains boundary wrong")
	}
	other := Rect{X: 3, Y: 3, W: 4, H: 4}
	got := r.Intersect(other)
	want := Rect{X: 3, Y: 3, W: 2, H: 2}
	if got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}
}

func TestRectIntersectDisjointIsEmpty(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 2, H: 2}
	b := Rect{X: 10, Y: 10, W: 2, H: 2}
	if !a.Intersect(b).Empty() {
		t.Errorf("expected empty intersection")
	}
}

func TestRectSub(t *testing.T) {
	parent := Rect{X: 0, Y: 0, W: 10, H: 10}
	child := Rect{X: 2, Y: 2, W: 3, H: 3}
	if !child.Sub(parent) {
		t.Errorf("expected child to be contained in parent")
	}
	outside := Rect{X: 8, Y: 8, W: 5, H: 5}
	if outside.Sub(parent) {
		t.Errorf("expected outside rect to not be contained")
	}
}

func TestSizeHintConstructorsClampDegenerateInputs(t *testing.T) {
	if FillHint(0).Weight != 1 {
		t.Errorf("FillHint(0) should clamp weight to 1")
	}
	if FixedHint(-5).N != 0 {
		t.Errorf("FixedHint(-5) should clamp n to 0")
	}
}
