package surface

// Surface is a w×h grid of styled cells. Grounded on the teacher's
// tui/screen.go Buffer, generalized to grapheme-aware wide cells: writing a
// wide glyph at column c also fills column c+1 with a continuation
// sentinel, per base-spec §3's Surface invariant.
type Surface struct {
	W, H  int
	cells []Cell
}

// New creates a blank w×h surface.
func New(w, h int) *Surface {
	s := &Surface{W: w, H: h, cells: make([]Cell, w*h)}
	s.ClearAll()
	return s
}

func (s *Surface) index(x, y int) (int, bool) {
	if x < 0 || x >= s.W || y < 0 || y >= s.H {
		return 0, false
	}
	return y*s.W + x, true
}

// Get returns the cell at (x,y), or the zero Cell if out of bounds.
func (s *Surface) Get(x, y int) Cell {
	i, ok := s.index(x, y)
	if !ok {
		return Cell{}
	}
	return s.cells[i]
}

// Set writes a single-width cell at (x,y), clearing any continuation
// sentinel the overwritten wide glyph may have had at x+1's predecessor.
// Out-of-range writes are silently dropped, matching the teacher's
// Buffer.Set bounds check.
func (s *Surface) Set(x, y int, c Cell) {
	i, ok := s.index(x, y)
	if !ok {
		return
	}
	s.clearWideAt(x, y)
	s.cells[i] = c
}

// SetGrapheme writes one grapheme cluster at (x,y) with the given styling,
// expanding to a continuation sentinel at x+1 when the cluster is wide. A
// zero-width cluster (e.g. a stray combining mark) is dropped.
func (s *Surface) SetGrapheme(x, y int, grapheme string, fg, bg Color, attrs Attrs) {
	w := CellWidth(grapheme)
	if w == 0 {
		return
	}
	i, ok := s.index(x, y)
	if !ok {
		return
	}
	s.clearWideAt(x, y)
	s.cells[i] = Cell{Grapheme: grapheme, Fg: fg, Bg: bg, Attrs: attrs}
	if w == 2 {
		if j, ok := s.index(x+1, y); ok {
			s.clearWideAt(x+1, y)
			s.cells[j] = continuationCell()
		}
	}
}

// clearWideAt ensures that overwriting (x,y) does not leave a dangling
// continuation sentinel or a wide glyph with its sentinel clobbered.
// - If (x,y) is itself a continuation sentinel, its predecessor at x-1 is
//   blanked (the wide glyph it belonged to is being partially overwritten).
// - If (x,y) holds a wide glyph, the sentinel at x+1 is blanked.
func (s *Surface) clearWideAt(x, y int) {
	if i, ok := s.index(x, y); ok {
		cur := s.cells[i]
		if cur.IsContinuation() {
			if pi, ok := s.index(x-1, y); ok {
				s.cells[pi] = Blank
			}
		} else if CellWidth(cur.Grapheme) == 2 {
			if ni, ok := s.index(x+1, y); ok {
				s.cells[ni] = Blank
			}
		}
	}
}

// ClearAll resets every cell to Blank.
func (s *Surface) ClearAll() {
	for i := range s.cells {
		s.cells[i] = Blank
	}
}

// Resize grows or shrinks the surface in place, preserving the overlapping
// top-left region, per the teacher's Buffer.Resize.
func (s *Surface) Resize(w, h int) {
	next := make([]Cell, w*h)
	for i := range next {
		next[i] = Blank
	}
	minW, minH := minInt(w, s.W), minInt(h, s.H)
	for y := 0; y < minH; y++ {
		copy(next[y*w:y*w+minW], s.cells[y*s.W:y*s.W+minW])
	}
	s.W, s.H, s.cells = w, h, next
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
