// Package layout implements the two-pass measure/arrange engine of
// base-spec §4.7, generalized from the teacher's tui/layout_engine.go
// Measure/Draw pair: that file is a single LayoutNode type whose Measure
// distributes Fixed/Auto/Flex space along one axis and whose Draw walks the
// same tree positioning children in a second pass. This package keeps that
// two-pass shape but operates on node.Node plus geom.Constraints/SizeHint,
// and adds the floor-division-plus-remainder fill distribution and overlay
// loose-constraints/elementwise-max rules base-spec §4.7 specifies that the
// teacher's simpler Fixed/Auto/Flex model did not need.
package layout

import (
	"hex1b/geom"
	"hex1b/node"
	"hex1b/surface"
	"hex1b/widget"
)

// unbounded stands in for "no upper limit" on an axis, per base-spec §4.7's
// "measure fixed and content children... with unbounded height".
const unbounded = 1 << 30

// Measure runs the top-down measure pass: n receives c from its parent and
// returns its desiredSize, which satisfies c on both axes. Also records
// LastConstraints/DesiredSize on n for Arrange and for focus/paint to read
// back.
func Measure(n *node.Node, c geom.Constraints) geom.Size {
	c = c.Normalize()
	var size geom.Size
	switch n.Kind {
	case widget.KindText:
		size = c.Clamp(measureLines(n.Text, c.MaxW))
	case widget.KindButton:
		size = c.Clamp(measureLines("[ "+n.Text+" ]", c.MaxW))
	case widget.KindHStack:
		size = c.Clamp(measureStack(n, c, false))
	case widget.KindVStack:
		size = c.Clamp(measureStack(n, c, true))
	case widget.KindOverlay:
		size = c.Clamp(measureOverlay(n, c))
	case widget.KindScrollView:
		size = c.Clamp(measureScrollView(n, c))
	case widget.KindTextBox:
		size = c.Clamp(measureTextBox(n, c))
	case widget.KindCodeBlock:
		size = c.Clamp(measureCodeBlock(n, c))
	default:
		size = c.Clamp(geom.Size{})
	}
	n.LastConstraints = c
	n.DesiredSize = size
	return size
}

func measureLines(text string, maxW int) geom.Size {
	lines := splitLines(text)
	w := 0
	for _, line := range lines {
		lw := lineWidth(line)
		if lw > w {
			w = lw
		}
	}
	if maxW >= 0 && w > maxW {
		w = maxW
	}
	return geom.Size{W: w, H: len(lines)}
}

func lineWidth(line string) int {
	w := 0
	for _, g := range surface.Graphemes(line) {
		w += surface.CellWidth(g)
	}
	return w
}

func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// measureStack implements base-spec §4.7's vertical-stack algorithm
// (horizontal is the mirror image, selected by vertical==false): measure
// fixed/content children first against the stack's cross-axis max (fixed
// children at exactly N on the main axis, content children against an
// unbounded main axis), then distribute the remaining main-axis space among
// fill children by floor division with the remainder given to the
// earliest fill children in order.
func measureStack(n *node.Node, c geom.Constraints, vertical bool) geom.Size {
	mainMax, crossMax := c.MaxH, c.MaxW
	if !vertical {
		mainMax, crossMax = c.MaxW, c.MaxH
	}

	used := 0
	totalWeight := 0
	fillIdx := make([]int, 0, len(n.Children))
	sizes := make([]geom.Size, len(n.Children))

	for i, child := range n.Children {
		hint := hintFor(n, i)
		switch hint.Kind {
		case geom.Fill:
			totalWeight += hint.Weight
			fillIdx = append(fillIdx, i)
			continue
		case geom.Fixed:
			var cc geom.Constraints
			if vertical {
				cc = geom.Constraints{MinW: 0, MaxW: crossMax, MinH: hint.N, MaxH: hint.N}
			} else {
				cc = geom.Constraints{MinW: hint.N, MaxW: hint.N, MinH: 0, MaxH: crossMax}
			}
			sizes[i] = Measure(child, cc)
		default: // Content
			var cc geom.Constraints
			if vertical {
				cc = geom.Constraints{MinW: 0, MaxW: crossMax, MinH: 0, MaxH: unbounded}
			} else {
				cc = geom.Constraints{MinW: 0, MaxW: unbounded, MinH: 0, MaxH: crossMax}
			}
			sizes[i] = Measure(child, cc)
		}
		if vertical {
			used += sizes[i].H
		} else {
			used += sizes[i].W
		}
	}

	remaining := mainMax - used
	if remaining < 0 {
		remaining = 0
	}
	if totalWeight > 0 {
		shares := distribute(remaining, weightsOf(n, fillIdx))
		for k, i := range fillIdx {
			var cc geom.Constraints
			if vertical {
				cc = geom.Constraints{MinW: 0, MaxW: crossMax, MinH: shares[k], MaxH: shares[k]}
			} else {
				cc = geom.Constraints{MinW: shares[k], MaxW: shares[k], MinH: 0, MaxH: crossMax}
			}
			sizes[i] = Measure(n.Children[i], cc)
		}
		used += remaining
	}

	maxCross := 0
	for _, s := range sizes {
		cross := s.H
		if vertical {
			cross = s.W
		}
		if cross > maxCross {
			maxCross = cross
		}
	}

	if vertical {
		return geom.Size{W: maxCross, H: used}
	}
	return geom.Size{W: used, H: maxCross}
}

func hintFor(n *node.Node, i int) geom.SizeHint {
	if i < len(n.ItemHints) {
		return n.ItemHints[i]
	}
	return geom.ContentHint()
}

func weightsOf(n *node.Node, idx []int) []int {
	w := make([]int, len(idx))
	for k, i := range idx {
		w[k] = hintFor(n, i).Weight
	}
	return w
}

// distribute splits total among weights by floor division, handing the
// integer remainder to the earliest entries in order, per base-spec §4.7.
func distribute(total int, weights []int) []int {
	sumW := 0
	for _, w := range weights {
		sumW += w
	}
	shares := make([]int, len(weights))
	if sumW == 0 {
		return shares
	}
	used := 0
	for i, w := range weights {
		shares[i] = total * w / sumW
		used += shares[i]
	}
	leftover := total - used
	for i := 0; leftover > 0 && i < len(shares); i++ {
		shares[i]++
		leftover--
	}
	return shares
}

// measureOverlay measures every layer with the container's loose
// constraints and returns the elementwise maximum, per base-spec §4.7.
func measureOverlay(n *node.Node, c geom.Constraints) geom.Size {
	loose := geom.Loose(c.MaxW, c.MaxH)
	var out geom.Size
	for _, child := range n.Children {
		s := Measure(child, loose)
		if s.W > out.W {
			out.W = s.W
		}
		if s.H > out.H {
			out.H = s.H
		}
	}
	return out
}

// measureScrollView measures its single child unbounded along the scroll
// axis so the child's full content size is known for scrolling math, but
// the ScrollView itself always claims the full space its parent offers.
func measureScrollView(n *node.Node, c geom.Constraints) geom.Size {
	if len(n.Children) == 1 {
		var cc geom.Constraints
		if n.Vertical {
			cc = geom.Constraints{MinW: 0, MaxW: c.MaxW, MinH: 0, MaxH: unbounded}
		} else {
			cc = geom.Constraints{MinW: 0, MaxW: unbounded, MinH: 0, MaxH: c.MaxH}
		}
		Measure(n.Children[0], cc)
	}
	return geom.Size{W: c.MaxW, H: c.MaxH}
}

func measureTextBox(n *node.Node, c geom.Constraints) geom.Size {
	return geom.Size{W: c.MaxW, H: 1}
}

func measureCodeBlock(n *node.Node, c geom.Constraints) geom.Size {
	spans := n.Highlighted()
	var b []byte
	for _, s := range spans {
		b = append(b, s.Text...)
	}
	return measureLines(string(b), c.MaxW)
}

// Arrange runs the top-down arrange pass: n receives its final bounds and
// positions its children using the sizes Measure recorded.
func Arrange(n *node.Node, bounds geom.Rect) {
	n.Bounds = bounds
	switch n.Kind {
	case widget.KindHStack:
		arrangeStack(n, bounds, false)
	case widget.KindVStack:
		arrangeStack(n, bounds, true)
	case widget.KindOverlay:
		arrangeOverlay(n, bounds)
	case widget.KindScrollView:
		arrangeScrollView(n, bounds)
	}
}

func arrangeStack(n *node.Node, bounds geom.Rect, vertical bool) {
	cur := 0
	for _, child := range n.Children {
		size := child.DesiredSize
		var r geom.Rect
		if vertical {
			r = geom.Rect{X: bounds.X, Y: bounds.Y + cur, W: bounds.W, H: size.H}
			cur += size.H
		} else {
			r = geom.Rect{X: bounds.X + cur, Y: bounds.Y, W: size.W, H: bounds.H}
			cur += size.W
		}
		Arrange(child, r)
	}
}

// arrangeOverlay places every layer at the container's full bounds; paint
// is responsible for compositing layers back-to-front and for letting a
// non-barrier layer's siblings show through outside its own content.
func arrangeOverlay(n *node.Node, bounds geom.Rect) {
	for _, child := range n.Children {
		Arrange(child, bounds)
	}
}

// arrangeScrollView positions its child at its measured size, offset
// upward/leftward by the node's retained ScrollOffset; painting clips to
// bounds, per base-spec §4.7 Clipping.
func arrangeScrollView(n *node.Node, bounds geom.Rect) {
	if len(n.Children) != 1 {
		return
	}
	child := n.Children[0]
	size := child.DesiredSize
	r := geom.Rect{X: bounds.X - n.ScrollOffset.W, Y: bounds.Y - n.ScrollOffset.H, W: size.W, H: size.H}
	if n.Vertical {
		r.W = bounds.W
	} else {
		r.H = bounds.H
	}
	Arrange(child, r)
}
