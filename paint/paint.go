// Package paint implements base-spec §4.9's paint pass: the in-order walk
// that renders a measured, arranged node tree into a back surface.
//
// No pack example paints a retained node tree; the recursive walk with an
// exhaustive switch over node kinds follows base-spec §3/§4.7's "closed set
// of widget kinds, tagged-variant dispatch" design note, in the structural
// shape of the teacher's tui/layout_engine.go Measure/Draw pair (a pair of
// top-down tree walks, one per pass).
package paint

import (
	"hex1b/document"
	"hex1b/geom"
	"hex1b/highlight"
	"hex1b/node"
	"hex1b/surface"
	"hex1b/widget"
)

// Render walks root and draws every node into back, clipping each
// subtree to its own bounds by default; per base-spec §4.7 an Overlay's
// layers are the one exception allowed to paint beyond their bounds.
func Render(root *node.Node, back *surface.Surface) {
	renderNode(root, back, geom.Rect{X: 0, Y: 0, W: back.W, H: back.H})
}

func renderNode(n *node.Node, back *surface.Surface, clip geom.Rect) {
	if n == nil {
		return
	}
	switch n.Kind {
	case widget.KindText:
		drawLine(back, n.Bounds, clip, n.Text, n.Fg, n.Bg, n.Attrs)
	case widget.KindButton:
		attrs := n.Attrs
		if n.IsFocused {
			attrs |= surface.Reverse
		}
		drawLine(back, n.Bounds, clip, n.Text, n.Fg, n.Bg, attrs)
	case widget.KindTextBox:
		drawTextBox(n, back, clip)
	case widget.KindCodeBlock:
		drawCodeBlock(n, back, clip)
	}

	childClip := clip
	if n.Kind != widget.KindOverlay {
		childClip = intersect(clip, n.Bounds)
	}
	for _, c := range n.Children {
		renderNode(c, back, childClip)
	}
}

func intersect(a, b geom.Rect) geom.Rect {
	x0, y0 := maxInt(a.X, b.X), maxInt(a.Y, b.Y)
	x1, y1 := minInt(a.X+a.W, b.X+b.W), minInt(a.Y+a.H, b.Y+b.H)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return geom.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func inClip(x, y int, clip geom.Rect) bool {
	return x >= clip.X && x < clip.X+clip.W && y >= clip.Y && y < clip.Y+clip.H
}

// drawLine paints a single line of text starting at bounds' top-left
// corner, one grapheme cluster at a time, stopping at bounds' width or the
// active clip rect, whichever comes first.
func drawLine(back *surface.Surface, bounds, clip geom.Rect, text string, fg, bg surface.Color, attrs surface.Attrs) {
	if bounds.H <= 0 {
		return
	}
	x, y := bounds.X, bounds.Y
	maxX := bounds.X + bounds.W
	for _, g := range surface.Graphemes(text) {
		w := surface.CellWidth(g)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		if inClip(x, y, clip) {
			back.SetGrapheme(x, y, g, fg, bg, attrs)
		}
		x += w
	}
}

// drawTextBox renders the document's text (or, when empty, a dimmed
// placeholder) and a reverse-video cursor cell at the primary cursor's
// character offset, per base-spec §3's Cursor/TextBox pairing.
func drawTextBox(n *node.Node, back *surface.Surface, clip geom.Rect) {
	if n.Doc == nil {
		return
	}
	text := n.Doc.Text()
	attrs := n.Attrs
	if text == "" && n.Placeholder != "" {
		drawLine(back, n.Bounds, clip, n.Placeholder, n.Fg, n.Bg, attrs|surface.Dim)
		return
	}
	drawLine(back, n.Bounds, clip, text, n.Fg, n.Bg, attrs)

	if n.Cursors == nil || n.Cursors.Len() == 0 || !n.IsFocused {
		return
	}
	primary := n.Cursors.Primary()
	col := cursorColumn(n.Doc, primary.Position)
	cx, cy := n.Bounds.X+col, n.Bounds.Y
	if inClip(cx, cy, clip) && cx < n.Bounds.X+n.Bounds.W {
		cell := back.Get(cx, cy)
		back.Set(cx, cy, surface.Cell{Grapheme: orSpace(cell.Grapheme), Fg: cell.Fg, Bg: cell.Bg, Attrs: cell.Attrs | surface.Reverse})
	}
}

func orSpace(g string) string {
	if g == "" {
		return " "
	}
	return g
}

func cursorColumn(doc *document.Document, charOffset int) int {
	line, col, err := doc.OffsetToPosition(charOffset)
	if err != nil || line != 0 {
		return charOffset
	}
	return col
}

// drawCodeBlock paints the node's cached, chroma-tokenized spans left to
// right, wrapping to the next bounds row when a span run would overflow —
// CodeBlock is the one widget kind whose content legitimately spans
// multiple lines within its own bounds.
func drawCodeBlock(n *node.Node, back *surface.Surface, clip geom.Rect) {
	spans := n.Highlighted()
	x, y := n.Bounds.X, n.Bounds.Y
	maxX, maxY := n.Bounds.X+n.Bounds.W, n.Bounds.Y+n.Bounds.H
	for _, span := range spans {
		writeWrapped(back, clip, span, &x, &y, n.Bounds.X, maxX, maxY)
		if y >= maxY {
			return
		}
	}
}

func writeWrapped(back *surface.Surface, clip geom.Rect, span highlight.Span, x, y *int, minX, maxX, maxY int) {
	for _, line := range splitLines(span.Text) {
		for _, seg := range line.runs {
			for _, g := range surface.Graphemes(seg) {
				if *y >= maxY {
					return
				}
				w := surface.CellWidth(g)
				if w == 0 {
					continue
				}
				if *x+w > maxX {
					*x, *y = minX, *y+1
					if *y >= maxY {
						return
					}
				}
				if inClip(*x, *y, clip) {
					back.SetGrapheme(*x, *y, g, span.Fg, surface.DefaultColor, span.Attrs)
				}
				*x += w
			}
		}
		if line.newline {
			*x, *y = minX, *y+1
		}
	}
}

type wrappedLine struct {
	runs    []string
	newline bool
}

// splitLines breaks s on '\n', keeping the separator's line-break effect
// without the '\n' byte itself reaching the grapheme-by-grapheme writer.
func splitLines(s string) []wrappedLine {
	var out []wrappedLine
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, wrappedLine{runs: []string{s[start:i]}, newline: true})
			start = i + 1
		}
	}
	out = append(out, wrappedLine{runs: []string{s[start:]}})
	return out
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
