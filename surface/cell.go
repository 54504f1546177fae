// Package surface implements the engine's 2-D cell grid: the Cell and
// Surface types, wide-glyph bookkeeping, and the back/front diff that
// produces minimal update ops for the ANSI emitter.
//
// Grounded on the teacher's tui/screen.go (Cell, Buffer, Screen.renderUnlocked
// diffing loop), generalized from a single fg/bg-string Style into the
// bitset Attrs + paletted Color tuple the spec's Cell type calls for, and
// extended with grapheme-cluster width via github.com/rivo/uniseg so wide
// CJK/emoji glyphs occupy two cells with a continuation sentinel.
package surface

import "github.com/rivo/uniseg"

// Attrs is a bitset over the cell attribute set in base-spec §3.
type Attrs uint16

const (
	Bold Attrs = 1 << iota
	Italic
	Underline
	Reverse
	Dim
	Strikethrough
	Blink
	SoftWrap // marks a visual line-wrap boundary, not a rendition attribute
)

// Has reports whether all bits in mask are set.
func (a Attrs) Has(mask Attrs) bool { return a&mask == mask }

// Color is a terminal color reference. The spec explicitly excludes
// concrete color palettes (Non-goals); Color is deliberately a thin tagged
// value the presentation adapter interprets, not a resolved RGB pixel.
type Color struct {
	// Kind 0 = default/unset, 1 = ANSI 0-15, 2 = 256-color index, 3 = truecolor RGB.
	Kind    uint8
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the unset/terminal-default color.
var DefaultColor = Color{}

// ANSIColor builds a 4-bit/8-bit ANSI color reference (0-15).
func ANSIColor(index uint8) Color { return Color{Kind: 1, Index: index} }

// Palette256 builds a 256-color palette reference.
func Palette256(index uint8) Color { return Color{Kind: 2, Index: index} }

// RGB builds a 24-bit truecolor reference.
func RGB(r, g, b uint8) Color { return Color{Kind: 3, R: r, G: g, B: b} }

// Cell is one terminal grid position: a grapheme (or a single codepoint for
// the common case), its foreground/background color, and its attribute
// bitset. Width is derived, not stored, via CellWidth.
type Cell struct {
	Grapheme string // usually one rune; may hold a multi-rune grapheme cluster
	Fg, Bg   Color
	Attrs    Attrs
	// continuation marks a sentinel cell occupying the second column of a
	// wide glyph. Its Grapheme is empty; its predecessor holds the glyph.
	continuation bool
}

// Blank is the zero-value cell: a single space, default colors, no attrs.
var Blank = Cell{Grapheme: " "}

// IsContinuation reports whether c is the sentinel half of a wide glyph.
func (c Cell) IsContinuation() bool { return c.continuation }

// continuationCell builds the sentinel half of a wide glyph.
func continuationCell() Cell { return Cell{continuation: true} }

// CellWidth returns the terminal column width of a grapheme cluster: 0 for
// the empty string, 1 for narrow clusters, 2 for wide ones (CJK ideographs,
// most emoji). Delegates to uniseg's East-Asian-width-aware grapheme
// segmentation so multi-codepoint clusters (flags, ZWJ sequences) are
// measured as a single unit rather than per-rune.
func CellWidth(grapheme string) int {
	if grapheme == "" {
		return 0
	}
	w := uniseg.StringWidth(grapheme)
	if w < 0 {
		return 0
	}
	if w > 2 {
		return 2
	}
	return w
}

// Graphemes splits s into its grapheme clusters in display order, using
// uniseg's cluster boundaries so combining marks and ZWJ sequences stay
// attached to their base rune.
func Graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
