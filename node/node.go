// Package node implements the retained mutable counterpart to a widget
// tree: base-spec §3 Node. A Node is one big struct mixing widget-applied
// properties with layout/focus/retained-state fields, deliberately
// following the texture of the teacher's tui/layout.go LayoutNode (which
// mixes Direction/Width/Height/Padding/Border/Children with the
// computed-by-Measure fields in a single type) rather than splitting
// properties from computed state into separate types.
package node

import (
	"hex1b/cursor"
	"hex1b/document"
	"hex1b/geom"
	"hex1b/highlight"
	"hex1b/surface"
	"hex1b/widget"
)

// Node is the retained counterpart of one widget in the tree.
type Node struct {
	Kind   widget.Kind
	Key    widget.Key
	Parent *Node

	Children []*Node
	// ItemHints holds the per-child sizing hint for stack children,
	// index-aligned with Children; nil for non-stack kinds.
	ItemHints []geom.SizeHint

	// --- widget-applied properties, overwritten wholesale by reconcile ---
	Text        string
	Fg, Bg      surface.Color
	Attrs       surface.Attrs
	OnActivate  func()
	Vertical    bool // stack direction (VStack) / scroll axis (ScrollView)
	Placeholder string
	OnChange    func()
	Source      string
	Language    string
	// Barrier/DismissOnBackdrop are index-aligned with Children for Overlay
	// nodes, mirroring widget.Layer.
	Barriers           []bool
	DismissOnBackdrops []bool

	// Doc/Cursors/History are externally owned (the widget only referenced
	// them); reconcile copies the reference, it does not take ownership.
	Doc     *document.Document
	Cursors *cursor.CursorSet
	History *cursor.EditHistory

	// --- layout-pass fields (base-spec §4.7) ---
	LastConstraints geom.Constraints
	DesiredSize     geom.Size
	Bounds          geom.Rect

	// --- focus-pass fields (base-spec §4.8) ---
	IsFocusable   bool
	IsFocused     bool
	OnFocusGained func()
	OnFocusLost   func()
	OnKey         func(KeyEvent) Handling

	// --- retained state, never touched by reconciliation (base-spec §4.6) ---
	ScrollOffset   geom.Size
	SelectionIndex int
	CodeSpans      []highlight.Span
	codeSpansFor   string // "language\x00source" the cached CodeSpans were tokenized from
}

// KeyEvent is the canonical decoded key event type. It lives here rather
// than in the focus package (which dispatches it) because Node.OnKey must
// reference it and focus depends on node, not the other way around; focus
// re-exports it as focus.KeyEvent via a type alias.
type KeyEvent struct {
	Rune  rune
	Name  string // "Enter", "Tab", "ArrowUp", ... ; empty when Rune is set
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Handling reports whether a node consumed an input event (base-spec §4.8).
type Handling int

const (
	Unhandled Handling = iota
	Handled
)

// Highlighted returns the node's cached CodeSpans, retokenizing via
// highlight.Tokenize only when Source or Language changed since the last
// call — the widget-applied Source/Language fields are overwritten every
// reconcile, but re-lexing the whole source every frame regardless of
// whether it changed would be wasted work on a mostly-static code view.
func (n *Node) Highlighted() []highlight.Span {
	key := n.Language + "\x00" + n.Source
	if n.codeSpansFor == key && n.CodeSpans != nil {
		return n.CodeSpans
	}
	n.CodeSpans = highlight.Tokenize(n.Source, n.Language)
	n.codeSpansFor = key
	return n.CodeSpans
}

// Walk visits n and every descendant in pre-order, depth-first.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}
