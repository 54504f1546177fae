// Package widget implements the immutable widget description tree:
// base-spec §3 Widget and the representative widget set SPEC_FULL.md adds
// for testability (HStack, Overlay, ScrollView, TextBox, CodeBlock) beyond
// the base spec's implied Text/Button/VStack.
//
// No pack example describes an immutable-widget/retained-node split; the
// shape here follows base-spec §3 and §4.6 directly, built in the teacher's
// single-struct-per-concept style (tui/layout.go's LayoutNode mixes
// declarative and computed fields in one type; the node package mirrors
// that texture for the retained half of this split).
package widget

import (
	"hex1b/document"
	"hex1b/cursor"
	"hex1b/geom"
	"hex1b/surface"
)

// Kind tags which widget variant a Widget value carries. Kind equality is
// the first half of the reconciliation matching rule (base-spec §4.6).
type Kind int

const (
	KindText Kind = iota
	KindButton
	KindHStack
	KindVStack
	KindOverlay
	KindScrollView
	KindTextBox
	KindCodeBlock
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindButton:
		return "Button"
	case KindHStack:
		return "HStack"
	case KindVStack:
		return "VStack"
	case KindOverlay:
		return "Overlay"
	case KindScrollView:
		return "ScrollView"
	case KindTextBox:
		return "TextBox"
	case KindCodeBlock:
		return "CodeBlock"
	default:
		return "Unknown"
	}
}

// Key is a user-supplied identity value for keyed reconciliation: an int, a
// string, or any other comparable value. A nil Key means "no key supplied".
type Key any

// Arrangement tags a widget's child-arrangement shape, per base-spec §3
// Widget ("none, single child, ordered list, or key-positioned list").
type Arrangement int

const (
	ArrangeNone Arrangement = iota
	ArrangeSingle
	ArrangeList
	ArrangeKeyedList
)

// Widget is the immutable per-frame description every concrete widget kind
// implements. Widgets are re-created every frame and hold no per-frame
// state of their own (retained state lives on the corresponding node).
type Widget interface {
	Kind() Kind
	Key() Key
	Arrangement() Arrangement
	Children() []Widget
}

// Item pairs a child widget with the sizing hint a stack measures it under.
type Item struct {
	Hint  geom.SizeHint
	Child Widget
}

// Text is a read-only run of styled text, base spec's implied leaf widget.
type Text struct {
	WidgetKey Key
	Content   string
	Fg, Bg    surface.Color
	Attrs     surface.Attrs
}

func (w *Text) Kind() Kind             { return KindText }
func (w *Text) Key() Key               { return w.WidgetKey }
func (w *Text) Arrangement() Arrangement { return ArrangeNone }
func (w *Text) Children() []Widget     { return nil }

// Button is a focusable single-line label invoking OnActivate on Enter/click.
type Button struct {
	WidgetKey  Key
	Label      string
	OnActivate func()
}

func (w *Button) Kind() Kind             { return KindButton }
func (w *Button) Key() Key               { return w.WidgetKey }
func (w *Button) Arrangement() Arrangement { return ArrangeNone }
func (w *Button) Children() []Widget     { return nil }

// HStack arranges its items left-to-right along the base spec's horizontal
// stack policy (§4.7).
type HStack struct {
	WidgetKey Key
	Items     []Item
}

func (w *HStack) Kind() Kind             { return KindHStack }
func (w *HStack) Key() Key               { return w.WidgetKey }
func (w *HStack) Arrangement() Arrangement { return ArrangeList }
func (w *HStack) Children() []Widget {
	out := make([]Widget, len(w.Items))
	for i, it := range w.Items {
		out[i] = it.Child
	}
	return out
}

// VStack arranges its items top-to-bottom along the base spec's vertical
// stack policy (§4.7).
type VStack struct {
	WidgetKey Key
	Items     []Item
}

func (w *VStack) Kind() Kind             { return KindVStack }
func (w *VStack) Key() Key               { return w.WidgetKey }
func (w *VStack) Arrangement() Arrangement { return ArrangeList }
func (w *VStack) Children() []Widget {
	out := make([]Widget, len(w.Items))
	for i, it := range w.Items {
		out[i] = it.Child
	}
	return out
}

// Layer is one child of an Overlay. Barrier marks it as a modal barrier:
// when present, input outside the layer's subtree is confined per base-spec
// §4.8 Modality, and DismissOnBackdrop controls whether an outside event
// dismisses it instead of being swallowed.
type Layer struct {
	Child             Widget
	Barrier           bool
	DismissOnBackdrop bool
}

// Overlay stacks its layers at the same origin; later layers paint over
// earlier ones and (if Barrier) capture input, per base-spec §4.7/§4.8.
type Overlay struct {
	WidgetKey Key
	Layers    []Layer
}

func (w *Overlay) Kind() Kind             { return KindOverlay }
func (w *Overlay) Key() Key               { return w.WidgetKey }
func (w *Overlay) Arrangement() Arrangement { return ArrangeList }
func (w *Overlay) Children() []Widget {
	out := make([]Widget, len(w.Layers))
	for i, l := range w.Layers {
		out[i] = l.Child
	}
	return out
}

// ScrollView clips its single child to its own bounds and offers a retained
// scroll offset (held on the node, not here).
type ScrollView struct {
	WidgetKey  Key
	Child      Widget
	Horizontal bool
}

func (w *ScrollView) Kind() Kind             { return KindScrollView }
func (w *ScrollView) Key() Key               { return w.WidgetKey }
func (w *ScrollView) Arrangement() Arrangement { return ArrangeSingle }
func (w *ScrollView) Children() []Widget     { return []Widget{w.Child} }

// TextBox is a single-line editable field backed directly by a
// document.Document and a cursor.CursorSet: the document and cursor cores
// meeting at a widget, per SPEC_FULL.md's supplemented widget set. The
// widget itself holds no state; Doc/Cursors/History are externally owned
// and merely referenced here so reconciliation can wire them onto the node.
type TextBox struct {
	WidgetKey   Key
	Doc         *document.Document
	Cursors     *cursor.CursorSet
	History     *cursor.EditHistory
	Placeholder string
	OnChange    func()
}

func (w *TextBox) Kind() Kind             { return KindTextBox }
func (w *TextBox) Key() Key               { return w.WidgetKey }
func (w *TextBox) Arrangement() Arrangement { return ArrangeNone }
func (w *TextBox) Children() []Widget     { return nil }

// CodeBlock is a read-only, syntax-highlighted source view rendered via the
// highlight package's chroma-backed tokenizer.
type CodeBlock struct {
	WidgetKey Key
	Source    string
	Language  string
}

func (w *CodeBlock) Kind() Kind             { return KindCodeBlock }
func (w *CodeBlock) Key() Key               { return w.WidgetKey }
func (w *CodeBlock) Arrangement() Arrangement { return ArrangeNone }
func (w *CodeBlock) Children() []Widget     { return nil }
