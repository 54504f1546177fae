// Package reconcile implements base-spec §4.6: transforming a freshly-built
// widget tree into a minimally-mutated node tree, preserving the retained
// state of nodes that still correspond to a widget at the same position.
//
// No pack example reconciles an immutable description tree against a
// retained one; this package follows base-spec §4.6's matching rule and
// per-parent algorithm directly, in the teacher's small-function style
// (tui/layout_engine.go's Measure/Draw pair of top-down tree walks is the
// closest structural analogue available in the pack).
package reconcile

import (
	"hex1b/geom"
	"hex1b/node"
	"hex1b/widget"
)

// Disposer is invoked once per disposed node, in post-order (children
// before parent), so callers can drop any reference the focus ring,
// overlay/popup stack, or cursor-restore map holds to that identity, per
// base-spec §4.6 Disposal. May be nil.
type Disposer func(*node.Node)

// Reconcile transforms w into a node tree, reusing existing where its kind
// (and, if both sides supply one, its key) still matches w at the root.
// A nil w disposes existing (if any) and returns nil.
func Reconcile(w widget.Widget, existing *node.Node, onDispose Disposer) *node.Node {
	if w == nil {
		if existing != nil {
			dispose(existing, onDispose)
		}
		return nil
	}
	if existing == nil || !matches(w, existing) {
		if existing != nil {
			dispose(existing, onDispose)
		}
		return createFresh(w, onDispose)
	}

	applyProps(w, existing)
	children := w.Children()
	if anyKeyed(children) {
		existing.Children = reconcileKeyed(children, existing.Children, onDispose)
	} else {
		existing.Children = reconcilePositional(children, existing.Children, onDispose)
	}
	for _, c := range existing.Children {
		c.Parent = existing
	}
	return existing
}

func matches(w widget.Widget, n *node.Node) bool {
	if n.Kind != w.Kind() {
		return false
	}
	wk, nk := w.Key(), n.Key
	if wk == nil || nk == nil {
		return true // unkeyed widgets/nodes match on kind alone
	}
	return wk == nk
}

func anyKeyed(children []widget.Widget) bool {
	for _, c := range children {
		if c.Key() != nil {
			return true
		}
	}
	return false
}

// reconcilePositional implements base-spec §4.6 clause 2/4: pair W[i] with
// N[i] while kinds match; on the first mismatch (or once W is exhausted),
// every remaining existing node is disposed and every remaining widget gets
// a freshly created node.
func reconcilePositional(children []widget.Widget, existing []*node.Node, onDispose Disposer) []*node.Node {
	out := make([]*node.Node, len(children))
	mismatchAt := -1
	for i, cw := range children {
		if mismatchAt == -1 && i < len(existing) && existing[i].Kind == cw.Kind() {
			out[i] = Reconcile(cw, existing[i], onDispose)
			continue
		}
		if mismatchAt == -1 {
			mismatchAt = i
		}
		out[i] = Reconcile(cw, nil, onDispose)
	}
	start := len(children)
	if mismatchAt != -1 {
		start = mismatchAt
	}
	for i := start; i < len(existing); i++ {
		dispose(existing[i], onDispose)
	}
	return out
}

// reconcileKeyed implements base-spec §4.6 clause 1: widgets carrying a key
// are matched by key-and-kind against existing nodes; widgets with no key
// (mixed into an otherwise-keyed sibling list) fall back to positional
// matching against the remaining unkeyed existing nodes, in order — the
// "contiguous run of unkeyed widgets" base-spec §4.6 Key equality describes.
// Any existing node not reused by either pass is disposed.
func reconcileKeyed(children []widget.Widget, existing []*node.Node, onDispose Disposer) []*node.Node {
	byKey := make(map[widget.Key]*node.Node, len(existing))
	for _, n := range existing {
		if n.Key != nil {
			byKey[n.Key] = n
		}
	}
	used := make(map[*node.Node]bool, len(existing))
	matched := make([]*node.Node, len(children))

	for i, cw := range children {
		if cw.Key() == nil {
			continue
		}
		if n, ok := byKey[cw.Key()]; ok && !used[n] && n.Kind == cw.Kind() {
			matched[i] = n
			used[n] = true
		}
	}

	var unkeyed []*node.Node
	for _, n := range existing {
		if n.Key == nil && !used[n] {
			unkeyed = append(unkeyed, n)
		}
	}
	ui := 0
	for i, cw := range children {
		if matched[i] != nil || cw.Key() != nil {
			continue
		}
		if ui < len(unkeyed) && unkeyed[ui].Kind == cw.Kind() {
			matched[i] = unkeyed[ui]
			used[unkeyed[ui]] = true
		}
		ui++
	}

	out := make([]*node.Node, len(children))
	for i, cw := range children {
		out[i] = Reconcile(cw, matched[i], onDispose)
	}
	for _, n := range existing {
		if !used[n] {
			dispose(n, onDispose)
		}
	}
	return out
}

func createFresh(w widget.Widget, onDispose Disposer) *node.Node {
	n := &node.Node{Kind: w.Kind(), Key: w.Key()}
	applyProps(w, n)
	children := w.Children()
	out := make([]*node.Node, len(children))
	for i, cw := range children {
		out[i] = Reconcile(cw, nil, onDispose)
		out[i].Parent = n
	}
	n.Children = out
	return n
}

func dispose(n *node.Node, onDispose Disposer) {
	for _, c := range n.Children {
		dispose(c, onDispose)
	}
	if onDispose != nil {
		onDispose(n)
	}
}

// applyProps writes every widget-defined property field into n (text,
// styling, callbacks, per-child hints) without touching n's retained state
// (focus, scroll offset, textbox cursor position, code-span cache), per
// base-spec §4.6 clause 3.
func applyProps(w widget.Widget, n *node.Node) {
	n.ItemHints = nil
	n.Barriers = nil
	n.DismissOnBackdrops = nil

	switch t := w.(type) {
	case *widget.Text:
		n.Text, n.Fg, n.Bg, n.Attrs = t.Content, t.Fg, t.Bg, t.Attrs
	case *widget.Button:
		n.Text = t.Label
		n.OnActivate = t.OnActivate
		n.IsFocusable = true
		onActivate := t.OnActivate
		n.OnKey = func(ev node.KeyEvent) node.Handling {
			if ev.Name == "Enter" && onActivate != nil {
				onActivate()
				return node.Handled
			}
			return node.Unhandled
		}
	case *widget.HStack:
		n.Vertical = false
		n.ItemHints = make([]geom.SizeHint, len(t.Items))
		for i, it := range t.Items {
			n.ItemHints[i] = it.Hint
		}
	case *widget.VStack:
		n.Vertical = true
		n.ItemHints = make([]geom.SizeHint, len(t.Items))
		for i, it := range t.Items {
			n.ItemHints[i] = it.Hint
		}
	case *widget.Overlay:
		n.Barriers = make([]bool, len(t.Layers))
		n.DismissOnBackdrops = make([]bool, len(t.Layers))
		for i, l := range t.Layers {
			n.Barriers[i] = l.Barrier
			n.DismissOnBackdrops[i] = l.DismissOnBackdrop
		}
	case *widget.ScrollView:
		n.Vertical = !t.Horizontal
	case *widget.TextBox:
		n.Doc, n.Cursors, n.History = t.Doc, t.Cursors, t.History
		n.Placeholder = t.Placeholder
		n.OnChange = t.OnChange
		n.IsFocusable = true
	case *widget.CodeBlock:
		n.Source, n.Language = t.Source, t.Language
	}
}
