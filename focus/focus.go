// Package focus implements base-spec §4.8: the focus ring, focus
// transitions, key-event dispatch/bubbling, and popup-stack modality.
//
// No pack example maintains a focus ring or bubbling input router; the
// dispatch order and transition rules here follow base-spec §4.8 directly.
// The KeyEvent/Handling vocabulary is grounded in the teacher's tui/key.go
// (Key/Mod/KeyEvent) and tui/input.go's ESC/CSI decoding, generalized from
// the teacher's single flat dispatch (main.go's switch on tui.KeyEvent) to
// the spec's global-bindings → focused-node → bubble-to-root chain.
package focus

import "hex1b/node"

// KeyEvent and Handling are node's canonical types, re-exported here since
// this package is what dispatches them (node cannot import focus, as focus
// depends on node to walk the tree).
type KeyEvent = node.KeyEvent
type Handling = node.Handling

const (
	Unhandled = node.Unhandled
	Handled   = node.Handled
)

// Ring is the ordered sequence of focusable node references derived by an
// in-order traversal of the live node tree at render time, per base-spec §3
// Focus ring.
type Ring struct {
	nodes   []*node.Node
	focused *node.Node
}

// BuildRing collects every focusable, non-empty-bounds node in pre-order
// (matching Walk's traversal, which is the in-order dispatch sequence for a
// singly-childed/list tree) and preserves previous's identity as the
// focused entry if it is still present; otherwise the first entry is
// chosen, or focus is cleared if the ring is empty. IsFocused is updated on
// whichever nodes actually change, and onLost/onGained is called with "",
// nil" protection so passing previous==nil on first build is safe.
func BuildRing(root *node.Node, previous *node.Node) *Ring {
	var nodes []*node.Node
	node.Walk(root, func(n *node.Node) {
		if n.IsFocusable && !n.Bounds.Empty() {
			nodes = append(nodes, n)
		}
	})
	r := &Ring{nodes: nodes}
	for _, n := range nodes {
		if n == previous {
			r.focused = n
			break
		}
	}
	if r.focused == nil && len(nodes) > 0 {
		r.focused = nodes[0]
	}
	r.applyFocusedFlag(previous)
	return r
}

func (r *Ring) applyFocusedFlag(previous *node.Node) {
	if previous != nil && previous != r.focused {
		previous.IsFocused = false
		if previous.OnFocusLost != nil {
			previous.OnFocusLost()
		}
	}
	if r.focused != nil && r.focused != previous {
		r.focused.IsFocused = true
		if r.focused.OnFocusGained != nil {
			r.focused.OnFocusGained()
		}
	}
}

// Len returns the ring's size.
func (r *Ring) Len() int { return len(r.nodes) }

// Focused returns the currently focused node, or nil if the ring is empty.
func (r *Ring) Focused() *node.Node { return r.focused }

func (r *Ring) indexOfFocused() int {
	for i, n := range r.nodes {
		if n == r.focused {
			return i
		}
	}
	return -1
}

// Next advances focus to the next ring entry modulo length (Tab).
func (r *Ring) Next() {
	if len(r.nodes) == 0 {
		return
	}
	i := r.indexOfFocused()
	r.transitionTo(r.nodes[(i+1+len(r.nodes))%len(r.nodes)])
}

// Prev retreats focus to the previous ring entry modulo length (Shift+Tab).
func (r *Ring) Prev() {
	if len(r.nodes) == 0 {
		return
	}
	i := r.indexOfFocused()
	if i == -1 {
		i = 0
	}
	r.transitionTo(r.nodes[(i-1+len(r.nodes))%len(r.nodes)])
}

// EscapeToNearestFocusableAncestor transfers focus to the nearest
// focusable ancestor of the currently focused node, or clears focus if
// none exists (Escape).
func (r *Ring) EscapeToNearestFocusableAncestor() {
	if r.focused == nil {
		return
	}
	for anc := r.focused.Parent; anc != nil; anc = anc.Parent {
		if anc.IsFocusable {
			r.transitionTo(anc)
			return
		}
	}
	r.transitionTo(nil)
}

func (r *Ring) transitionTo(n *node.Node) {
	old := r.focused
	if old == n {
		return
	}
	if old != nil {
		old.IsFocused = false
		if old.OnFocusLost != nil {
			old.OnFocusLost()
		}
	}
	r.focused = n
	if n != nil {
		n.IsFocused = true
		if n.OnFocusGained != nil {
			n.OnFocusGained()
		}
	}
}

// GlobalBinding is a process-wide key handler registered on the root,
// checked before the focused node, per base-spec §4.8 dispatch step 1.
type GlobalBinding func(KeyEvent) Handling

// Router dispatches key and mouse events per base-spec §4.8.
type Router struct {
	Globals []GlobalBinding
	Popups  PopupStack
}

// DispatchKey offers ev to global bindings, then the focused node, then
// bubbles up the parent chain until a handler returns Handled or the root
// is reached.
func (rt *Router) DispatchKey(ring *Ring, ev KeyEvent) Handling {
	for _, g := range rt.Globals {
		if g(ev) == Handled {
			return Handled
		}
	}
	for n := ring.Focused(); n != nil; n = n.Parent {
		if n.OnKey != nil {
			if n.OnKey(ev) == Handled {
				return Handled
			}
		}
	}
	return Unhandled
}

// DispatchMouse finds the top-most node whose bounds contain (x,y) —
// confined to the active popup's subtree if one is modal — and bubbles a
// synthetic key-shaped event up its parent chain via handle, the same
// bubbling rule DispatchKey uses. Returns (dismissed=true) instead when the
// point falls outside an active dismiss-on-backdrop barrier.
func (rt *Router) DispatchMouse(root *node.Node, x, y int, handle func(*node.Node) Handling) (dismissed bool) {
	target, dismissed := rt.HitTest(root, x, y)
	if dismissed || target == nil {
		return dismissed
	}
	for n := target; n != nil; n = n.Parent {
		if handle(n) == Handled {
			return false
		}
	}
	return false
}

// HitTest returns the deepest node whose bounds contain (x,y), confined to
// the topmost popup's subtree if the popup stack is non-empty. If the point
// falls outside that subtree, it reports dismissed=true when the popup is
// configured to dismiss on backdrop clicks, else returns (nil, false)
// meaning the event is swallowed by the modal barrier.
func (rt *Router) HitTest(root *node.Node, x, y int) (target *node.Node, dismissed bool) {
	scope := root
	dismissOnBackdrop := false
	if top, ok := rt.Popups.Top(); ok {
		scope = top.Root
		dismissOnBackdrop = top.DismissOnBackdrop
		if !scope.Bounds.Contains(x, y) {
			return nil, dismissOnBackdrop
		}
	}
	var found *node.Node
	node.Walk(scope, func(n *node.Node) {
		if n.Bounds.Contains(x, y) {
			found = n
		}
	})
	return found, false
}

// PopupLayer is one entry of a PopupStack: the root of a modal overlay
// layer's subtree plus its dismiss-on-backdrop policy.
type PopupLayer struct {
	Root              *node.Node
	DismissOnBackdrop bool
}

// PopupStack is the ordered stack of active modal barriers referenced by
// base-spec §4.8 Modality ("a barrier overlay is on the popup stack").
// Application code pushes a layer when it opens a modal overlay and pops it
// when the overlay is dismissed.
type PopupStack struct {
	layers []PopupLayer
}

// Push opens a new modal layer on top of the stack.
func (p *PopupStack) Push(layer PopupLayer) { p.layers = append(p.layers, layer) }

// Pop closes the topmost modal layer, returning it (ok=false if empty).
func (p *PopupStack) Pop() (PopupLayer, bool) {
	if len(p.layers) == 0 {
		return PopupLayer{}, false
	}
	l := p.layers[len(p.layers)-1]
	p.layers = p.layers[:len(p.layers)-1]
	return l, true
}

// Top returns the topmost modal layer without removing it (ok=false if empty).
func (p *PopupStack) Top() (PopupLayer, bool) {
	if len(p.layers) == 0 {
		return PopupLayer{}, false
	}
	return p.layers[len(p.layers)-1], true
}

// Len reports how many modal layers are currently open.
func (p *PopupStack) Len() int { return len(p.layers) }
