package hostio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hex1b/focus"
	"hex1b/geom"
	"hex1b/layout"
	"hex1b/node"
	"hex1b/reconcile"
	"hex1b/runloop"
	"hex1b/surface"
	"hex1b/widget"
)

// Build produces the widget tree for one frame. The app supplies this;
// the engine owns everything downstream of it (reconcile, layout, focus,
// paint).
type Build func() widget.Widget

// Paint draws the reconciled, arranged node tree into back. The default
// representative widget set's painting rules (Text/Button glyphs,
// stack/overlay compositing, scroll clipping) live wherever the app wires
// them; Engine only guarantees back is cleared before Paint runs and
// diffed against front after.
type Paint func(root *node.Node, back *surface.Surface)

// Engine is the process lifecycle base-spec §6 describes: `run(cancellation)
// → exitCode`, `invalidate()`, `requestStop()`, `sendInput(bytes)`,
// `resize(w,h)`. It wires hostio's adapters to runloop.Loop, driving one
// build→reconcile→measure→arrange→paint→diff→emit frame per invalidation.
type Engine struct {
	Presentation PresentationAdapter
	Workload     WorkloadAdapter
	Build        Build
	Paint        Paint
	Config       runloop.Config
	Log          *zap.Logger

	loop    *runloop.Loop
	back    *surface.Surface
	front   *surface.Surface
	root    *node.Node
	ring    *focus.Ring
	router  *focus.Router
	w, h    int
	fuseGap int
	cancel  context.CancelFunc

	frontMu   sync.RWMutex
	startedAt time.Time
}

// NewEngine wires an Engine against the given adapter pair and build/paint
// callbacks. fuseGap is the diff run-merger's fusion threshold (base-spec
// §4.5/§9's k), typically config.Config.DiffFuseGap.
func NewEngine(pres PresentationAdapter, work WorkloadAdapter, build Build, paint Paint, cfg runloop.Config, fuseGap int, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		Presentation: pres,
		Workload:     work,
		Build:        build,
		Paint:        paint,
		Config:       cfg,
		Log:          log,
		router:       &focus.Router{},
		fuseGap:      fuseGap,
	}
	e.loop = runloop.NewLoop(cfg, e.renderFrame, log)
	e.loop.OnKey = e.applyHostKey
	e.loop.OnMouse = e.applyHostMouse
	e.loop.OnResize = e.applyResize
	return e
}

// Run implements base-spec §6's `run(cancellation) → exitCode`: it starts
// the workload adapter, announces SessionStart to the presentation
// adapter, pumps host events into the loop's inbound queue as Commands,
// runs the loop until ctx is cancelled or requestStop fires, then tears
// down with SessionEnd. Exit code 0 on clean stop, 1 if the loop exited on
// an error other than context cancellation.
func (e *Engine) Run(ctx context.Context) (exitCode int) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	caps := e.Presentation.Capabilities()
	e.w, e.h = caps.Width, caps.Height
	e.back = surface.New(e.w, e.h)
	e.front = surface.New(e.w, e.h)

	e.startedAt = time.Now()
	if err := e.Presentation.SessionStart(e.w, e.h, e.startedAt); err != nil {
		e.Log.Error("session start failed", zap.Error(err))
		return 1
	}

	events, err := e.Workload.Start(runCtx)
	if err != nil {
		e.Log.Error("workload start failed", zap.Error(err))
		e.Presentation.SessionEnd(time.Now())
		return 1
	}

	e.loop.Invalidate()
	go e.pumpEvents(runCtx, events)

	err = e.loop.Run(runCtx)
	e.Workload.Stop()
	e.Presentation.SessionEnd(time.Now())
	if err != nil && err != context.Canceled {
		e.Log.Error("render loop exited with error", zap.Error(err))
		return 1
	}
	return 0
}

// pumpEvents translates WorkloadAdapter events into runloop Commands,
// fulfilling base-spec §5's "background work... communicates with the
// core exclusively by posting messages to an inbound queue."
func (e *Engine) pumpEvents(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch v := ev.(type) {
			case KeyEvent:
				e.loop.Post(runloop.KeyCommand{Event: v})
			case MouseEvent:
				e.loop.Post(runloop.MouseCommand{X: v.X, Y: v.Y})
			case ResizeEvent:
				e.loop.Post(runloop.ResizeCommand{W: v.W, H: v.H})
			case DisconnectEvent:
				e.RequestStop()
				return
			}
		}
	}
}

// AddGlobalBinding registers a process-wide key handler checked before the
// focused node on every dispatch, per base-spec §4.8's dispatch step 1 —
// the mechanism a quit-on-Escape binding (or any other always-reachable
// shortcut) hangs off of.
func (e *Engine) AddGlobalBinding(b focus.GlobalBinding) {
	e.router.Globals = append(e.router.Globals, b)
}

// Invalidate implements base-spec §6's `invalidate()`.
func (e *Engine) Invalidate() { e.loop.Invalidate() }

// RequestStop implements `requestStop()`: cooperative cancellation at the
// next safe point, between frames, per base-spec §4.9.
func (e *Engine) RequestStop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// SendInput implements `sendInput(bytes)` for callers (e.g. a diagnostics
// client) that hold raw bytes rather than a decoded key event; data is
// decoded as UTF-8 and queued as one synthetic key-shaped command per rune.
func (e *Engine) SendInput(data []byte) {
	for _, r := range string(data) {
		e.loop.Post(runloop.KeyCommand{Event: KeyEvent{Code: KeyChar, Char: r, Time: time.Now()}})
	}
}

// Resize implements `resize(w,h)` for callers driving the terminal size
// out-of-band (the diagnostics `resize` method).
func (e *Engine) Resize(w, h int) {
	e.loop.Post(runloop.ResizeCommand{W: w, H: h})
}

func (e *Engine) applyHostKey(ev interface{}) {
	hk, ok := ev.(KeyEvent)
	if !ok {
		return
	}
	nk := node.KeyEvent{
		Rune:  hk.Char,
		Name:  keyName(hk.Code),
		Ctrl:  hk.Mods.Has(Control),
		Alt:   hk.Mods.Has(Alt),
		Shift: hk.Mods.Has(Shift),
	}
	if e.ring != nil {
		if e.router.DispatchKey(e.ring, nk) == focus.Handled {
			e.loop.Invalidate()
		}
	}
}

func (e *Engine) applyHostMouse(x, y int) {
	if e.root == nil {
		return
	}
	handled := false
	e.router.DispatchMouse(e.root, x, y, func(n *node.Node) node.Handling {
		if n.OnActivate != nil {
			n.OnActivate()
			handled = true
			return node.Handled
		}
		return node.Unhandled
	})
	if handled {
		e.loop.Invalidate()
	}
}

func (e *Engine) applyResize(w, h int) {
	e.w, e.h = w, h
	e.back.Resize(w, h)
	e.frontMu.Lock()
	e.front.Resize(w, h)
	e.frontMu.Unlock()
}

// renderFrame runs one build→reconcile→measure→arrange→paint→diff→emit
// pass, per base-spec §4.9's Frame definition.
func (e *Engine) renderFrame() {
	if e.Build == nil {
		return
	}
	w := e.Build()
	e.root = reconcile.Reconcile(w, e.root, nil)
	if e.root == nil {
		return
	}
	layout.Measure(e.root, geom.Tight(e.w, e.h))
	layout.Arrange(e.root, geom.Rect{X: 0, Y: 0, W: e.w, H: e.h})
	var previous *node.Node
	if e.ring != nil {
		previous = e.ring.Focused()
	}
	e.ring = focus.BuildRing(e.root, previous)

	e.back.ClearAll()
	if e.Paint != nil {
		e.Paint(e.root, e.back)
	}

	fuseGap := e.fuseGap
	if fuseGap <= 0 {
		fuseGap = surface.DefaultFuseGap
	}
	ops := surface.Diff(e.back, e.front, fuseGap)
	cx, cy, visible := cursorState(e.ring)
	if err := e.Presentation.Frame(ops, cx, cy, visible); err != nil {
		// front is left as it was, so the next frame diffs against the last
		// committed front; no full redraw is forced and the presentation
		// adapter's cached cursor/style state is not reset.
		e.Log.Warn("frame emit failed, front surface kept for the next diff", zap.Error(err))
		return
	}
	e.frontMu.Lock()
	e.front.CopyFrom(e.back)
	e.frontMu.Unlock()
}

// Snapshot returns a copy of the currently displayed front surface, safe to
// call from any goroutine (e.g. a diagnostics client's `capture` method)
// while the render loop continues mutating it.
func (e *Engine) Snapshot() *surface.Surface {
	e.frontMu.RLock()
	defer e.frontMu.RUnlock()
	if e.front == nil {
		return surface.New(0, 0)
	}
	snap := surface.New(e.front.W, e.front.H)
	snap.CopyFrom(e.front)
	return snap
}

// Dimensions reports the engine's current width/height.
func (e *Engine) Dimensions() (w, h int) { return e.w, e.h }

// StartedAt reports when Run's session began.
func (e *Engine) StartedAt() time.Time { return e.startedAt }

// Tree renders the current node tree as an indented diagnostic listing of
// kind, key and bounds per node, for the diagnostics socket's `tree` method.
func (e *Engine) Tree() string {
	var b strings.Builder
	var walk func(n *node.Node, depth int)
	walk = func(n *node.Node, depth int) {
		if n == nil {
			return
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Kind.String())
		if n.Key != nil {
			b.WriteString(" key=")
			b.WriteString(keyString(n.Key))
		}
		b.WriteString(" bounds=")
		b.WriteString(rectString(n.Bounds))
		b.WriteString("\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(e.root, 0)
	return b.String()
}

func keyString(k widget.Key) string {
	return fmt.Sprint(k)
}

func rectString(r geom.Rect) string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

func cursorState(ring *focus.Ring) (x, y int, visible bool) {
	if ring == nil {
		return 0, 0, false
	}
	n := ring.Focused()
	if n == nil {
		return 0, 0, false
	}
	return n.Bounds.X, n.Bounds.Y, true
}

func keyName(c KeyCode) string {
	switch c {
	case KeyEnter:
		return "Enter"
	case KeyTab:
		return "Tab"
	case KeyEsc:
		return "Escape"
	case KeyBackspace:
		return "Backspace"
	case KeyDelete:
		return "Delete"
	case KeyInsert:
		return "Insert"
	case KeyHome:
		return "Home"
	case KeyEnd:
		return "End"
	case KeyPgUp:
		return "PageUp"
	case KeyPgDown:
		return "PageDown"
	case KeyArrowUp:
		return "ArrowUp"
	case KeyArrowDown:
		return "ArrowDown"
	case KeyArrowLeft:
		return "ArrowLeft"
	case KeyArrowRight:
		return "ArrowRight"
	case KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12:
		return "Function"
	default:
		return ""
	}
}
