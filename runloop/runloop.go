// Package runloop implements base-spec §4.9/§5: the single cooperative
// event loop, invalidation coalescing, animation ticks, and cancellation.
//
// Grounded on the teacher's main.go event dispatch (a blocking read loop
// that applies one event and redraws), generalized to the spec's two
// explicit suspension points (await the inbound queue; await the optional
// frame-pacing delay) and its explicit wake reasons (input, invalidation,
// animation tick, resize, stop). Invalidation coalescing borrows the
// *idea* of signals.Batch's deferred flush after the outermost batch
// closes, but the mechanism here is a single idempotent bool rather than a
// subscriber set: the loop has no reactive dependency graph to replay,
// only one frame to decide whether to run.
package runloop

import (
	"context"
	"fmt"
	"time"

	"github.com/tanema/gween"
	"go.uber.org/zap"
)

// Command is a message posted to the loop's inbound queue by background
// tasks (host I/O, diagnostics clients, recordings). It is applied on the
// core task between frames and may set the loop's invalidation flag.
type Command interface {
	apply(l *Loop)
}

// KeyCommand injects a key event, applied via the loop's KeyHandler.
type KeyCommand struct{ Event interface{} }

func (c KeyCommand) apply(l *Loop) {
	if l.OnKey != nil {
		l.OnKey(c.Event)
	}
}

// MouseCommand injects a mouse event, applied via the loop's MouseHandler.
type MouseCommand struct{ X, Y int }

func (c MouseCommand) apply(l *Loop) {
	if l.OnMouse != nil {
		l.OnMouse(c.X, c.Y)
	}
}

// ResizeCommand notifies the loop of a new terminal size.
type ResizeCommand struct{ W, H int }

func (c ResizeCommand) apply(l *Loop) {
	if l.OnResize != nil {
		l.OnResize(c.W, c.H)
	}
	l.Invalidate()
}

// InvalidateCommand requests a frame with no other side effect, for
// background tasks (e.g. a diagnostics client forcing a redraw) that have
// no event shape of their own.
type InvalidateCommand struct{}

func (c InvalidateCommand) apply(l *Loop) { l.Invalidate() }

// Ticker drives time-based animations. It owns zero or more gween.Tween
// instances, each paired with a setter that writes the tween's current
// value back into engine state (a scroll offset, a fade, a cursor blink
// phase). Grounded on phanxgames-willow/animation.go's TweenGroup, which
// plays a fixed-size array of gween.Tween against struct fields the same
// way: Update(dt) steps every tween and reports whether any are still
// running.
type Ticker struct {
	entries []tickEntry
}

type tickEntry struct {
	tween *gween.Tween
	set   func(float32)
}

// Add registers a tween that calls set with its current value on every
// Tick until it finishes. The tween starts running immediately.
func (t *Ticker) Add(tw *gween.Tween, set func(float32)) {
	t.entries = append(t.entries, tickEntry{tween: tw, set: set})
}

// Tick advances every active tween by dt seconds, removing any that
// finish, and reports whether at least one tween is still running (the
// loop should keep waking on ticks while this is true).
func (t *Ticker) Tick(dt float32) (active bool) {
	live := t.entries[:0]
	for _, e := range t.entries {
		val, finished := e.tween.Update(dt)
		e.set(val)
		if !finished {
			live = append(live, e)
			active = true
		}
	}
	t.entries = live
	return active
}

// Active reports whether any tween is still running, without advancing
// time. Used by the loop to decide whether to include the tick interval
// in its wait set.
func (t *Ticker) Active() bool { return len(t.entries) > 0 }

// Config carries the frame-scheduling knobs the loop needs; it is a
// narrow view of config.Config so this package does not import config;
// cmd/hex1bdemo copies the relevant config.Config fields into one.
type Config struct {
	// FrameCeilingFPS bounds render rate; 0 disables pacing.
	FrameCeilingFPS int
	// TickInterval is how often the loop samples the Ticker while
	// animations are active.
	TickInterval time.Duration
}

// DefaultConfig matches base-spec §4.9's "default 60 fps" frame ceiling.
func DefaultConfig() Config {
	return Config{FrameCeilingFPS: 60, TickInterval: 16 * time.Millisecond}
}

func (c Config) framePeriod() time.Duration {
	if c.FrameCeilingFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FrameCeilingFPS)
}

// Loop is the single cooperative core task of base-spec §4.9. Frame builds
// build→reconcile→measure→arrange→paint→diff→emit; the loop only decides
// *when* to call Frame, never what it does.
type Loop struct {
	Config  Config
	Ticker  *Ticker
	Frame   func()
	OnKey   func(event interface{})
	OnMouse func(x, y int)
	OnResize func(w, h int)
	Log     *zap.Logger

	inbound    chan Command
	invalid    bool
	lastRender time.Time
}

// NewLoop constructs a Loop ready to Run. The inbound queue background
// tasks post commands to is buffered at 256 entries, so a post only blocks
// its producer once that many commands are pending.
func NewLoop(cfg Config, frame func(), log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		Config:  cfg,
		Ticker:  &Ticker{},
		Frame:   frame,
		Log:     log,
		inbound: make(chan Command, 256),
	}
}

// Post submits a command to the inbound queue from any task. It never
// blocks the core task's select loop; a full queue blocks the caller
// instead, which base-spec §5 treats as acceptable backpressure on
// misbehaving background producers.
func (l *Loop) Post(cmd Command) {
	l.inbound <- cmd
}

// Invalidate sets the idempotent invalidation flag consumed once per loop
// iteration, per base-spec §4.9: "Invalidate is idempotent and merges into
// the next frame."
func (l *Loop) Invalidate() {
	l.invalid = true
}

// Run executes the loop until ctx is cancelled, implementing base-spec
// §4.9's schedule: await {input, invalidation, tick, resize, stop}, apply
// input, and if invalidated run one frame behind an optional pacing delay.
// Cancellation is cooperative: ctx is only observed between iterations (the
// loop's two suspension points), never mid-frame, so a frame in progress
// always completes.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("runloop: %v", r)
			}
			l.Log.Error("runloop aborting: corrupted invariant", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(tickOr(l.Config.TickInterval, 16*time.Millisecond))
	defer ticker.Stop()

	// An invalidation raised before Run started gets its frame right away
	// instead of waiting for the first command.
	l.renderIfInvalid(ctx)

	for {
		select {
		case <-ctx.Done():
			l.Log.Info("runloop stopped")
			return ctx.Err()

		case cmd := <-l.inbound:
			cmd.apply(l)
			l.drainAndRender(ctx)

		case <-ticker.C:
			if l.Ticker.Active() {
				if l.Ticker.Tick(float32(l.Config.TickInterval.Seconds())) {
					l.Invalidate()
				}
				l.renderIfInvalid(ctx)
			}
		}
	}
}

// drainAndRender applies every command already queued (coalescing any
// invalidations they cause into the single render below) before deciding
// whether to render, so a burst of input arriving between two select
// iterations still produces one frame.
func (l *Loop) drainAndRender(ctx context.Context) {
	for {
		select {
		case cmd := <-l.inbound:
			cmd.apply(l)
			continue
		default:
		}
		break
	}
	l.renderIfInvalid(ctx)
}

func (l *Loop) renderIfInvalid(ctx context.Context) {
	if !l.invalid {
		return
	}
	if period := l.Config.framePeriod(); period > 0 {
		if elapsed := time.Since(l.lastRender); elapsed < period {
			select {
			case <-ctx.Done():
				return
			case <-time.After(period - elapsed):
			}
		}
	}
	l.invalid = false
	l.lastRender = time.Now()
	if l.Frame != nil {
		l.Frame()
	}
}

func tickOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
