package hostio

import (
	"context"
	"time"

	"hex1b/surface"
)

// Capabilities is what a PresentationAdapter reports about itself before
// the first frame, per base-spec §6: "the adapter reports its current
// dimensions and capabilities before the first frame."
type Capabilities struct {
	Width, Height int
	TrueColor     bool
	Italic        bool
	Strikethrough bool
}

// PresentationAdapter is the output-side contract of base-spec §6. The
// engine never writes bytes directly; every frame is delivered through
// this interface, so the core is testable against a recording fake and
// swappable onto non-ANSI backends (a cell protocol, JSON, a GUI canvas).
type PresentationAdapter interface {
	// Capabilities reports the adapter's starting dimensions and feature
	// set, queried once before SessionStart.
	Capabilities() Capabilities
	// SessionStart announces a new session at the given size and start time.
	SessionStart(w, h int, t0 time.Time) error
	// Frame delivers one frame's update ops plus cursor state.
	Frame(ops []surface.UpdateOp, cursorX, cursorY int, cursorVisible bool) error
	// Resize announces a dimension change independent of a frame.
	Resize(w, h int, t time.Time) error
	// SessionEnd announces the session closing at t.
	SessionEnd(t time.Time) error
}

// WorkloadAdapter is the input-side contract of base-spec §6. Start begins
// producing Events on the returned channel until ctx is cancelled or Stop
// is called; the channel is closed when the adapter has nothing further to
// emit.
type WorkloadAdapter interface {
	Start(ctx context.Context) (<-chan Event, error)
	Stop() error
}
