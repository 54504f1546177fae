// Package hostio implements base-spec §6's presentation/workload adapter
// contracts, the default terminal implementation of both, and the process
// lifecycle operations the core exposes to an embedding app.
//
// Grounded on the teacher's tui/term.go (raw-mode enable/disable via
// golang.org/x/term), tui/screen.go (SIGWINCH-driven resize, Stdout
// rendering) and tui/input.go (a dedicated byte-reading goroutine feeding a
// decode loop), generalized from the teacher's single concrete Screen type
// into the two neutral interfaces base-spec §6 calls for, with the
// teacher's own terminal handling kept as the default implementation of
// both.
package hostio

import "time"

// Modifier is one of the neutral modifier bits base-spec §6 specifies:
// "modifier set is {Shift, Control, Alt, Super}".
type Modifier int

const (
	Shift Modifier = 1 << iota
	Control
	Alt
	Super
)

func (m Modifier) Has(b Modifier) bool { return m&b != 0 }

// KeyCode is a neutral key identity, independent of any particular
// terminal's escape-sequence dialect.
type KeyCode int

const (
	KeyNone KeyCode = iota
	KeyChar
	KeyEnter
	KeyTab
	KeyEsc
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPgUp
	KeyPgDown
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// MouseButton identifies which mouse button an action applies to.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseAction distinguishes press/release/move, per base-spec §6.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)

// Event is the closed set of neutral events a WorkloadAdapter emits:
// base-spec §6's key/mouse/paste/resize/disconnect.
type Event interface{ isEvent() }

// KeyEvent reports a decoded key press: "key(code, char, modifiers, t)".
type KeyEvent struct {
	Code KeyCode
	Char rune
	Mods Modifier
	Time time.Time
}

func (KeyEvent) isEvent() {}

// MouseEvent reports a mouse action: "mouse(button, action, x, y, modifiers, t)".
type MouseEvent struct {
	Button MouseButton
	Action MouseAction
	X, Y   int
	Mods   Modifier
	Time   time.Time
}

func (MouseEvent) isEvent() {}

// PasteEvent reports bracketed-paste text, delivered as one unit rather
// than as individual key events.
type PasteEvent struct{ Text string }

func (PasteEvent) isEvent() {}

// ResizeEvent reports a terminal dimension change.
type ResizeEvent struct{ W, H int }

func (ResizeEvent) isEvent() {}

// DisconnectEvent reports the workload adapter's input source closing
// (stdin EOF, socket drop).
type DisconnectEvent struct{}

func (DisconnectEvent) isEvent() {}
