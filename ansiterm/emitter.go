// Package ansiterm turns surface.UpdateOps into a minimal ANSI escape
// sequence byte stream: base-spec §4.5's "emit" stage and §6's default
// presentation-adapter serialization.
//
// Grounded on the teacher's tui/screen.go (writeCursorPos, writeStyle,
// renderUnlocked's "only move cursor / re-emit SGR when needed" discipline),
// generalized from Screen's single fg/bg-string Style to surface.Cell's
// Color/Attrs tuple, and from per-cell emission to per-UpdateOp emission.
package ansiterm

import (
	"io"
	"strconv"

	"hex1b/surface"
)

// Emitter writes update ops as ANSI bytes to an underlying writer, tracking
// cursor position and the last-emitted SGR state so it only emits the
// escapes a frame actually needs.
type Emitter struct {
	w          io.Writer
	curX, curY int
	have       bool // whether curX/curY are known (false after a fresh emitter or full redraw)
	lastStyle  surface.Cell
	styleKnown bool
	buf        []byte
}

// New creates an Emitter writing to w.
func New(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Reset forgets cached cursor/style state, forcing the next Emit to move the
// cursor and re-emit SGR before its first cell.
func (e *Emitter) Reset() {
	e.have = false
	e.styleKnown = false
}

// Emit writes the given update ops, then a final cursor move to (cursorX,
// cursorY) and a show/hide sequence, per base-spec §4.5's "append a final
// cursor-move... and show/hide state".
func (e *Emitter) Emit(ops []surface.UpdateOp, cursorX, cursorY int, cursorVisible bool) error {
	for _, op := range ops {
		if err := e.emitOp(op); err != nil {
			return err
		}
	}
	if e.styleKnown {
		if _, err := e.w.Write([]byte("\x1b[0m")); err != nil {
			return err
		}
		e.styleKnown = false
	}
	e.moveCursor(cursorY+1, cursorX+1)
	if cursorVisible {
		_, err := e.w.Write([]byte("\x1b[?25h"))
		return err
	}
	_, err := e.w.Write([]byte("\x1b[?25l"))
	return err
}

func (e *Emitter) emitOp(op surface.UpdateOp) error {
	if !e.have || e.curX != op.StartCol || e.curY != op.Row {
		e.moveCursor(op.Row+1, op.StartCol+1)
	}
	col := op.StartCol
	for _, cell := range op.Cells {
		if cell.IsContinuation() {
			// the predecessor already advanced the cursor past this column
			continue
		}
		if !e.styleKnown || cell.Fg != e.lastStyle.Fg || cell.Bg != e.lastStyle.Bg || cell.Attrs != e.lastStyle.Attrs {
			if e.styleKnown {
				if _, err := e.w.Write([]byte("\x1b[0m")); err != nil {
					return err
				}
			}
			if err := writeSGR(e.w, cell); err != nil {
				return err
			}
			e.lastStyle = cell
			e.styleKnown = true
		}
		g := cell.Grapheme
		if g == "" {
			g = " "
		}
		if _, err := io.WriteString(e.w, g); err != nil {
			return err
		}
		col += surface.CellWidth(g)
	}
	e.curX, e.curY = col, op.Row
	e.have = true
	return nil
}

func (e *Emitter) moveCursor(row, col int) {
	e.buf = e.buf[:0]
	e.buf = append(e.buf, '\x1b', '[')
	e.buf = strconv.AppendInt(e.buf, int64(row), 10)
	e.buf = append(e.buf, ';')
	e.buf = strconv.AppendInt(e.buf, int64(col), 10)
	e.buf = append(e.buf, 'H')
	e.w.Write(e.buf)
	e.curX, e.curY = col-1, row-1
	e.have = true
}

func writeSGR(w io.Writer, c surface.Cell) error {
	var codes []byte
	add := func(n int) {
		if len(codes) > 0 {
			codes = append(codes, ';')
		}
		codes = strconv.AppendInt(codes, int64(n), 10)
	}
	if c.Attrs.Has(surface.Bold) {
		add(1)
	}
	if c.Attrs.Has(surface.Dim) {
		add(2)
	}
	if c.Attrs.Has(surface.Italic) {
		add(3)
	}
	if c.Attrs.Has(surface.Underline) {
		add(4)
	}
	if c.Attrs.Has(surface.Blink) {
		add(5)
	}
	if c.Attrs.Has(surface.Reverse) {
		add(7)
	}
	if c.Attrs.Has(surface.Strikethrough) {
		add(9)
	}
	appendColor(&codes, c.Fg, false)
	appendColor(&codes, c.Bg, true)
	if len(codes) == 0 {
		return nil
	}
	out := append([]byte("\x1b["), codes...)
	out = append(out, 'm')
	_, err := w.Write(out)
	return err
}

func appendColor(codes *[]byte, c surface.Color, bg bool) {
	base := 30
	if bg {
		base = 40
	}
	var add func(n int)
	add = func(n int) {
		if len(*codes) > 0 {
			*codes = append(*codes, ';')
		}
		*codes = strconv.AppendInt(*codes, int64(n), 10)
	}
	switch c.Kind {
	case 0:
		return
	case 1:
		idx := int(c.Index)
		if idx < 8 {
			add(base + idx)
		} else {
			add(base + 60 + (idx - 8))
		}
	case 2:
		add(base + 8)
		add(5)
		add(int(c.Index))
	case 3:
		add(base + 8)
		add(2)
		add(int(c.R))
		add(int(c.G))
		add(int(c.B))
	}
}
